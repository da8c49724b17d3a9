package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokenIdentifier tokenKind = iota
	tokenString
	tokenNumber
	tokenBool
	tokenNull
	tokenEq
	tokenNeq
	tokenLt
	tokenLte
	tokenGt
	tokenGte
	tokenAnd
	tokenOr
	tokenNot
	tokenPlus
	tokenMinus
	tokenStar
	tokenSlash
	tokenPercent
	tokenLParen
	tokenRParen
	tokenComma
)

type token struct {
	kind tokenKind
	raw  string
	pos  int
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	i := 0

	next := func() byte {
		if i >= len(input) {
			return 0
		}
		return input[i]
	}

	emit := func(kind tokenKind, raw string, pos int) {
		tokens = append(tokens, token{kind: kind, raw: raw, pos: pos})
	}

	for i < len(input) {
		ch := input[i]
		start := i
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			i++
			continue
		case ch == '(':
			i++
			emit(tokenLParen, "(", start)
		case ch == ')':
			i++
			emit(tokenRParen, ")", start)
		case ch == ',':
			i++
			emit(tokenComma, ",", start)
		case ch == '+':
			i++
			emit(tokenPlus, "+", start)
		case ch == '-':
			i++
			emit(tokenMinus, "-", start)
		case ch == '*':
			i++
			emit(tokenStar, "*", start)
		case ch == '/':
			i++
			emit(tokenSlash, "/", start)
		case ch == '%':
			i++
			emit(tokenPercent, "%", start)
		case ch == '!':
			i++
			if next() == '=' {
				i++
				emit(tokenNeq, "!=", start)
				continue
			}
			emit(tokenNot, "!", start)
		case ch == '=':
			i++
			if next() != '=' {
				return nil, fmt.Errorf("expr: unexpected '=' at %d; use '=='", start)
			}
			i++
			emit(tokenEq, "==", start)
		case ch == '<':
			i++
			if next() == '=' {
				i++
				emit(tokenLte, "<=", start)
				continue
			}
			emit(tokenLt, "<", start)
		case ch == '>':
			i++
			if next() == '=' {
				i++
				emit(tokenGte, ">=", start)
				continue
			}
			emit(tokenGt, ">", start)
		case ch == '&':
			i++
			if next() != '&' {
				return nil, fmt.Errorf("expr: unexpected '&' at %d; use '&&'", start)
			}
			i++
			emit(tokenAnd, "&&", start)
		case ch == '|':
			i++
			if next() != '|' {
				return nil, fmt.Errorf("expr: unexpected '|' at %d; use '||'", start)
			}
			i++
			emit(tokenOr, "||", start)
		case ch == '"' || ch == '\'':
			value, end, err := scanString(input, i)
			if err != nil {
				return nil, err
			}
			i = end
			emit(tokenString, value, start)
		case isDigit(ch) || (ch == '.' && i+1 < len(input) && isDigit(input[i+1])):
			for i < len(input) && (isDigit(input[i]) || input[i] == '.' || input[i] == 'e' || input[i] == 'E') {
				i++
			}
			raw := input[start:i]
			if _, err := strconv.ParseFloat(raw, 64); err != nil {
				return nil, fmt.Errorf("expr: invalid number %q at %d", raw, start)
			}
			emit(tokenNumber, raw, start)
		case isIdentStart(ch):
			end, err := scanIdentifier(input, i)
			if err != nil {
				return nil, err
			}
			i = end
			raw := input[start:i]
			switch strings.ToLower(raw) {
			case "true", "false":
				emit(tokenBool, strings.ToLower(raw), start)
			case "null", "nil":
				emit(tokenNull, "null", start)
			default:
				emit(tokenIdentifier, raw, start)
			}
		default:
			return nil, fmt.Errorf("expr: unexpected character %q at %d", ch, start)
		}
	}

	return tokens, nil
}

func scanString(input string, i int) (string, int, error) {
	quote := input[i]
	start := i
	i++
	escaped := false
	for i < len(input) {
		c := input[i]
		i++
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		if c == quote {
			body := input[start+1 : i-1]
			if quote == '\'' {
				// strconv.Unquote only accepts single runes in single quotes
				body = strings.ReplaceAll(body, `\'`, `'`)
				body = strings.ReplaceAll(body, `\"`, `"`)
				body = strings.ReplaceAll(body, `"`, `\"`)
			}
			value, err := strconv.Unquote(`"` + body + `"`)
			if err != nil {
				return "", 0, fmt.Errorf("expr: invalid string literal at %d: %w", start, err)
			}
			return value, i, nil
		}
	}
	return "", 0, errors.New("expr: unterminated string literal")
}

// scanIdentifier consumes a path such as items[0].price or item[*].qty.
func scanIdentifier(input string, i int) (int, error) {
	for i < len(input) {
		c := input[i]
		switch {
		case isIdentPart(c) || c == '.':
			i++
		case c == '[':
			end := strings.IndexByte(input[i:], ']')
			if end < 0 {
				return 0, fmt.Errorf("expr: missing ']' after %d", i)
			}
			i += end + 1
		default:
			return i, nil
		}
	}
	return i, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
