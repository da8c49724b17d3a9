package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type tokenStream struct {
	tokens []token
	pos    int
}

func parseExpression(tokens []token) (node, error) {
	stream := &tokenStream{tokens: tokens}
	n, err := parseOr(stream)
	if err != nil {
		return nil, err
	}
	if stream.pos < len(stream.tokens) {
		tok := stream.tokens[stream.pos]
		return nil, fmt.Errorf("expr: unexpected token %q at %d", tok.raw, tok.pos)
	}
	return n, nil
}

func parseOr(stream *tokenStream) (node, error) {
	left, err := parseAnd(stream)
	if err != nil {
		return nil, err
	}
	for stream.match(tokenOr) {
		right, err := parseAnd(stream)
		if err != nil {
			return nil, err
		}
		left = orNode{left: left, right: right}
	}
	return left, nil
}

func parseAnd(stream *tokenStream) (node, error) {
	left, err := parseEquality(stream)
	if err != nil {
		return nil, err
	}
	for stream.match(tokenAnd) {
		right, err := parseEquality(stream)
		if err != nil {
			return nil, err
		}
		left = andNode{left: left, right: right}
	}
	return left, nil
}

func parseEquality(stream *tokenStream) (node, error) {
	return parseBinary(stream, parseComparison, tokenEq, tokenNeq)
}

func parseComparison(stream *tokenStream) (node, error) {
	return parseBinary(stream, parseAdditive, tokenLt, tokenLte, tokenGt, tokenGte)
}

func parseAdditive(stream *tokenStream) (node, error) {
	return parseBinary(stream, parseMultiplicative, tokenPlus, tokenMinus)
}

func parseMultiplicative(stream *tokenStream) (node, error) {
	return parseBinary(stream, parseUnary, tokenStar, tokenSlash, tokenPercent)
}

func parseBinary(stream *tokenStream, operand func(*tokenStream) (node, error), ops ...tokenKind) (node, error) {
	left, err := operand(stream)
	if err != nil {
		return nil, err
	}
	for {
		op, ok := stream.matchAny(ops...)
		if !ok {
			return left, nil
		}
		right, err := operand(stream)
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op.kind, raw: op.raw, left: left, right: right}
	}
}

func parseUnary(stream *tokenStream) (node, error) {
	if op, ok := stream.matchAny(tokenNot, tokenMinus); ok {
		inner, err := parseUnary(stream)
		if err != nil {
			return nil, err
		}
		return unaryNode{op: op.kind, inner: inner}, nil
	}
	return parsePrimary(stream)
}

func parsePrimary(stream *tokenStream) (node, error) {
	if stream.pos >= len(stream.tokens) {
		return nil, errors.New("expr: unexpected end of expression")
	}
	tok := stream.tokens[stream.pos]
	stream.pos++

	switch tok.kind {
	case tokenLParen:
		inner, err := parseOr(stream)
		if err != nil {
			return nil, err
		}
		if !stream.match(tokenRParen) {
			return nil, fmt.Errorf("expr: missing closing ')' for '(' at %d", tok.pos)
		}
		return inner, nil
	case tokenString:
		return literalNode{value: tok.raw}, nil
	case tokenNumber:
		f, err := strconv.ParseFloat(tok.raw, 64)
		if err != nil {
			return nil, fmt.Errorf("expr: invalid number literal %q at %d", tok.raw, tok.pos)
		}
		return literalNode{value: f}, nil
	case tokenBool:
		return literalNode{value: tok.raw == "true"}, nil
	case tokenNull:
		return literalNode{value: nil}, nil
	case tokenIdentifier:
		if stream.match(tokenLParen) {
			return parseCall(stream, tok)
		}
		return newIdentNode(tok.raw), nil
	default:
		return nil, fmt.Errorf("expr: unexpected token %q at %d", tok.raw, tok.pos)
	}
}

func parseCall(stream *tokenStream, name token) (node, error) {
	fn, ok := lookupFunction(name.raw)
	if !ok {
		return nil, fmt.Errorf("expr: unknown function %q at %d", name.raw, name.pos)
	}

	var args []node
	if !stream.match(tokenRParen) {
		for {
			arg, err := parseOr(stream)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if stream.match(tokenComma) {
				continue
			}
			if stream.match(tokenRParen) {
				break
			}
			return nil, fmt.Errorf("expr: expected ',' or ')' in call to %s", name.raw)
		}
	}

	if len(args) < fn.minArgs || (fn.maxArgs >= 0 && len(args) > fn.maxArgs) {
		return nil, fmt.Errorf("expr: %s expects %s, got %d", name.raw, fn.arity(), len(args))
	}
	return callNode{name: strings.ToLower(name.raw), fn: fn, args: args}, nil
}

func (s *tokenStream) match(kind tokenKind) bool {
	_, ok := s.matchAny(kind)
	return ok
}

func (s *tokenStream) matchAny(kinds ...tokenKind) (token, bool) {
	if s.pos >= len(s.tokens) {
		return token{}, false
	}
	tok := s.tokens[s.pos]
	for _, kind := range kinds {
		if tok.kind == kind {
			s.pos++
			return tok, true
		}
	}
	return token{}, false
}
