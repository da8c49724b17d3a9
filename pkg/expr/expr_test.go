package expr_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formcalc/pkg/expr"
)

func invoiceEnv() expr.Env {
	return expr.Env{
		Value: "B",
		Field: "firstName",
		Values: map[string]any{
			"firstName": "B",
			"lastName":  "Smith",
			"qty":       3,
			"taxRate":   0.2,
			"item":      []any{
				map[string]any{"price": 10.0, "qty": 1.0},
				map[string]any{"price": 5.5, "qty": 2.0},
				map[string]any{"price": nil, "qty": 0.0},
			},
			"customer": map[string]any{"name": "Ada", "vip": true},
			"empty":    "",
		},
		Prev: map[string]any{
			"firstName": "A",
		},
	}
}

func TestEvalValues(t *testing.T) {
	t.Parallel()

	cases := []struct {
		source string
		want   any
	}{
		{`value + " " + lastName`, "B Smith"},
		{`values.lastName`, "Smith"},
		{`prev.firstName`, "A"},
		{`field`, "firstName"},
		{`sum(item[*].price)`, 15.5},
		{`item[1].price * item[1].qty`, 11.0},
		{`qty * 2 + 1`, 7.0},
		{`(qty + 1) * 2`, 8.0},
		{`-qty`, -3.0},
		{`10 % 4`, 2.0},
		{`round(sum(item[*].price) * (1 + taxRate), 2)`, 18.6},
		{`count(item)`, 3.0},
		{`len(lastName)`, 5.0},
		{`avg(1, 2, 3)`, 2.0},
		{`min(item[*].qty)`, 0.0},
		{`max(4, item[*].price)`, 10.0},
		{`concat(customer.name, "-", qty)`, "Ada-3"},
		{`join(item[*].qty, "/")`, "1/2/0"},
		{`upper(lastName)`, "SMITH"},
		{`lower('MiXeD')`, "mixed"},
		{`trim("  x ")`, "x"},
		{`coalesce(empty, missing, customer.name)`, "Ada"},
		{`if(qty > 2, "bulk", "single")`, "bulk"},
		{`number("4.5") + 1`, 5.5},
		{`string(qty)`, "3"},
		{`missing.path`, nil},
		{`missing + 1`, 1.0},
		{`'it\'s'`, "it's"},
		{`item[*].price`, []any{10.0, 5.5, nil}},
	}

	env := invoiceEnv()
	for _, tc := range cases {
		got, err := expr.Eval(tc.source, env)
		if err != nil {
			t.Fatalf("Eval(%q) returned error: %v", tc.source, err)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Fatalf("Eval(%q) mismatch (-want +got):\n%s", tc.source, diff)
		}
	}
}

func TestEvalBool(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		`customer.vip`:                    true,
		`!customer.vip`:                   false,
		`qty == 3`:                        true,
		`qty == "3"`:                      true,
		`qty != 3`:                        false,
		`qty >= 3 && lastName == "Smith"`: true,
		`qty < 3 || firstName == "B"`:     true,
		`missing == null`:                 true,
		`value != prev.firstName`:         true,
		`customer.vip == true`:            true,
		`empty`:                           false,
		`"abc" < "abd"`:                   true,
		`count(item[*].price) > 2`:        true,
		`!(qty > 1 && qty < 5)`:           false,
	}

	env := invoiceEnv()
	for source, want := range cases {
		p, err := expr.Compile(source)
		if err != nil {
			t.Fatalf("Compile(%q) returned error: %v", source, err)
		}
		got, err := p.EvalBool(env)
		if err != nil {
			t.Fatalf("EvalBool(%q) returned error: %v", source, err)
		}
		if got != want {
			t.Fatalf("EvalBool(%q) = %v, want %v", source, got, want)
		}
	}
}

func TestCompileErrors(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		``:           "empty expression",
		`a = b`:      "use '=='",
		`a & b`:      "use '&&'",
		`(a + b`:     "missing closing ')'",
		`a +`:        "unexpected end",
		`"open`:      "unterminated string",
		`unknown(1)`: "unknown function",
		`if(1, 2)`:   "expects 3 argument(s)",
		`a b`:        "unexpected token",
		`items[0`:    "missing ']'",
		`a # b`:      "unexpected character",
	}

	for source, want := range cases {
		_, err := expr.Compile(source)
		if err == nil {
			t.Fatalf("Compile(%q) expected error", source)
		}
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("Compile(%q) error %q does not mention %q", source, err, want)
		}
	}
}

func TestEvalRuntimeErrors(t *testing.T) {
	t.Parallel()

	env := invoiceEnv()
	for _, source := range []string{
		`qty / 0`,
		`customer - 1`,
		`sum(lastName)`,
		`customer < 1`,
	} {
		if _, err := expr.Eval(source, env); err == nil {
			t.Fatalf("Eval(%q) expected error", source)
		}
	}
}

func TestProgramString(t *testing.T) {
	t.Parallel()

	p := expr.MustCompile("  qty * 2 ")
	if p.String() != "qty * 2" {
		t.Fatalf("String() = %q", p.String())
	}
}

func TestEqual(t *testing.T) {
	t.Parallel()

	if !expr.Equal(3, "3") || !expr.Equal(2.0, 2) || !expr.Equal(nil, nil) {
		t.Fatalf("expected loose numeric equality")
	}
	if expr.Equal(nil, 0) || expr.Equal("a", "b") {
		t.Fatalf("unexpected equality")
	}
	if !expr.Equal(true, "true") {
		t.Fatalf("expected bool/string equality")
	}
}
