package rules_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formcalc/pkg/form"
	"github.com/goliatone/go-formcalc/pkg/rules"
	"github.com/goliatone/go-formcalc/pkg/testsupport"
)

func newInvoiceForm(t *testing.T) *form.Memory {
	t.Helper()
	return testsupport.NewDecoratedForm(t, "testdata/invoice.yaml", "testdata/invoice_values.json")
}

func decorate(t *testing.T, doc string, values map[string]any) *form.Memory {
	t.Helper()

	set, err := rules.Parse([]byte(doc), "inline.yaml")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	decorator, err := set.Decorator()
	if err != nil {
		t.Fatalf("decorator: %v", err)
	}
	f := form.New(form.WithInitialValues(values))
	t.Cleanup(f.Decorate(decorator))
	return f
}

func TestDecorator_FullName(t *testing.T) {
	t.Parallel()

	f := newInvoiceForm(t)
	if err := f.Change("firstName", "B"); err != nil {
		t.Fatalf("change: %v", err)
	}
	testsupport.AssertValue(t, f, "fullName", "B Smith")
}

func TestDecorator_TotalsCascade(t *testing.T) {
	t.Parallel()

	f := newInvoiceForm(t)
	if err := f.Change("item[1].price", 7.5); err != nil {
		t.Fatalf("change: %v", err)
	}

	testsupport.AssertValue(t, f, "total", 17.5)
	testsupport.AssertValue(t, f, "tax", 3.5)
	testsupport.AssertValue(t, f, "grandTotal", 21.0)
}

func TestDecorator_PristineFormOnlyRunsOptedInRules(t *testing.T) {
	t.Parallel()

	f := newInvoiceForm(t)
	if _, ok := f.Get("fullName"); ok {
		t.Fatalf("fullName should not be computed on a pristine form")
	}
	if _, ok := f.Get("discount"); ok {
		t.Fatalf("discount guard should have rejected vip=false")
	}
}

func TestDecorator_WhenGuard(t *testing.T) {
	t.Parallel()

	f := newInvoiceForm(t)
	if err := f.Change("customer.vip", true); err != nil {
		t.Fatalf("change: %v", err)
	}
	testsupport.AssertValue(t, f, "discount", 0.1)
}

func TestDecorator_Sanitize(t *testing.T) {
	t.Parallel()

	f := newInvoiceForm(t)
	if err := f.Change("notes", "  <b>hello</b> "); err != nil {
		t.Fatalf("change: %v", err)
	}
	testsupport.AssertValue(t, f, "notesPreview", "hello")
}

func TestDecorator_SkipNextUpdate(t *testing.T) {
	t.Parallel()

	const doc = `
calculations:
  - name: double
    field: a
    skipNextUpdate: true
    updates:
      b: 'value * 2'
  - name: follow
    field: b
    updates:
      c: 'value + 1'
`
	f := decorate(t, doc, map[string]any{"a": 0.0})
	if err := f.Change("a", 1.0); err != nil {
		t.Fatalf("change: %v", err)
	}

	testsupport.AssertValue(t, f, "b", 2.0)
	if c, ok := f.Get("c"); ok {
		t.Fatalf("cycle after double should be skipped, got c=%v", c)
	}
}

func TestDecorator_LooseEquality(t *testing.T) {
	t.Parallel()

	const doc = `
calculations:
  - field: qty
    isEqual: loose
    updateOnPristine: true
    updates:
      doubled: 'value * 2'
`
	f := decorate(t, doc, map[string]any{"qty": 3.0})
	testsupport.AssertValue(t, f, "doubled", 6.0)

	if err := f.Change("doubled", 0.0); err != nil {
		t.Fatalf("change: %v", err)
	}
	if err := f.Change("qty", "3"); err != nil {
		t.Fatalf("change: %v", err)
	}
	testsupport.AssertValue(t, f, "doubled", 0.0)

	if err := f.Change("qty", "4"); err != nil {
		t.Fatalf("change: %v", err)
	}
	testsupport.AssertValue(t, f, "doubled", 8.0)
}

func TestDecorator_FailedExpressionSkipsTarget(t *testing.T) {
	t.Parallel()

	const doc = `
calculations:
  - field: a
    updates:
      ratio: 'value / b'
      label: 'concat("a=", value)'
`
	f := decorate(t, doc, map[string]any{"a": 1.0, "b": 0.0})
	if err := f.Change("a", 2.0); err != nil {
		t.Fatalf("change: %v", err)
	}
	if _, ok := f.Get("ratio"); ok {
		t.Fatalf("division by zero should not write ratio")
	}
	testsupport.AssertValue(t, f, "label", "a=2")
}

func TestSet_Bind(t *testing.T) {
	t.Parallel()

	set := testsupport.LoadRules(t, "testdata/invoice.yaml")
	fields := []string{"firstName", "lastName", "item[0].price", "total", "taxRate", "notes", "customer.vip"}
	if err := set.Bind(fields); err != nil {
		t.Fatalf("bind: %v", err)
	}

	err := set.Bind([]string{"firstName", "notes"})
	if !errors.Is(err, rules.ErrUnboundPattern) {
		t.Fatalf("expected ErrUnboundPattern, got %v", err)
	}

	var unbound []string
	for _, r := range set.Rules() {
		if len(r.Field.Filter([]string{"firstName", "notes"})) == 0 {
			unbound = append(unbound, r.Name)
		}
	}
	if diff := cmp.Diff([]string{"total", "tax", "vip-discount"}, unbound); diff != "" {
		t.Fatalf("unbound rules mismatch (-want +got):\n%s", diff)
	}
	if err := set.Bind(nil); err == nil {
		t.Fatalf("binding without fields should fail")
	}
}

func TestSet_Calculations(t *testing.T) {
	t.Parallel()

	set := testsupport.LoadRules(t, "testdata/invoice.yaml")
	calcs := set.Calculations()
	if len(calcs) != set.Len() {
		t.Fatalf("expected %d calculations, got %d", set.Len(), len(calcs))
	}
	for i, c := range calcs {
		if err := c.Validate(); err != nil {
			t.Fatalf("calculation %d invalid: %v", i, err)
		}
	}

	var nilSet *rules.Set
	if nilSet.Len() != 0 || nilSet.Calculations() != nil || nilSet.Bind(nil) != nil {
		t.Fatalf("nil set should be empty")
	}
}
