package fieldset_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formcalc/pkg/fieldset"
	"github.com/goliatone/go-formcalc/pkg/testsupport"
)

const invoiceDocument = "testdata/invoice.openapi.yaml"

func TestFromOpenAPI_Golden(t *testing.T) {
	t.Parallel()

	data := testsupport.ReadFixture(t, invoiceDocument)
	fields, err := fieldset.FromOpenAPI(testsupport.Context(), data, "createInvoice")
	if err != nil {
		t.Fatalf("from openapi: %v", err)
	}

	const golden = "testdata/invoice_fields.golden.json"
	if testsupport.WriteGolden(t, golden, fields) {
		return
	}
	var want []fieldset.Field
	testsupport.MustLoadGolden(t, golden, &want)
	if diff := cmp.Diff(want, fields); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestFromOpenAPI_MethodPathFallback(t *testing.T) {
	t.Parallel()

	data := testsupport.ReadFixture(t, invoiceDocument)
	fields, err := fieldset.FromOpenAPI(testsupport.Context(), data, "put:/invoices/{id}")
	if err != nil {
		t.Fatalf("from openapi: %v", err)
	}
	if diff := cmp.Diff([]string{"notes"}, fieldset.Names(fields)); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestFromOpenAPI_ArrayLength(t *testing.T) {
	t.Parallel()

	data := testsupport.ReadFixture(t, invoiceDocument)

	fields, err := fieldset.FromOpenAPI(testsupport.Context(), data, "createInvoice", fieldset.WithArrayLength(2))
	if err != nil {
		t.Fatalf("from openapi: %v", err)
	}
	names := fieldset.Names(fields)
	want := []string{"item[0].price", "item[0].qty", "item[1].price", "item[1].qty"}
	if diff := cmp.Diff(want, names[5:9]); diff != "" {
		t.Fatalf("indexed names mismatch (-want +got):\n%s", diff)
	}

	fields, err = fieldset.FromOpenAPI(testsupport.Context(), data, "createInvoice", fieldset.WithArrayLength(0))
	if err != nil {
		t.Fatalf("from openapi: %v", err)
	}
	var item fieldset.Field
	for _, f := range fields {
		if f.Name == "item" {
			item = f
		}
	}
	if item.Type != "array" || !item.Required {
		t.Fatalf("expected required array leaf for item, got %+v", item)
	}
}

func TestFromOpenAPI_Errors(t *testing.T) {
	t.Parallel()

	data := testsupport.ReadFixture(t, invoiceDocument)

	if _, err := fieldset.FromOpenAPI(testsupport.Context(), data, "missing"); !errors.Is(err, fieldset.ErrOperationNotFound) {
		t.Fatalf("expected ErrOperationNotFound, got %v", err)
	}
	if _, err := fieldset.FromOpenAPI(testsupport.Context(), data, "deleteInvoice"); err == nil {
		t.Fatalf("expected error for operation without request body")
	}
	if _, err := fieldset.FromOpenAPI(testsupport.Context(), nil, "createInvoice"); err == nil {
		t.Fatalf("expected error for empty document")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := fieldset.FromOpenAPI(ctx, data, "createInvoice"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	data := testsupport.ReadFixture(t, invoiceDocument)
	fields, err := fieldset.FromOpenAPI(testsupport.Context(), data, "createInvoice")
	if err != nil {
		t.Fatalf("from openapi: %v", err)
	}

	values, err := fieldset.Defaults(fields)
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	want := map[string]any{
		"item":     []any{map[string]any{"qty": 1.0}},
		"lastName": "Smith",
		"taxRate":  0.2,
	}
	if diff := cmp.Diff(want, values); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
}
