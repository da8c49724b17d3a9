// Package fieldset derives the list of form field names a calculation
// decorator can match regex patterns against.
//
// Field names use the dotted and bracketed form understood by fieldpath, so
// an array of line items described in an OpenAPI request body yields names
// such as "item[0].price". Lists can be sourced from an OpenAPI operation or
// from a Go struct's JSON tags:
//
//	fields, err := fieldset.FromOpenAPI(ctx, data, "createInvoice")
//	f := form.New(form.WithFields(fieldset.Names(fields)...))
package fieldset
