// Package expr evaluates the small expression language used by declarative
// calculation rules.
//
// Expressions read form values through identifiers and produce a value:
//
//	value + " " + lastName
//	sum(item[*].price) * (1 + taxRate)
//	if(qty > 10, price * 0.9, price)
//
// Identifiers resolve as follows: `value` is the changed field's value,
// `field` its name, `prev.<path>` reads the previous snapshot, `values.<path>`
// or a bare `<path>` reads the current snapshot. A `[*]` segment collects the
// matching entries of a list into a new list. Missing paths evaluate to null.
//
// Supported operators, lowest precedence first: `||`, `&&`, `== !=`,
// `< <= > >=`, `+ -`, `* / %`, unary `! -`. `+` concatenates when either
// operand is a string. Numbers evaluate to float64.
package expr
