// Package rules loads declarative calculations from JSON or YAML documents.
//
// A document lists calculations whose updates are expressions evaluated with
// package expr:
//
//	calculations:
//	  - name: full-name
//	    field: firstName
//	    updates:
//	      fullName: 'value + " " + lastName'
//	  - field: '/^item\[\d+\]\.price$/'
//	    updates:
//	      total: 'sum(item[*].price)'
//
// A field entry is a literal name, a regular expression wrapped in slashes,
// or a list mixing both. Each loaded rule compiles to a calc.Calculation.
package rules
