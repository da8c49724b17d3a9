// Package calc builds form decorators from declarative calculations.
//
// A Calculation watches one or more fields, described by a FieldPattern, and
// computes updates for other fields whenever a watched field changes:
//
//	decorator, err := calc.CreateDecorator(calc.Calculation{
//		Field: calc.Field("firstName"),
//		Updates: calc.UpdatesByName{
//			"fullName": func(value any, all, _ map[string]any) any {
//				return fmt.Sprintf("%v %v", value, all["lastName"])
//			},
//		},
//	})
//
// The decorator is attached to any form.Form; it subscribes to value changes,
// dispatches matching calculations in declaration order and writes results
// back with Form.Change inside a single Form.Batch.
package calc
