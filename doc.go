// Package formcalc keeps derived form fields in sync with the fields they
// depend on.
//
// A calculation names the fields it watches (by name, regular expression or a
// list of both) and the target fields it updates. CreateDecorator turns a list
// of calculations into a decorator that subscribes to a form and, whenever a
// watched field changes, writes the computed targets back in one batch:
//
//	decorator, err := formcalc.CreateDecorator(formcalc.Calculation{
//		Field: calc.Field("firstName"),
//		Updates: formcalc.UpdatesByName{
//			"fullName": func(value any, all, _ map[string]any) any {
//				return fmt.Sprintf("%v %v", value, all["lastName"])
//			},
//		},
//	})
//	f := formcalc.NewForm(form.WithInitialValues(values))
//	defer f.Decorate(decorator)()
//
// Calculations can also be declared in JSON or YAML rule files, see LoadRules
// and package rules.
package formcalc
