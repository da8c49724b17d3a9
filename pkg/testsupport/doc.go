// Package testsupport provides fixture and golden helpers for formcalc tests.
// Helpers that take *testing.T fail the test on error; the *FromPath variants
// return errors for setup code that runs outside a test.
package testsupport
