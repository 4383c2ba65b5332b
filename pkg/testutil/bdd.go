package testutil

import "testing"

// Step runs fn as a subtest titled "<keyword> <desc>". The wrappers below
// let multi-step HTTP flows read as scenarios in `go test -v` output.
func Step(t *testing.T, keyword, desc string, fn func(t *testing.T)) bool {
	t.Helper()
	return t.Run(keyword+" "+desc, fn)
}

func Given(t *testing.T, desc string, fn func(t *testing.T)) bool {
	t.Helper()
	return Step(t, "Given", desc, fn)
}

func When(t *testing.T, desc string, fn func(t *testing.T)) bool {
	t.Helper()
	return Step(t, "When", desc, fn)
}

func Then(t *testing.T, desc string, fn func(t *testing.T)) bool {
	t.Helper()
	return Step(t, "Then", desc, fn)
}

// And continues the previous step. Later steps are skipped once one fails.
func And(t *testing.T, desc string, fn func(t *testing.T)) bool {
	t.Helper()
	if t.Failed() {
		return false
	}
	return Step(t, "And", desc, fn)
}
