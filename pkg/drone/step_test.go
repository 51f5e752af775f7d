// SPDX-License-Identifier: MPL-2.0

package drone

import "testing"

func TestParseStep(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		kind StepKind
		text string
	}{
		{"make info", StepShell, "make info"},
		{"  (cd lisp && make)  ", StepExpression, "(cd lisp && make)"},
		{"(mkdir -p build)", StepExpression, "(mkdir -p build)"},
		{"echo (not an expression)", StepShell, "echo (not an expression)"},
	}

	for _, tt := range tests {
		step := ParseStep(tt.raw)
		if step.Kind != tt.kind || step.Text != tt.text {
			t.Errorf("ParseStep(%q) = {%v %q}, want {%v %q}", tt.raw, step.Kind, step.Text, tt.kind, tt.text)
		}
	}
}

func TestProperties_Steps(t *testing.T) {
	t.Parallel()

	props := Properties{PropBuildStep: Multi("make", "(touch done)")}
	steps := props.Steps()
	if len(steps) != 2 {
		t.Fatalf("Steps() returned %d steps, want 2", len(steps))
	}
	if steps[0].Kind != StepShell || steps[1].Kind != StepExpression {
		t.Errorf("Steps() kinds = %v, %v", steps[0].Kind, steps[1].Kind)
	}
}
