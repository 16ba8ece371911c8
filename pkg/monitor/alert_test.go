package monitor

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func baseline() AlertSnapshot {
	return AlertSnapshot{SafetyScore: BaselineScore, Label: AllClear, RunState: Stopped, Phase: PhaseStopped}
}

func TestAlertStateTransitions(t *testing.T) {
	tests := []struct {
		name  string
		steps func(a *AlertState)
		want  AlertSnapshot
	}{
		{
			name:  "initial",
			steps: func(a *AlertState) {},
			want:  baseline(),
		},
		{
			name:  "armed",
			steps: func(a *AlertState) { _ = a.Arm("Amit") },
			want:  AlertSnapshot{SafetyScore: 95, Label: AllClear, RunState: Running, Phase: PhaseRunningClear, Stray: "Amit"},
		},
		{
			name: "clear result keeps clear",
			steps: func(a *AlertState) {
				_ = a.Arm("Amit")
				a.Apply(false)
			},
			want: AlertSnapshot{SafetyScore: 95, Label: AllClear, RunState: Running, Phase: PhaseRunningClear, Stray: "Amit"},
		},
		{
			name: "alert separates",
			steps: func(a *AlertState) {
				_ = a.Arm("Amit")
				a.Apply(true)
			},
			want: AlertSnapshot{SafetyScore: 65, Label: Separated, RunState: Running, Phase: PhaseRunningSeparated, Stray: "Amit"},
		},
		{
			name: "separation is sticky",
			steps: func(a *AlertState) {
				_ = a.Arm("Amit")
				a.Apply(true)
				a.Apply(false)
				a.Apply(false)
			},
			want: AlertSnapshot{SafetyScore: 65, Label: Separated, RunState: Running, Phase: PhaseRunningSeparated, Stray: "Amit"},
		},
		{
			name: "stopped ignores results",
			steps: func(a *AlertState) {
				a.Apply(true)
			},
			want: baseline(),
		},
		{
			name: "disarm resets after alert",
			steps: func(a *AlertState) {
				_ = a.Arm("Amit")
				a.Apply(true)
				a.Disarm()
				a.Apply(true)
			},
			want: baseline(),
		},
		{
			name: "rearm clears a separated run",
			steps: func(a *AlertState) {
				_ = a.Arm("Amit")
				a.Apply(true)
				_ = a.Arm("Riya")
			},
			want: AlertSnapshot{SafetyScore: 95, Label: AllClear, RunState: Running, Phase: PhaseRunningClear, Stray: "Riya"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAlertState()
			tt.steps(a)
			if diff := cmp.Diff(tt.want, a.Snapshot()); diff != "" {
				t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAlertStateArmWithoutStray(t *testing.T) {
	a := NewAlertState()
	if err := a.Arm(""); !errors.Is(err, ErrValidation) {
		t.Fatalf("Arm(\"\") error = %v, want ErrValidation", err)
	}
	if a.Running() {
		t.Error("rejected Arm started a run")
	}
}

func TestAlertStateApplyReportsTransition(t *testing.T) {
	a := NewAlertState()
	_ = a.Arm("Amit")

	if a.Apply(false) {
		t.Error("Apply(false) reported a transition")
	}
	if !a.Apply(true) {
		t.Error("first Apply(true) did not report a transition")
	}
	if a.Apply(true) {
		t.Error("second Apply(true) reported a transition")
	}
}

func TestAlertStateDisarmAlwaysBaseline(t *testing.T) {
	// Any pattern of results ends at baseline after Disarm
	for mask := 0; mask < 1<<6; mask++ {
		a := NewAlertState()
		_ = a.Arm("Amit")
		for i := 0; i < 6; i++ {
			a.Apply(mask&(1<<i) != 0)
		}
		a.Disarm()
		if diff := cmp.Diff(baseline(), a.Snapshot()); diff != "" {
			t.Fatalf("mask %06b: (-want +got):\n%s", mask, diff)
		}
	}
}

func TestLabelStrings(t *testing.T) {
	if AllClear.String() != "All Clear" || Separated.String() != "Group Member Separated!" {
		t.Errorf("labels: %q, %q", AllClear, Separated)
	}
	if PhaseRunningSeparated.String() != "RUNNING_SEPARATED" || Running.String() != "RUNNING" {
		t.Errorf("phase/run state strings: %s, %s", PhaseRunningSeparated, Running)
	}
}
