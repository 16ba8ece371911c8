package monitor

import "fmt"

// Safety scores shown on the dashboard
const (
	BaselineScore  = 95
	SeparatedScore = 65
)

// Label is the monitoring status shown next to the safety score
type Label int

const (
	AllClear Label = iota
	Separated
)

func (l Label) String() string {
	switch l {
	case AllClear:
		return "All Clear"
	case Separated:
		return "Group Member Separated!"
	default:
		return fmt.Sprintf("Label(%d)", int(l))
	}
}

// RunState is the armed/disarmed state of a monitoring run
type RunState int

const (
	Stopped RunState = iota
	Running
)

func (r RunState) String() string {
	if r == Running {
		return "RUNNING"
	}
	return "STOPPED"
}

// Phase is the combined state of the alert machine
type Phase int

const (
	PhaseStopped Phase = iota
	PhaseRunningClear
	PhaseRunningSeparated
)

func (p Phase) String() string {
	switch p {
	case PhaseStopped:
		return "STOPPED"
	case PhaseRunningClear:
		return "RUNNING_CLEAR"
	case PhaseRunningSeparated:
		return "RUNNING_SEPARATED"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// AlertSnapshot is what the display layer reads
type AlertSnapshot struct {
	SafetyScore int
	Label       Label
	RunState    RunState
	Phase       Phase
	Stray       string
}

// AlertState is the safety state machine:
//
//	STOPPED           --Arm(stray)-->  RUNNING_CLEAR      score 95, All Clear
//	RUNNING_*         --Arm(stray)-->  RUNNING_CLEAR      restart
//	RUNNING_CLEAR     --Apply(true)--> RUNNING_SEPARATED  score 65, Separated
//	RUNNING_CLEAR     --Apply(false)-> RUNNING_CLEAR
//	RUNNING_SEPARATED --Apply(any)-->  RUNNING_SEPARATED  sticky for the run
//	RUNNING_*         --Disarm-->      STOPPED            score 95, All Clear
//	STOPPED           --Apply(any)-->  STOPPED            late results ignored
//
// Arm with an empty stray is rejected and leaves the state untouched.
type AlertState struct {
	phase Phase
	score int
	stray string
}

// NewAlertState creates a machine at baseline
func NewAlertState() *AlertState {
	return &AlertState{phase: PhaseStopped, score: BaselineScore}
}

// Arm starts a run for stray
func (a *AlertState) Arm(stray string) error {
	if stray == "" {
		return fmt.Errorf("select a member to simulate wandering off first: %w", ErrValidation)
	}
	a.phase = PhaseRunningClear
	a.score = BaselineScore
	a.stray = stray
	return nil
}

// Apply feeds one evaluation result; the return reports a transition
func (a *AlertState) Apply(alerted bool) bool {
	if a.phase != PhaseRunningClear || !alerted {
		return false
	}
	a.phase = PhaseRunningSeparated
	a.score = SeparatedScore
	return true
}

// Disarm ends the run and restores the baseline
func (a *AlertState) Disarm() {
	a.phase = PhaseStopped
	a.score = BaselineScore
	a.stray = ""
}

// Running reports whether a run is active
func (a *AlertState) Running() bool { return a.phase != PhaseStopped }

// Snapshot returns the current values
func (a *AlertState) Snapshot() AlertSnapshot {
	snap := AlertSnapshot{
		SafetyScore: a.score,
		Label:       AllClear,
		RunState:    Stopped,
		Phase:       a.phase,
		Stray:       a.stray,
	}
	if a.phase != PhaseStopped {
		snap.RunState = Running
	}
	if a.phase == PhaseRunningSeparated {
		snap.Label = Separated
	}
	return snap
}
