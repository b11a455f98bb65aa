package domain

// Event is the tagged union of notifications an evaluator can emit to its
// coordinator. Making the payload a sum type rather than an untyped map
// turns unknown-event tolerance into an explicit default case in a type
// switch at the receiver.
type Event interface {
	// Kind returns the event's discriminator string.
	Kind() string

	// sealed prevents implementations outside this package so the set of
	// variants stays closed.
	sealed()
}

// EvaluationDone is emitted exactly once per evaluator run, carrying the
// judge's verdict. It is the only event coordinators act on; every other
// variant passes through the default case.
type EvaluationDone struct {
	JudgeID   string
	JudgeName string
	Result    string
}

// Kind returns the event discriminator for EvaluationDone.
func (EvaluationDone) Kind() string { return "evaluation_done" }

func (EvaluationDone) sealed() {}

// Verdict converts the event payload into its stored form.
func (e EvaluationDone) Verdict() Verdict {
	return Verdict{JudgeID: e.JudgeID, JudgeName: e.JudgeName, Result: e.Result}
}

// ToolInvoked is emitted when a judge's model autonomously invokes a tool
// during its run. Coordinators do not act on it; it exists for observers
// that care about tool traffic.
type ToolInvoked struct {
	JudgeID  string
	ToolName string
}

// Kind returns the event discriminator for ToolInvoked.
func (ToolInvoked) Kind() string { return "tool_invoked" }

func (ToolInvoked) sealed() {}
