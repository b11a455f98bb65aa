package domain

// NoOutputSentinel is recorded as a judge's result when the LLM produced no
// user-visible text (only tool traffic, or whitespace).
const NoOutputSentinel = "[No output from LLM]"

// EmptyReportSentinel is returned as the combined report when no verdicts
// were collected.
const EmptyReportSentinel = "[No evaluations received]"

// Verdict is the outcome of one judge's run against one prompt.
// It is created once per evaluation and never mutated afterwards.
type Verdict struct {
	// JudgeID identifies the judge that produced this verdict.
	JudgeID string `json:"judge_id"`

	// JudgeName is the judge's display name at evaluation time.
	JudgeName string `json:"judge_name"`

	// Result is the judge's textual output, trimmed and newline-joined,
	// or NoOutputSentinel when the LLM produced nothing visible.
	Result string `json:"result"`
}

// MessageKind tags a single unit of LLM output.
type MessageKind string

const (
	// MessageText is user-visible response text.
	MessageText MessageKind = "text"

	// MessageToolCall marks an autonomous tool invocation requested by
	// the model. Not user-visible.
	MessageToolCall MessageKind = "tool_call"

	// MessageToolResult marks the output fed back to the model after a
	// tool invocation. Not user-visible.
	MessageToolResult MessageKind = "tool_result"
)

// Message is one element of the sequence returned by the LLM capability.
// The evaluator keeps only MessageText entries when assembling a verdict.
type Message struct {
	// Kind tags the message as text or tool traffic.
	Kind MessageKind `json:"kind"`

	// Content is the message payload: response text, tool arguments, or
	// tool output depending on Kind.
	Content string `json:"content"`

	// ToolName names the invoked tool for tool_call and tool_result
	// messages. Empty for plain text.
	ToolName string `json:"tool_name,omitempty"`
}

// IsText reports whether the message carries user-visible text.
func (m Message) IsText() bool { return m.Kind == MessageText }
