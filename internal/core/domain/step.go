package domain

// ActionIntent is a structured action request extracted from reasoning text.
// ActionType is never empty: unparseable action text yields no intent at all.
type ActionIntent struct {
	ActionType string            `json:"action_type"`
	Args       map[string]string `json:"args,omitempty"`
}

// ReasoningStep represents one iteration of the reason-act-observe chain.
// Observation is filled in after the action is dispatched.
type ReasoningStep struct {
	Thought     string        `json:"thought"`
	Action      *ActionIntent `json:"action,omitempty"`
	Observation string        `json:"observation,omitempty"`
	IsFinal     bool          `json:"is_final"`
}

// ToolCallRecord is the audit entry for one dispatched action, including the
// synthetic attempt+undo pair recorded by the guardrail.
type ToolCallRecord struct {
	Action  ActionIntent `json:"action"`
	Result  any          `json:"result"`
	Success bool         `json:"success"`
}

// LoopResult is the terminal output of one planner invocation.
// Success is false only on an invocation-level crash; every anticipated
// degraded condition (timeout, step exhaustion, guardrail block) is
// normalized into a Success=true narrative.
type LoopResult struct {
	Success     bool             `json:"success"`
	FinalAnswer string           `json:"final_answer"`
	Steps       []ReasoningStep  `json:"steps"`
	ToolCalls   []ToolCallRecord `json:"tool_calls"`
	Error       string           `json:"error,omitempty"`
}

// ExecResult is what the action executor returns for a single action.
// Data carries an "id" key on destructive successes so the guardrail can
// key its restore on it.
type ExecResult struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
}
