package domain

import "strings"

// destructiveActions is the fixed set of action types whose effect is a
// deletion, termination or cancellation.
var destructiveActions = map[string]struct{}{
	"delete_document":    {},
	"delete_employee":    {},
	"delete_task":        {},
	"delete_meeting":     {},
	"remove_employee":    {},
	"terminate_employee": {},
	"cancel_meeting":     {},
	"remove_task":        {},
}

// statusTransitionActions are generically-named update actions that become
// destructive when their status argument encodes a logical deletion.
var statusTransitionActions = map[string]struct{}{
	"tasks_log":       {},
	"attendance_mark": {},
}

// confirmationPhrases are the literal phrases that count as explicit user
// confirmation when present anywhere in the raw user message.
var confirmationPhrases = []string{
	"yes, delete it",
	"force=true",
	"confirm delete",
	"yes delete",
	"delete confirmed",
}

// restoreTables maps destructive action types to the table the guardrail
// restores against after an unconfirmed soft delete. Destructive actions
// without an entry are refused outright instead of attempted.
var restoreTables = map[string]string{
	"delete_document": "documents",
	"delete_employee": "employees",
	"delete_task":     "tasks",
	"delete_meeting":  "meetings",
}

// IsDestructive reports whether an action would have deletion semantics.
// Both named delete actions and status-transition updates with
// status=deleted are caught.
func IsDestructive(actionType string, args map[string]string) bool {
	if _, ok := destructiveActions[actionType]; ok {
		return true
	}
	if _, ok := statusTransitionActions[actionType]; ok {
		return args["status"] == "deleted"
	}
	return false
}

// HasConfirmation reports whether the raw user message contains any of the
// confirmation phrases. Plain substring match, case-insensitive: a phrase
// embedded mid-sentence still counts.
func HasConfirmation(userMessage string) bool {
	lower := strings.ToLower(userMessage)
	for _, phrase := range confirmationPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// ConfirmationPhrases returns the accepted confirmation phrases, for use in
// user-facing guardrail narratives.
func ConfirmationPhrases() []string {
	out := make([]string, len(confirmationPhrases))
	copy(out, confirmationPhrases)
	return out
}

// RestoreTable returns the table a destructive action restores against,
// or "" when the action is not restorable.
func RestoreTable(actionType string) string {
	return restoreTables[actionType]
}

// ConfirmationMessage explains which phrases authorize a destructive action.
func ConfirmationMessage(actionType string) string {
	quoted := make([]string, len(confirmationPhrases))
	for i, p := range confirmationPhrases {
		quoted[i] = "'" + p + "'"
	}
	return "The action '" + actionType + "' is potentially destructive. " +
		"To proceed, please confirm with one of these phrases: " + strings.Join(quoted, ", ")
}
