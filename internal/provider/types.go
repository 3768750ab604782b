// Package provider defines the language-model backend contract and its two
// implementations: a locally hosted, OpenAI-compatible model server and a
// hosted third-party completions API. Both share one error-tracker design
// for backoff and circuit breaking.
package provider

// Role identifies the author of a message in a conversation context.
type Role string

// Role constants for context messages.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is a single role-tagged message in a generation context.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// TestResult reports the outcome of a connection probe.
type TestResult struct {
	Success   bool   `json:"success"`
	ModelName string `json:"model_name,omitempty"`
	Err       error  `json:"-"`
}

// ErrorMessage returns the probe error text, or "" on success.
func (r TestResult) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}
