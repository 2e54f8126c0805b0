package core

// DefaultContextWindow is the number of recent messages sent with each
// completion call.
const DefaultContextWindow = 10

// ChatTurn is a message reduced to what the completion provider accepts.
type ChatTurn struct {
	Role    Role
	Content string
}

// ContextWindow returns the newest k messages of history, oldest first.
// Any role other than user is folded into assistant.
func ContextWindow(history []Message, k int) []ChatTurn {
	if k <= 0 || len(history) == 0 {
		return []ChatTurn{}
	}
	start := len(history) - k
	if start < 0 {
		start = 0
	}

	turns := make([]ChatTurn, 0, len(history)-start)
	for _, msg := range history[start:] {
		role := RoleAssistant
		if msg.Role == RoleUser {
			role = RoleUser
		}
		turns = append(turns, ChatTurn{Role: role, Content: msg.Content})
	}
	return turns
}
