package domain

// Message is the one-way notification an entry sends to its host when saved.
type Message struct {
	Action  string         `json:"action"`
	Content MessageContent `json:"content"`
}

// MessageContent carries the saved entry.
type MessageContent struct {
	Key   string `json:"key"`
	State *Tree  `json:"state"`
}

// NewMessage builds the notification for entry id saved under action.
func NewMessage(action, id string, state *Tree) Message {
	return Message{
		Action:  action,
		Content: MessageContent{Key: id, State: state},
	}
}
