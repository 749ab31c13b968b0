package realtime

// Inbound control actions accepted from clients.
const (
	ActionJoinNote  = "join_note"
	ActionLeaveNote = "leave_note"
	ActionEditNote  = "edit_note"
	ActionPing      = "ping"
)

// Outbound event names.
const (
	EventPresenceUpdate = "presence_update"
	EventNoteUpdated    = "note_updated"
	EventError          = "error"
	EventPong           = "pong"
)

// Message is the JSON frame delivered to realtime subscribers.
type Message struct {
	Event   string   `json:"event"`
	NoteID  string   `json:"note_id,omitempty"`
	Members []string `json:"members,omitempty"`
	Content string   `json:"content,omitempty"`
	Text    string   `json:"message,omitempty"`
}

// controlMessage is the JSON frame read from clients.
type controlMessage struct {
	Action     string `json:"action"`
	NoteID     string `json:"note_id"`
	UserHandle string `json:"user_handle"`
	Content    string `json:"content"`
}

func presenceUpdate(noteID string, members []string) Message {
	return Message{Event: EventPresenceUpdate, NoteID: noteID, Members: members}
}

func noteUpdated(noteID, content string) Message {
	return Message{Event: EventNoteUpdated, NoteID: noteID, Content: content}
}

func errorEvent(noteID, text string) Message {
	return Message{Event: EventError, NoteID: noteID, Text: text}
}
