package chat

type EventKind int

const (
	EventAction EventKind = iota
	EventText
	EventMedia
	EventCommand
)

func (k EventKind) String() string {
	switch k {
	case EventAction:
		return "action"
	case EventText:
		return "text"
	case EventMedia:
		return "media"
	case EventCommand:
		return "command"
	}
	return "unknown"
}

// Actor identifies who sent an event.
type Actor struct {
	ID        int64
	Username  string
	FirstName string
}

// DisplayName prefers @username, falling back to the first name or the id.
func (a Actor) DisplayName() string {
	if a.Username != "" {
		return "@" + a.Username
	}
	if a.FirstName != "" {
		return a.FirstName
	}
	return "user"
}

// Event is one inbound message from the chat transport. ID, when set,
// identifies a button press that should be acknowledged.
type Event struct {
	ID       string
	Kind     EventKind
	Actor    Actor
	Action   Action
	Text     string
	AssetRef string
	Command  string
}
