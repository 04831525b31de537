package domain

// Conversation roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// The two fixed podcast speaker identities. The dialogue quality gate counts
// only lines prefixed with one of these labels.
const (
	SpeakerAlex  = "Alex"
	SpeakerSarah = "Sarah"
)

// Turn is a single prior conversation turn, held in the caller's session
// state and passed in as an immutable input.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// DialogueLine is one attributed line of a synthesized podcast script.
// The core returns scripts unparsed; this type exists for downstream
// consumers that split scripts into speaker turns.
type DialogueLine struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}
