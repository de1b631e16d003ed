// Package ws defines the JSON events exchanged on the chat WebSocket.
package ws

// Client → server event types
const (
	TypeChatMessage = "chat_message"
	TypePing        = "ping"
)

// Server → client event types
const (
	TypeConnectionEstablished = "connection_established"
	TypeMessageSent           = "message_sent"
	TypePersonaTyping         = "persona_typing"
	TypePersonaReply          = "persona_reply"
	TypePersonaStopTyping     = "persona_stop_typing"
	TypePersonaError          = "persona_error"
	TypeError                 = "error"
	TypePong                  = "pong"
)

// Inbound is any event a client sends. Fields not used by Type are ignored.
type Inbound struct {
	Type           string `json:"type"`
	ConversationID uint   `json:"conversationId"`
	Content        string `json:"content"`
	UserID         uint   `json:"userId"`
	PersonaIDs     []uint `json:"personaIds"`
	// BoardMemberIDs is accepted for older clients
	BoardMemberIDs []uint `json:"boardMemberIds"`
	MessageType    string `json:"messageType"`
	FileURL        string `json:"fileUrl"`
}

// Personas returns the requested persona ids, whichever field carried them
func (in Inbound) Personas() []uint {
	if len(in.PersonaIDs) > 0 {
		return in.PersonaIDs
	}
	return in.BoardMemberIDs
}

// Event is a server push. Only the fields relevant to Type are set.
type Event struct {
	Type        string `json:"type"`
	Message     any    `json:"message,omitempty"`
	Persona     any    `json:"persona,omitempty"`
	PersonaID   uint   `json:"personaId,omitempty"`
	PersonaName string `json:"personaName,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Error       string `json:"error,omitempty"`
}

func Connected() Event { return Event{Type: TypeConnectionEstablished, Message: "Connected to AI Board chat"} }

func Pong() Event { return Event{Type: TypePong} }

func Failed(msg string) Event { return Event{Type: TypeError, Error: msg} }

func MessageSent(msg any) Event { return Event{Type: TypeMessageSent, Message: msg} }

func PersonaTyping(id uint, name string) Event {
	return Event{Type: TypePersonaTyping, PersonaID: id, PersonaName: name}
}

func PersonaReply(msg, persona any) Event {
	return Event{Type: TypePersonaReply, Message: msg, Persona: persona}
}

func PersonaStopTyping(id uint) Event { return Event{Type: TypePersonaStopTyping, PersonaID: id} }

// PersonaError tells the client to clear a typing indicator that will never resolve
func PersonaError(id uint, reason string) Event {
	return Event{Type: TypePersonaError, PersonaID: id, Reason: reason}
}
