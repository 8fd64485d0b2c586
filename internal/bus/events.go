package bus

import "github.com/coopco/relaybot/internal/relay"

// EventKind identifies what an inbound event carries.
type EventKind string

const (
	// EventMessage is a message created in some channel.
	EventMessage EventKind = "message"
	// EventTranslate is a user-initiated translate request bound to an
	// already-relayed message.
	EventTranslate EventKind = "translate"
)

// InboundEvent is a chat-platform event received from any channel adapter.
type InboundEvent struct {
	Kind    EventKind
	Channel string // source adapter name (e.g. "discord")

	// Message payload, set when Kind == EventMessage.
	Message relay.Message

	// Translate-request payload, set when Kind == EventTranslate.
	MessageID        string // relayed message the request is bound to
	UserID           string // requesting user
	InteractionID    string
	InteractionToken string
	Blocks           []relay.EmbedBlock // embeds currently on the relayed message
}

// OutboundMessage is a delivery instruction for a channel adapter. When
// InteractionID is set it is an interaction reply, otherwise a channel
// send.
type OutboundMessage struct {
	Channel   string // target adapter name
	ChannelID string // target chat channel (channel sends only)

	Content       string
	Embeds        []relay.EmbedBlock
	MentionRoleID string // role to mention, empty for none

	// TranslateButton attaches the translate affordance, with MessageID as
	// the button identity.
	TranslateButton bool
	MessageID       string

	InteractionID    string
	InteractionToken string
	Ephemeral        bool
}
