package relay

import "time"

// Field is a name/value pair inside an embed block.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// EmbedBlock is a structured rich-content unit within a chat message.
// An empty string means the sub-field is absent.
type EmbedBlock struct {
	Title         string    `json:"title,omitempty"`
	Description   string    `json:"description,omitempty"`
	Fields        []Field   `json:"fields,omitempty"`
	FooterText    string    `json:"footerText,omitempty"`
	FooterIconURL string    `json:"footerIconUrl,omitempty"`
	AuthorName    string    `json:"authorName,omitempty"`
	AuthorIconURL string    `json:"authorIconUrl,omitempty"`
	ImageURL      string    `json:"imageUrl,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
	Color         int       `json:"color,omitempty"`
}

// Message is an inbound chat message as seen by the relay.
type Message struct {
	ID            string
	ChannelID     string
	AuthorName    string
	AuthorIconURL string
	Content       string
	AttachmentURL string // first attached image, if any
	Embeds        []EmbedBlock
}
