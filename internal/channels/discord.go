package channels

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/coopco/relaybot/internal/bus"
	"github.com/coopco/relaybot/internal/relay"
)

func init() {
	Register("discord", newDiscordChannel)
}

// translateButtonPrefix prefixes the button custom id; the suffix is the
// relayed message id the translate request is bound to.
const translateButtonPrefix = "translate:"

type discordConfig struct {
	Token       string `json:"token"`
	ButtonLabel string `json:"buttonLabel"`
}

// DiscordChannel bridges Discord message and button events onto the bus
// and delivers relayed embeds and ephemeral interaction replies.
type DiscordChannel struct {
	session     *discordgo.Session
	bus         *bus.MessageBus
	buttonLabel string
}

func newDiscordChannel(cfg json.RawMessage, msgBus *bus.MessageBus) (Channel, error) {
	var dcfg discordConfig
	if err := json.Unmarshal(cfg, &dcfg); err != nil {
		return nil, fmt.Errorf("failed to parse discord config: %w", err)
	}
	session, err := discordgo.New("Bot " + dcfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentMessageContent
	return &DiscordChannel{
		session:     session,
		bus:         msgBus,
		buttonLabel: dcfg.ButtonLabel,
	}, nil
}

func (c *DiscordChannel) Name() string { return "discord" }

func (c *DiscordChannel) Start(ctx context.Context) error {
	c.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if isSelfMessage(m, s.State.User) {
			return
		}
		c.bus.PublishInbound(bus.InboundEvent{
			Kind:    bus.EventMessage,
			Channel: "discord",
			Message: toRelayMessage(m),
		})
	})
	c.session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.Type != discordgo.InteractionMessageComponent {
			return
		}
		customID := i.MessageComponentData().CustomID
		if !strings.HasPrefix(customID, translateButtonPrefix) {
			return
		}
		evt := bus.InboundEvent{
			Kind:             bus.EventTranslate,
			Channel:          "discord",
			MessageID:        strings.TrimPrefix(customID, translateButtonPrefix),
			InteractionID:    i.ID,
			InteractionToken: i.Token,
		}
		if i.Member != nil && i.Member.User != nil {
			evt.UserID = i.Member.User.ID
		} else if i.User != nil {
			evt.UserID = i.User.ID
		}
		if i.Message != nil {
			evt.Blocks = fromDiscordEmbeds(i.Message.Embeds)
		}
		c.bus.PublishInbound(evt)
	})
	if err := c.session.Open(); err != nil {
		return fmt.Errorf("discord: failed to open websocket: %w", err)
	}
	return nil
}

func (c *DiscordChannel) Stop() error {
	return c.session.Close()
}

func (c *DiscordChannel) Send(msg bus.OutboundMessage) error {
	if msg.InteractionID != "" {
		return c.respondInteraction(msg)
	}
	send := &discordgo.MessageSend{
		Embeds: toDiscordEmbeds(msg.Embeds),
	}
	if msg.MentionRoleID != "" {
		send.Content = fmt.Sprintf("<@&%s>", msg.MentionRoleID)
	}
	if msg.TranslateButton {
		send.Components = []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    c.buttonLabel,
						Style:    discordgo.PrimaryButton,
						CustomID: translateButtonPrefix + msg.MessageID,
					},
				},
			},
		}
	}
	if _, err := c.session.ChannelMessageSendComplex(msg.ChannelID, send); err != nil {
		return fmt.Errorf("discord: failed to send message: %w", err)
	}
	return nil
}

func (c *DiscordChannel) respondInteraction(msg bus.OutboundMessage) error {
	resp := &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: msg.Content,
			Embeds:  toDiscordEmbeds(msg.Embeds),
		},
	}
	if msg.Ephemeral {
		resp.Data.Flags = discordgo.MessageFlagsEphemeral
	}
	interaction := &discordgo.Interaction{ID: msg.InteractionID, Token: msg.InteractionToken}
	if err := c.session.InteractionRespond(interaction, resp); err != nil {
		return fmt.Errorf("discord: failed to respond to interaction: %w", err)
	}
	return nil
}

// isSelfMessage reports whether the message came from the bot's own user.
// Webhook and other bot authors pass through: announcement feeds are the
// main relay sources and are almost always posted by bots.
func isSelfMessage(m *discordgo.MessageCreate, self *discordgo.User) bool {
	if m.Author == nil {
		return true
	}
	return self != nil && m.Author.ID == self.ID
}

func toRelayMessage(m *discordgo.MessageCreate) relay.Message {
	msg := relay.Message{
		ID:         m.ID,
		ChannelID:  m.ChannelID,
		AuthorName: m.Author.Username,
		Content:    m.Content,
		Embeds:     fromDiscordEmbeds(m.Embeds),
	}
	if m.Author.Avatar != "" {
		msg.AuthorIconURL = m.Author.AvatarURL("")
	}
	if len(m.Attachments) > 0 {
		msg.AttachmentURL = m.Attachments[0].URL
	}
	return msg
}

func fromDiscordEmbeds(embeds []*discordgo.MessageEmbed) []relay.EmbedBlock {
	if len(embeds) == 0 {
		return nil
	}
	out := make([]relay.EmbedBlock, 0, len(embeds))
	for _, e := range embeds {
		block := relay.EmbedBlock{
			Title:       e.Title,
			Description: e.Description,
			Color:       e.Color,
		}
		for _, f := range e.Fields {
			block.Fields = append(block.Fields, relay.Field{Name: f.Name, Value: f.Value})
		}
		if e.Footer != nil {
			block.FooterText = e.Footer.Text
			block.FooterIconURL = e.Footer.IconURL
		}
		if e.Author != nil {
			block.AuthorName = e.Author.Name
			block.AuthorIconURL = e.Author.IconURL
		}
		if e.Image != nil {
			block.ImageURL = e.Image.URL
		}
		if e.Timestamp != "" {
			if ts, err := time.Parse(time.RFC3339, e.Timestamp); err == nil {
				block.Timestamp = ts
			}
		}
		out = append(out, block)
	}
	return out
}

func toDiscordEmbeds(blocks []relay.EmbedBlock) []*discordgo.MessageEmbed {
	out := make([]*discordgo.MessageEmbed, 0, len(blocks))
	for _, block := range blocks {
		e := &discordgo.MessageEmbed{
			Title:       block.Title,
			Description: block.Description,
			Color:       block.Color,
		}
		for _, f := range block.Fields {
			e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value})
		}
		if block.FooterText != "" || block.FooterIconURL != "" {
			e.Footer = &discordgo.MessageEmbedFooter{Text: block.FooterText, IconURL: block.FooterIconURL}
		}
		if block.AuthorName != "" || block.AuthorIconURL != "" {
			e.Author = &discordgo.MessageEmbedAuthor{Name: block.AuthorName, IconURL: block.AuthorIconURL}
		}
		if block.ImageURL != "" {
			e.Image = &discordgo.MessageEmbedImage{URL: block.ImageURL}
		}
		if !block.Timestamp.IsZero() {
			e.Timestamp = block.Timestamp.Format(time.RFC3339)
		}
		out = append(out, e)
	}
	return out
}
