package channels

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/coopco/relaybot/internal/bus"
	"github.com/coopco/relaybot/internal/relay"
)

func init() {
	Register("telegram", newTelegramChannel)
}

type telegramConfig struct {
	Token  string `json:"token"`
	ChatID int64  `json:"chatId"`
}

// TelegramChannel mirrors relayed messages to a single Telegram chat as
// plain text. It is outbound only and publishes no inbound events.
type TelegramChannel struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func newTelegramChannel(cfg json.RawMessage, msgBus *bus.MessageBus) (Channel, error) {
	var tcfg telegramConfig
	if err := json.Unmarshal(cfg, &tcfg); err != nil {
		return nil, fmt.Errorf("failed to parse telegram config: %w", err)
	}
	bot, err := tgbotapi.NewBotAPI(tcfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &TelegramChannel{bot: bot, chatID: tcfg.ChatID}, nil
}

func (c *TelegramChannel) Name() string { return "telegram" }

func (c *TelegramChannel) Start(ctx context.Context) error {
	slog.Info("telegram mirror ready", "bot", c.bot.Self.UserName, "chatID", c.chatID)
	return nil
}

func (c *TelegramChannel) Stop() error { return nil }

func (c *TelegramChannel) Send(msg bus.OutboundMessage) error {
	text := renderBlocksText(msg.Embeds)
	if text == "" {
		text = msg.Content
	}
	if text == "" {
		return nil
	}
	m := tgbotapi.NewMessage(c.chatID, text)
	if _, err := c.bot.Send(m); err != nil {
		return fmt.Errorf("telegram: failed to send message: %w", err)
	}
	return nil
}

// renderBlocksText flattens embed blocks into a plain-text rendering for
// platforms without structured embeds.
func renderBlocksText(blocks []relay.EmbedBlock) string {
	var sb strings.Builder
	for _, block := range blocks {
		if block.AuthorName != "" {
			fmt.Fprintf(&sb, "[%s]\n", block.AuthorName)
		}
		if block.Title != "" {
			sb.WriteString(block.Title)
			sb.WriteByte('\n')
		}
		if block.Description != "" {
			sb.WriteString(block.Description)
			sb.WriteByte('\n')
		}
		for _, f := range block.Fields {
			fmt.Fprintf(&sb, "%s: %s\n", f.Name, f.Value)
		}
	}
	return strings.TrimSpace(sb.String())
}
