package relay

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/coopco/relaybot/internal/translate"
)

const (
	relayColor    = 0x3498DB
	footerIconURL = "https://i.imgur.com/sg8WDCE.png"
)

// Markers holds the footer texts stamped onto relayed embeds.
type Markers struct {
	Original   string
	Translated string
}

// Transcoder rebuilds message content as relay presentation embeds,
// either verbatim or translated into the target language.
type Transcoder struct {
	translator translate.Translator
	targetLang string
	markers    Markers
	now        func() time.Time
}

func NewTranscoder(tr translate.Translator, targetLang string, markers Markers) *Transcoder {
	return &Transcoder{
		translator: tr,
		targetLang: targetLang,
		markers:    markers,
		now:        time.Now,
	}
}

// Passthrough builds the untranslated relay copy of msg: a synthesized
// block for the plain content and author, then one block per source embed
// with the relay presentation applied. Text is copied verbatim.
func (t *Transcoder) Passthrough(msg Message) []EmbedBlock {
	now := t.now().UTC()
	out := []EmbedBlock{{
		Description:   msg.Content,
		AuthorName:    msg.AuthorName,
		AuthorIconURL: msg.AuthorIconURL,
		ImageURL:      msg.AttachmentURL,
		FooterText:    t.markers.Original,
		FooterIconURL: footerIconURL,
		Timestamp:     now,
		Color:         relayColor,
	}}
	for _, block := range msg.Embeds {
		block.AuthorName = msg.AuthorName
		block.AuthorIconURL = msg.AuthorIconURL
		block.FooterText = t.markers.Original
		block.FooterIconURL = footerIconURL
		block.Timestamp = now
		block.Color = relayColor
		out = append(out, block)
	}
	return out
}

// Translated builds the translated copy of blocks. Only title, description
// and field names/values are translated; block and field order is
// preserved, absent sub-fields stay absent. The footer is replaced with
// the translated marker and the timestamp refreshed.
func (t *Transcoder) Translated(ctx context.Context, blocks []EmbedBlock) []EmbedBlock {
	now := t.now().UTC()
	out := make([]EmbedBlock, 0, len(blocks))
	for _, block := range blocks {
		if block.Title != "" {
			block.Title = t.translateText(ctx, block.Title)
		}
		if block.Description != "" {
			block.Description = t.translateText(ctx, block.Description)
		}
		if len(block.Fields) > 0 {
			fields := make([]Field, len(block.Fields))
			for i, f := range block.Fields {
				if f.Name != "" {
					f.Name = t.translateText(ctx, f.Name)
				}
				if f.Value != "" {
					f.Value = t.translateText(ctx, f.Value)
				}
				fields[i] = f
			}
			block.Fields = fields
		}
		block.FooterText = t.markers.Translated
		block.FooterIconURL = footerIconURL
		block.Timestamp = now
		out = append(out, block)
	}
	return out
}

// translateText translates one fragment. On failure the original text is
// kept so a flaky translator never drops content. Text already in the
// target language is also kept as-is.
func (t *Transcoder) translateText(ctx context.Context, text string) string {
	res, err := t.translator.Translate(ctx, text)
	if err != nil {
		slog.Warn("translation unavailable, keeping original text", "err", err)
		return text
	}
	if res.DetectedSourceLang != "" && strings.EqualFold(res.DetectedSourceLang, t.targetLang) {
		return text
	}
	return res.Text
}
