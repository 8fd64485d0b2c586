package app

import (
	"context"
	"log/slog"

	"github.com/coopco/relaybot/internal/bus"
	"github.com/coopco/relaybot/internal/cache"
	"github.com/coopco/relaybot/internal/config"
	"github.com/coopco/relaybot/internal/relay"
)

// Relay consumes inbound chat events, relays routed messages to their
// destination channel, and serves translate requests from the cache.
type Relay struct {
	bus        *bus.MessageBus
	router     *relay.Router
	transcoder *relay.Transcoder
	cache      cache.Cache
	messages   config.Messages
	mirror     string // adapter name to mirror relayed messages to, "" = off
}

// RelayConfig holds all dependencies and settings for Relay.
type RelayConfig struct {
	Bus        *bus.MessageBus
	Router     *relay.Router
	Transcoder *relay.Transcoder
	Cache      cache.Cache
	Messages   config.Messages
	Mirror     string
}

// New creates a Relay from the given config.
func New(cfg RelayConfig) *Relay {
	return &Relay{
		bus:        cfg.Bus,
		router:     cfg.Router,
		transcoder: cfg.Transcoder,
		cache:      cfg.Cache,
		messages:   cfg.Messages,
		mirror:     cfg.Mirror,
	}
}

// Run consumes inbound events from the bus and handles each in its own
// goroutine. Returns when ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	for {
		evt, err := r.bus.ConsumeInbound(ctx)
		if err != nil {
			return err
		}
		go r.handle(ctx, evt)
	}
}

// handle is the event handler boundary: one event's failure must never
// crash the process or affect other in-flight events.
func (r *Relay) handle(ctx context.Context, evt bus.InboundEvent) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("event handler panic", "kind", evt.Kind, "panic", rec)
		}
	}()
	switch evt.Kind {
	case bus.EventMessage:
		r.handleMessage(ctx, evt)
	case bus.EventTranslate:
		r.handleTranslate(ctx, evt)
	default:
		slog.Warn("unknown event kind", "kind", evt.Kind)
	}
}

// handleMessage relays a routed message as a pass-through copy with the
// translate button attached. Messages with no route are dropped silently.
func (r *Relay) handleMessage(ctx context.Context, evt bus.InboundEvent) {
	rule, ok := r.router.Route(evt.Message.ChannelID)
	if !ok {
		return
	}
	blocks := r.transcoder.Passthrough(evt.Message)
	r.bus.PublishOutbound(bus.OutboundMessage{
		Channel:         evt.Channel,
		ChannelID:       rule.OutputID,
		MentionRoleID:   rule.NotifyRoleID,
		Embeds:          blocks,
		TranslateButton: true,
		MessageID:       evt.Message.ID,
	})
	if r.mirror != "" {
		r.bus.PublishOutbound(bus.OutboundMessage{
			Channel: r.mirror,
			Embeds:  blocks,
		})
	}
	slog.Info("relayed message",
		"origin", evt.Message.ChannelID,
		"destination", rule.OutputID,
		"author", evt.Message.AuthorName)
}

// handleTranslate serves a translate request: cache hit responds
// immediately, a miss computes the translation, stores it (first write
// wins) and responds with the stored value.
func (r *Relay) handleTranslate(ctx context.Context, evt bus.InboundEvent) {
	blocks, hit, err := r.cache.Get(ctx, evt.MessageID)
	if err != nil {
		slog.Error("cache read failed", "messageID", evt.MessageID, "err", err)
		r.respondFailed(evt)
		return
	}
	if !hit {
		translated := r.transcoder.Translated(ctx, evt.Blocks)
		if err := r.cache.Put(ctx, evt.MessageID, translated); err != nil {
			slog.Error("cache write failed", "messageID", evt.MessageID, "err", err)
			r.respondFailed(evt)
			return
		}
		// Read back so a concurrent first writer's result is served
		// instead of this goroutine's losing computation.
		var ok bool
		blocks, ok, err = r.cache.Get(ctx, evt.MessageID)
		if err != nil || !ok {
			slog.Error("cache readback failed", "messageID", evt.MessageID, "err", err)
			r.respondFailed(evt)
			return
		}
	}
	r.bus.PublishOutbound(bus.OutboundMessage{
		Channel:          evt.Channel,
		InteractionID:    evt.InteractionID,
		InteractionToken: evt.InteractionToken,
		Content:          r.messages.Done,
		Embeds:           blocks,
		Ephemeral:        true,
	})
	slog.Info("served translation", "messageID", evt.MessageID, "user", evt.UserID, "cacheHit", hit)
}

func (r *Relay) respondFailed(evt bus.InboundEvent) {
	r.bus.PublishOutbound(bus.OutboundMessage{
		Channel:          evt.Channel,
		InteractionID:    evt.InteractionID,
		InteractionToken: evt.InteractionToken,
		Content:          r.messages.Failed,
		Ephemeral:        true,
	})
}
