package app

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/coopco/relaybot/internal/bus"
	"github.com/coopco/relaybot/internal/cache"
	"github.com/coopco/relaybot/internal/config"
	"github.com/coopco/relaybot/internal/relay"
	"github.com/coopco/relaybot/internal/translate"
)

type fakeTranslator struct {
	mu      sync.Mutex
	mapping map[string]string
	calls   int
}

func (f *fakeTranslator) Translate(ctx context.Context, text string) (translate.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	out, ok := f.mapping[text]
	if !ok {
		return translate.Result{}, translate.ErrUnavailable
	}
	return translate.Result{Text: out}, nil
}

func (f *fakeTranslator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type testHarness struct {
	relay      *Relay
	bus        *bus.MessageBus
	translator *fakeTranslator
	cache      *cache.MemoryCache

	mu   sync.Mutex
	sent []bus.OutboundMessage
}

var testMessages = config.Messages{
	ButtonLabel:      "번역하기",
	OriginalFooter:   "원본 메시지",
	TranslatedFooter: "DeepL Translator로 번역됨",
	Done:             "번역이 완료되었습니다.",
	Failed:           "번역 요청을 처리하지 못했습니다.",
}

func newTestHarness(t *testing.T, mapping map[string]string) *testHarness {
	t.Helper()

	router, err := relay.NewRouter([]relay.Rule{
		{Key: "announcements", InputIDs: []string{"100"}, OutputID: "200", NotifyRoleID: "999"},
	})
	if err != nil {
		t.Fatalf("router: %v", err)
	}

	h := &testHarness{
		bus:        bus.NewMessageBus(10),
		translator: &fakeTranslator{mapping: mapping},
		cache:      cache.NewMemory(),
	}
	transcoder := relay.NewTranscoder(h.translator, "KO", relay.Markers{
		Original:   testMessages.OriginalFooter,
		Translated: testMessages.TranslatedFooter,
	})
	h.relay = New(RelayConfig{
		Bus:        h.bus,
		Router:     router,
		Transcoder: transcoder,
		Cache:      h.cache,
		Messages:   testMessages,
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h.bus.Subscribe("", func(msg bus.OutboundMessage) {
		h.mu.Lock()
		h.sent = append(h.sent, msg)
		h.mu.Unlock()
	})
	go h.bus.DispatchOutbound(ctx)
	return h
}

func (h *testHarness) outbound() []bus.OutboundMessage {
	// wait for dispatch to settle
	time.Sleep(50 * time.Millisecond)
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]bus.OutboundMessage, len(h.sent))
	copy(out, h.sent)
	return out
}

func TestUnroutedMessageIsDropped(t *testing.T) {
	h := newTestHarness(t, nil)

	h.relay.handle(context.Background(), bus.InboundEvent{
		Kind:    bus.EventMessage,
		Channel: "discord",
		Message: relay.Message{ID: "m1", ChannelID: "555", Content: "hello"},
	})

	if got := h.outbound(); len(got) != 0 {
		t.Errorf("got %d outbound sends for unrouted message, want 0", len(got))
	}
}

func TestRoutedMessageIsRelayed(t *testing.T) {
	h := newTestHarness(t, nil)

	h.relay.handle(context.Background(), bus.InboundEvent{
		Kind:    bus.EventMessage,
		Channel: "discord",
		Message: relay.Message{ID: "m1", ChannelID: "100", AuthorName: "alice", Content: "hello"},
	})

	got := h.outbound()
	if len(got) != 1 {
		t.Fatalf("got %d outbound sends, want 1", len(got))
	}
	msg := got[0]
	if msg.ChannelID != "200" {
		t.Errorf("destination = %q, want 200", msg.ChannelID)
	}
	if msg.MentionRoleID != "999" {
		t.Errorf("mention role = %q, want 999", msg.MentionRoleID)
	}
	if !msg.TranslateButton || msg.MessageID != "m1" {
		t.Errorf("translate button = %v/%q, want true/m1", msg.TranslateButton, msg.MessageID)
	}
	if len(msg.Embeds) != 1 {
		t.Fatalf("got %d embeds, want 1", len(msg.Embeds))
	}
	if msg.Embeds[0].Description != "hello" {
		t.Errorf("description = %q, want hello", msg.Embeds[0].Description)
	}
	if msg.Embeds[0].FooterText != testMessages.OriginalFooter {
		t.Errorf("footer = %q, want original marker", msg.Embeds[0].FooterText)
	}
	if h.translator.callCount() != 0 {
		t.Errorf("relay made %d translator calls, want 0", h.translator.callCount())
	}
}

func TestTranslateRequestComputesAndCaches(t *testing.T) {
	h := newTestHarness(t, map[string]string{"hello": "안녕"})

	evt := bus.InboundEvent{
		Kind:             bus.EventTranslate,
		Channel:          "discord",
		MessageID:        "m1",
		UserID:           "u1",
		InteractionID:    "i1",
		InteractionToken: "tok1",
		Blocks:           []relay.EmbedBlock{{Description: "hello", FooterText: testMessages.OriginalFooter}},
	}
	h.relay.handle(context.Background(), evt)

	got := h.outbound()
	if len(got) != 1 {
		t.Fatalf("got %d outbound sends, want 1", len(got))
	}
	resp := got[0]
	if resp.InteractionID != "i1" || resp.InteractionToken != "tok1" {
		t.Errorf("interaction ref = %q/%q", resp.InteractionID, resp.InteractionToken)
	}
	if !resp.Ephemeral {
		t.Error("response is not ephemeral")
	}
	if len(resp.Embeds) != 1 || resp.Embeds[0].Description != "안녕" {
		t.Errorf("embeds = %+v, want translated description", resp.Embeds)
	}
	if resp.Embeds[0].FooterText != testMessages.TranslatedFooter {
		t.Errorf("footer = %q, want translated marker", resp.Embeds[0].FooterText)
	}

	cached, ok, err := h.cache.Get(context.Background(), "m1")
	if err != nil || !ok {
		t.Fatalf("cache entry missing: ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(cached, resp.Embeds) {
		t.Errorf("cached %+v, responded %+v", cached, resp.Embeds)
	}
}

func TestTranslateRequestIsIdempotent(t *testing.T) {
	h := newTestHarness(t, map[string]string{"hello": "안녕"})

	evt := bus.InboundEvent{
		Kind:             bus.EventTranslate,
		Channel:          "discord",
		MessageID:        "m1",
		InteractionID:    "i1",
		InteractionToken: "tok1",
		Blocks:           []relay.EmbedBlock{{Description: "hello"}},
	}
	h.relay.handle(context.Background(), evt)
	callsAfterFirst := h.translator.callCount()

	second := evt
	second.InteractionID = "i2"
	second.InteractionToken = "tok2"
	h.relay.handle(context.Background(), second)

	got := h.outbound()
	if len(got) != 2 {
		t.Fatalf("got %d outbound sends, want 2", len(got))
	}
	if !reflect.DeepEqual(got[0].Embeds, got[1].Embeds) {
		t.Errorf("responses differ:\nfirst:  %+v\nsecond: %+v", got[0].Embeds, got[1].Embeds)
	}
	if h.translator.callCount() != callsAfterFirst {
		t.Errorf("second request made %d extra translator calls, want 0",
			h.translator.callCount()-callsAfterFirst)
	}
}

// rendezvousTranslator holds every Translate call at a barrier so two
// in-flight requests are guaranteed to compute before either stores,
// and returns a distinct text per call so divergent results would show.
type rendezvousTranslator struct {
	arrived chan struct{}
	release chan struct{}
	mu      sync.Mutex
	calls   int
}

func (r *rendezvousTranslator) Translate(ctx context.Context, text string) (translate.Result, error) {
	r.arrived <- struct{}{}
	<-r.release
	r.mu.Lock()
	r.calls++
	n := r.calls
	r.mu.Unlock()
	return translate.Result{Text: fmt.Sprintf("%s#%d", text, n)}, nil
}

func TestConcurrentTranslateRequestsServeSameResult(t *testing.T) {
	h := newTestHarness(t, nil)
	rt := &rendezvousTranslator{
		arrived: make(chan struct{}),
		release: make(chan struct{}),
	}
	h.relay.transcoder = relay.NewTranscoder(rt, "KO", relay.Markers{
		Original:   testMessages.OriginalFooter,
		Translated: testMessages.TranslatedFooter,
	})

	evt := bus.InboundEvent{
		Kind:      bus.EventTranslate,
		Channel:   "discord",
		MessageID: "m1",
		Blocks:    []relay.EmbedBlock{{Description: "hello"}},
	}
	var wg sync.WaitGroup
	for _, id := range []string{"i1", "i2"} {
		e := evt
		e.InteractionID = id
		e.InteractionToken = "tok-" + id
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.relay.handle(context.Background(), e)
		}()
	}
	// both requests miss the cache and reach the translator
	<-rt.arrived
	<-rt.arrived
	close(rt.release)
	wg.Wait()

	got := h.outbound()
	if len(got) != 2 {
		t.Fatalf("got %d outbound sends, want 2", len(got))
	}
	if !reflect.DeepEqual(got[0].Embeds, got[1].Embeds) {
		t.Errorf("concurrent responses differ:\nfirst:  %+v\nsecond: %+v", got[0].Embeds, got[1].Embeds)
	}
	cached, ok, err := h.cache.Get(context.Background(), "m1")
	if err != nil || !ok {
		t.Fatalf("cache entry missing: ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(cached, got[0].Embeds) {
		t.Errorf("responses diverge from stored entry:\nstored: %+v\nserved: %+v", cached, got[0].Embeds)
	}
}

func TestTranslateFailureKeepsOriginalText(t *testing.T) {
	// empty mapping: every translation call fails
	h := newTestHarness(t, nil)

	h.relay.handle(context.Background(), bus.InboundEvent{
		Kind:             bus.EventTranslate,
		Channel:          "discord",
		MessageID:        "m1",
		InteractionID:    "i1",
		InteractionToken: "tok1",
		Blocks:           []relay.EmbedBlock{{Description: "hello"}},
	})

	got := h.outbound()
	if len(got) != 1 {
		t.Fatalf("got %d outbound sends, want 1", len(got))
	}
	if got[0].Embeds[0].Description != "hello" {
		t.Errorf("description = %q, want original text", got[0].Embeds[0].Description)
	}
}

func TestMirrorReceivesRelayedMessage(t *testing.T) {
	h := newTestHarness(t, nil)
	h.relay.mirror = "telegram"

	h.relay.handle(context.Background(), bus.InboundEvent{
		Kind:    bus.EventMessage,
		Channel: "discord",
		Message: relay.Message{ID: "m1", ChannelID: "100", Content: "hello"},
	})

	got := h.outbound()
	if len(got) != 2 {
		t.Fatalf("got %d outbound sends, want 2", len(got))
	}
	channels := map[string]bool{}
	for _, msg := range got {
		channels[msg.Channel] = true
	}
	if !channels["discord"] || !channels["telegram"] {
		t.Errorf("outbound adapters = %v, want discord and telegram", channels)
	}
}

type failingCache struct {
	*cache.MemoryCache
}

func (f *failingCache) Get(ctx context.Context, id string) ([]relay.EmbedBlock, bool, error) {
	return nil, false, context.DeadlineExceeded
}

func TestCacheErrorRespondsFailed(t *testing.T) {
	h := newTestHarness(t, map[string]string{"hello": "안녕"})
	h.relay.cache = &failingCache{h.cache}

	h.relay.handle(context.Background(), bus.InboundEvent{
		Kind:             bus.EventTranslate,
		Channel:          "discord",
		MessageID:        "m1",
		InteractionID:    "i1",
		InteractionToken: "tok1",
		Blocks:           []relay.EmbedBlock{{Description: "hello"}},
	})

	got := h.outbound()
	if len(got) != 1 {
		t.Fatalf("got %d outbound sends, want 1", len(got))
	}
	if got[0].Content != testMessages.Failed {
		t.Errorf("content = %q, want failed message", got[0].Content)
	}
	if !got[0].Ephemeral {
		t.Error("failure response is not ephemeral")
	}
}
