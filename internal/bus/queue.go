package bus

import (
	"context"
	"sync"
)

// MessageBus is a hub-and-spoke event bus using Go channels. Channel
// adapters publish inbound events, the relay loop consumes them, and
// outbound messages are dispatched back to subscribed adapters.
type MessageBus struct {
	inbound  chan InboundEvent
	outbound chan OutboundMessage
	subs     map[string][]func(OutboundMessage) // adapter name -> subscribers
	mu       sync.RWMutex
}

// NewMessageBus creates a new MessageBus with the given buffer size.
// If bufSize is 0, defaults to 100.
func NewMessageBus(bufSize int) *MessageBus {
	if bufSize <= 0 {
		bufSize = 100
	}
	return &MessageBus{
		inbound:  make(chan InboundEvent, bufSize),
		outbound: make(chan OutboundMessage, bufSize),
		subs:     make(map[string][]func(OutboundMessage)),
	}
}

// PublishInbound sends an inbound event onto the bus.
func (b *MessageBus) PublishInbound(evt InboundEvent) {
	b.inbound <- evt
}

// PublishOutbound sends an outbound message onto the bus.
func (b *MessageBus) PublishOutbound(msg OutboundMessage) {
	b.outbound <- msg
}

// ConsumeInbound blocks until an inbound event is available or ctx is cancelled.
func (b *MessageBus) ConsumeInbound(ctx context.Context) (InboundEvent, error) {
	select {
	case evt, ok := <-b.inbound:
		if !ok {
			return InboundEvent{}, context.Canceled
		}
		return evt, nil
	case <-ctx.Done():
		return InboundEvent{}, ctx.Err()
	}
}

// Subscribe registers fn to receive outbound messages for the given
// adapter. An empty adapter name subscribes to ALL adapters.
func (b *MessageBus) Subscribe(channel string, fn func(OutboundMessage)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[channel] = append(b.subs[channel], fn)
}

// DispatchOutbound runs in a goroutine, reading outbound messages and
// delivering them to matching subscribers. Returns when ctx is cancelled
// or the outbound channel is closed.
func (b *MessageBus) DispatchOutbound(ctx context.Context) {
	for {
		select {
		case msg, ok := <-b.outbound:
			if !ok {
				return
			}
			b.dispatch(msg)
		case <-ctx.Done():
			return
		}
	}
}

func (b *MessageBus) dispatch(msg OutboundMessage) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, fn := range b.subs[msg.Channel] {
		fn(msg)
	}
	// wildcard subscribers (empty string = all adapters)
	for _, fn := range b.subs[""] {
		fn(msg)
	}
}

// Close closes both the inbound and outbound channels.
func (b *MessageBus) Close() {
	close(b.inbound)
	close(b.outbound)
}
