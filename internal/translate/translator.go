package translate

import (
	"context"
	"errors"
	"fmt"
)

// Result is the outcome of a single translation call.
type Result struct {
	Text               string
	DetectedSourceLang string // empty if the backend does not report it
}

// ErrUnavailable wraps any backend failure. Callers are expected to
// substitute the original text instead of propagating it.
var ErrUnavailable = errors.New("translation unavailable")

// Translator converts text into the configured target language.
type Translator interface {
	Translate(ctx context.Context, text string) (Result, error)
}

// Options holds the settings common to all translator backends.
type Options struct {
	APIKey     string
	TargetLang string
}

// Factory creates a Translator from backend options.
type Factory func(opts Options) (Translator, error)

var registry = map[string]Factory{}

// Register adds a translator factory to the registry.
func Register(name string, factory Factory) {
	registry[name] = factory
}

// New creates a translator by backend name.
func New(name string, opts Options) (Translator, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown translator backend %q", name)
	}
	return factory(opts)
}

// RegisteredNames returns all registered backend names.
func RegisteredNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}
