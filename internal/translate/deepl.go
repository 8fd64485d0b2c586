package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

func init() {
	Register("deepl", newDeepLTranslator)
}

const (
	deeplAPIBase     = "https://api.deepl.com"
	deeplFreeAPIBase = "https://api-free.deepl.com"
)

// DeepLTranslator calls the DeepL REST API v2. Calls go through a circuit
// breaker so a dead API fails fast instead of stalling every fragment.
type DeepLTranslator struct {
	authKey    string
	targetLang string
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

func newDeepLTranslator(opts Options) (Translator, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("deepl: missing auth key")
	}
	base := deeplAPIBase
	// Free-tier keys end in ":fx" and use a separate host.
	if strings.HasSuffix(opts.APIKey, ":fx") {
		base = deeplFreeAPIBase
	}
	return &DeepLTranslator{
		authKey:    opts.APIKey,
		targetLang: opts.TargetLang,
		baseURL:    base,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name: "deepl",
			OnStateChange: func(name string, from, to gobreaker.State) {
				slog.Warn("translator breaker state change", "name", name, "from", from.String(), "to", to.String())
			},
		}),
	}, nil
}

type deeplResponse struct {
	Translations []struct {
		DetectedSourceLanguage string `json:"detected_source_language"`
		Text                   string `json:"text"`
	} `json:"translations"`
}

func (t *DeepLTranslator) Translate(ctx context.Context, text string) (Result, error) {
	out, err := t.breaker.Execute(func() (interface{}, error) {
		return t.translateOnce(ctx, text)
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return out.(Result), nil
}

func (t *DeepLTranslator) translateOnce(ctx context.Context, text string) (Result, error) {
	form := url.Values{}
	form.Set("text", text)
	form.Set("target_lang", t.targetLang)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/v2/translate", strings.NewReader(form.Encode()))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Authorization", "DeepL-Auth-Key "+t.authKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Result{}, fmt.Errorf("deepl: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed deeplResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Result{}, fmt.Errorf("deepl: decode response: %w", err)
	}
	if len(parsed.Translations) == 0 {
		return Result{}, fmt.Errorf("deepl: empty response")
	}
	return Result{
		Text:               parsed.Translations[0].Text,
		DetectedSourceLang: parsed.Translations[0].DetectedSourceLanguage,
	}, nil
}
