package config

// Config is the top-level configuration
type Config struct {
	Routes     map[string]Route `json:"routes"`
	Messages   Messages         `json:"messages"`
	Translator TranslatorConfig `json:"translator"`
	Cache      CacheConfig      `json:"cache"`
	Channels   ChannelsConfig   `json:"channels"`
}

// Route maps a set of input channels to one output channel. Role is an
// optional role to mention when delivering the relay copy.
type Route struct {
	Input  []string `json:"input"`
	Output string   `json:"output"`
	Role   string   `json:"role"`
}

// Messages holds the static UI strings stamped onto relayed content.
type Messages struct {
	ButtonLabel      string `json:"buttonLabel"`
	OriginalFooter   string `json:"originalFooter"`
	TranslatedFooter string `json:"translatedFooter"`
	Done             string `json:"done"`
	Failed           string `json:"failed"`
}

type TranslatorConfig struct {
	Backend    string `json:"backend"`    // "deepl" or "openai"
	TargetLang string `json:"targetLang"` // e.g. "KO"
	APIKey     string `json:"-"`          // resolved from env
}

type CacheConfig struct {
	Path string `json:"path"` // sqlite file path
}

type ChannelsConfig struct {
	Discord        DiscordConfig        `json:"discord"`
	TelegramMirror TelegramMirrorConfig `json:"telegramMirror"`
}

type DiscordConfig struct {
	Token string `json:"-"` // resolved from BOT_TOKEN
}

// TelegramMirrorConfig enables the optional plain-text mirror when ChatID
// is non-zero.
type TelegramMirrorConfig struct {
	Token  string `json:"-"` // resolved from TELEGRAM_TOKEN
	ChatID int64  `json:"chatId"`
}

// DefaultConfig returns a Config with sensible defaults applied.
func DefaultConfig() *Config {
	return &Config{
		Messages: Messages{
			ButtonLabel:      "번역하기",
			OriginalFooter:   "원본 메시지",
			TranslatedFooter: "DeepL Translator로 번역됨",
			Done:             "번역이 완료되었습니다.",
			Failed:           "번역 요청을 처리하지 못했습니다.",
		},
		Translator: TranslatorConfig{
			Backend:    "deepl",
			TargetLang: "KO",
		},
		Cache: CacheConfig{
			Path: "relaybot.db",
		},
	}
}
