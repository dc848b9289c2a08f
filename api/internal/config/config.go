package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port   string
	AppEnv string

	UploadDir    string
	KeepUploads  bool
	MaxUploadMB  int64
	CORSOrigins  []string
	FetchTimeout time.Duration

	OCREngine      string
	OCRLanguages   []string
	TessdataPrefix string
	OCRCacheTTL    time.Duration
	YCOAuthToken   string
	YCFolderID     string

	DetectURL   string
	DetectModel string

	GeminiAPIKey string
	GeminiModel  string
	OpenAIAPIKey string
	OpenAIModel  string
	TutorEngine  string

	// OpenAIVisionModel is used by the gpt OCR engine; chat models may not accept images.
	OpenAIVisionModel string

	DatabaseURL string

	TelegramBotToken string
	WebhookURL       string

	// Warnings lists values Load ignored. Load runs before the logger exists,
	// so callers log them once it is built.
	Warnings []string
}

var ErrNoTelegramToken = errors.New("missing required env TELEGRAM_BOT_TOKEN")

type loader struct {
	warnings []string
}

func (l *loader) warnf(format string, args ...any) {
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func (l *loader) getBool(k string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		l.warnf("config: bad bool %s=%q, using %v", k, v, def)
		return def
	}
	return b
}

func (l *loader) getInt(k string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		l.warnf("config: bad int %s=%q, using %d", k, v, def)
		return def
	}
	return n
}

func (l *loader) getDuration(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		l.warnf("config: bad duration %s=%q, using %s", k, v, def)
		return def
	}
	return d
}

func getList(k, def string) []string {
	raw := getEnv(k, def)
	var out []string
	for _, p := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == '+' }) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load reads .env (if present) and then the process environment.
func Load() *Config {
	l := &loader{}
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		l.warnf("config: .env not loaded: %v", err)
	}

	cfg := &Config{
		Port:   getEnv("PORT", "5000"),
		AppEnv: getEnv("APP_ENV", "development"),

		UploadDir:    getEnv("UPLOAD_DIR", "uploads"),
		KeepUploads:  l.getBool("KEEP_UPLOADS", true),
		MaxUploadMB:  l.getInt("MAX_UPLOAD_MB", 32),
		CORSOrigins:  getList("CORS_ORIGINS", "*"),
		FetchTimeout: l.getDuration("FETCH_TIMEOUT", 30*time.Second),

		OCREngine:      strings.ToLower(getEnv("OCR_ENGINE", "tesseract")),
		OCRLanguages:   getList("OCR_LANGUAGES", "eng"),
		TessdataPrefix: getEnv("TESSDATA_PREFIX", ""),
		OCRCacheTTL:    l.getDuration("OCR_CACHE_TTL", 0),
		YCOAuthToken:   getEnv("YC_OAUTH_TOKEN", ""),
		YCFolderID:     getEnv("YC_FOLDER_ID", ""),

		DetectURL:   strings.TrimRight(getEnv("DETECT_URL", "http://localhost:8001"), "/"),
		DetectModel: getEnv("DETECT_MODEL", "yolov8n.pt"),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
		TutorEngine:  strings.ToLower(getEnv("TUTOR_ENGINE", "gpt")),

		OpenAIVisionModel: getEnv("OPENAI_VISION_MODEL", "gpt-4o-mini"),

		DatabaseURL: resolveDSN(),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),
	}
	cfg.Warnings = l.warnings
	return cfg
}

// TelegramToken is used by the bot binary only.
func (c *Config) TelegramToken() (string, error) {
	if c.TelegramBotToken == "" {
		return "", ErrNoTelegramToken
	}
	return c.TelegramBotToken, nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production") || strings.EqualFold(c.AppEnv, "prod")
}

func (c *Config) MaxUploadBytes() int64 { return c.MaxUploadMB << 20 }

// resolveDSN prefers DATABASE_URL and falls back to POSTGRES_*/PG* vars.
// An empty result means persistence is disabled.
func resolveDSN() string {
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		return v
	}
	host := strings.TrimSpace(os.Getenv("PGHOST"))
	if host == "" {
		return ""
	}
	user := getEnv("POSTGRES_USER", "study")
	pass := os.Getenv("POSTGRES_PASSWORD")
	port := getEnv("PGPORT", "5432")
	db := getEnv("POSTGRES_DB", "study")

	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, pass),
		Host:     net.JoinHostPort(host, port),
		Path:     "/" + db,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}
