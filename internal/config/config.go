package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath            string
	RawMailDir        string
	OutputDir         string
	UploadDir         string
	RecordingDir      string
	ComplaintsCSVPath string
	LogLevel          string

	HTTPAddr      string
	SessionCookie string
	AdminUsername string
	AdminPassword string

	ClassifierModelPath string

	OCRAPIBaseURL   string
	OCRAPIToken     string
	OCRLanguages    string
	OCRRateLimitRPS int
	OCRTimeoutMs    int

	OpenAIAPIKey  string
	OpenAIBaseURL string
	STTModel      string
	STTLanguage   string

	NormalizeInput  string
	NormalizeOutput string

	GmailClientID     string
	GmailClientSecret string
	GmailRedirectURI  string
	GmailRefreshToken string

	IMAPHost     string
	IMAPPort     int
	IMAPSecure   bool
	IMAPUser     string
	IMAPPassword string
	IMAPMarkSeen bool

	MailListenerProvider     string
	MailListenerLabel        string
	MailListenerIntervalSec  int
	MailListenerFetchMax     int
	MailListenerProcessBatch int
	MailListenerAutoExport   bool
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:            getEnv("DB_PATH", filepath.Join(cwd, "data", "grievance.db")),
		RawMailDir:        getEnv("MAIL_RAW_DIR", filepath.Join(cwd, "data", "raw")),
		OutputDir:         getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),
		UploadDir:         getEnv("UPLOAD_DIR", filepath.Join(cwd, "static", "uploads")),
		RecordingDir:      getEnv("RECORDING_DIR", filepath.Join(cwd, "static", "recordings")),
		ComplaintsCSVPath: getEnv("COMPLAINTS_CSV_PATH", filepath.Join(cwd, "data", "complaints.csv")),
		LogLevel:          getEnv("LOG_LEVEL", "info"),

		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		SessionCookie: getEnv("SESSION_COOKIE", "grievance_session"),
		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),

		ClassifierModelPath: getEnv("CLASSIFIER_MODEL_PATH", ""),

		OCRAPIBaseURL:   getEnv("OCR_API_BASE_URL", ""),
		OCRAPIToken:     getEnv("OCR_API_TOKEN", ""),
		OCRLanguages:    getEnv("OCR_LANGUAGES", "en,mr"),
		OCRRateLimitRPS: getEnvInt("OCR_RATE_LIMIT_RPS", 5),
		OCRTimeoutMs:    getEnvInt("OCR_TIMEOUT_MS", 30000),

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
		STTModel:      getEnv("STT_MODEL", "whisper-1"),
		STTLanguage:   getEnv("STT_LANGUAGE", ""),

		NormalizeInput:  getEnv("NORMALIZE_INPUT", "dataset_eng_marathi.csv"),
		NormalizeOutput: getEnv("NORMALIZE_OUTPUT", "processed_complaints_bilingual.csv"),

		GmailClientID:     getEnv("GMAIL_CLIENT_ID", ""),
		GmailClientSecret: getEnv("GMAIL_CLIENT_SECRET", ""),
		GmailRedirectURI:  getEnv("GMAIL_REDIRECT_URI", "https://developers.google.com/oauthplayground"),
		GmailRefreshToken: getEnv("GMAIL_REFRESH_TOKEN", ""),

		IMAPHost:     getEnv("IMAP_HOST", ""),
		IMAPPort:     getEnvInt("IMAP_PORT", 993),
		IMAPSecure:   getEnvBool("IMAP_SECURE", true),
		IMAPUser:     getEnv("IMAP_USER", ""),
		IMAPPassword: getEnv("IMAP_PASSWORD", ""),
		IMAPMarkSeen: getEnvBool("IMAP_MARK_SEEN", false),

		MailListenerProvider:     getEnv("MAIL_LISTENER_PROVIDER", "imap"),
		MailListenerLabel:        getEnv("MAIL_LISTENER_LABEL", "INBOX"),
		MailListenerIntervalSec:  getEnvInt("MAIL_LISTENER_INTERVAL_SEC", 60),
		MailListenerFetchMax:     getEnvInt("MAIL_LISTENER_FETCH_MAX", 20),
		MailListenerProcessBatch: getEnvInt("MAIL_LISTENER_PROCESS_BATCH", 20),
		MailListenerAutoExport:   getEnvBool("MAIL_LISTENER_AUTO_EXPORT", false),
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

// Languages splits OCRLanguages into trimmed, non-empty codes.
func (c Config) Languages() []string {
	var out []string
	for _, part := range strings.Split(c.OCRLanguages, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
