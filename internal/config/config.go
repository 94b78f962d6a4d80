package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv      = "CASE_MONITOR_CONFIG"
	databaseDSNEnv     = "DATABASE_DSN"
	llmAPIKeyEnv       = "LLM_API_KEY"
	llmBaseURLEnv      = "LLM_BASE_URL"
	llmModelEnv        = "LLM_MODEL"
	teamsWebhookEnv    = "TEAMS_WEBHOOK_URL"
	teamsRejectHookEnv = "TEAMS_REJECT_WEBHOOK_URL"
	teamsEnabledEnv    = "TEAMS_ENABLED"
	caseBaseURLEnv     = "CASE_BASE_URL"
	loginUsernameEnv   = "LOGIN_USERNAME"
	loginPasswordEnv   = "LOGIN_PASSWORD"
	logEnabledEnv      = "LOG_ENABLED"
	headlessEnv        = "HEADLESS"
)

// Config holds every setting required across the application. It is built
// once in main and passed by reference; no component reads the environment
// after Load returns.
type Config struct {
	Database      DatabaseConfig     `yaml:"database"`
	Monitor       MonitorConfig      `yaml:"monitor"`
	Extract       ExtractConfig      `yaml:"extract"`
	Clean         CleanConfig        `yaml:"clean"`
	LLM           LLMConfig          `yaml:"llm"`
	Notifications NotificationConfig `yaml:"notifications"`
	Fetch         FetchConfig        `yaml:"fetch"`
	Logging       LoggingConfig      `yaml:"logging"`
}

// DatabaseConfig describes the optional processed-case store.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// MonitorConfig defines the polling watcher over the trigger directory.
type MonitorConfig struct {
	Dir             string        `yaml:"dir"`
	PollInterval    time.Duration `yaml:"pollInterval"`
	CaseIDDigits    int           `yaml:"caseIdDigits"`
	ProcessExisting bool          `yaml:"processExisting"`
}

// ExtractConfig drives record segmentation and header classification.
// Keyword lists are comma-separated and matched case-insensitively.
type ExtractConfig struct {
	SeparatorPattern  string `yaml:"separatorPattern"`
	QuestionKeywords  string `yaml:"questionKeywords"`
	AnswerKeywords    string `yaml:"answerKeywords"`
	HeaderDatePattern string `yaml:"headerDatePattern"`
}

// QuestionKeywordList splits the configured question keywords.
func (e ExtractConfig) QuestionKeywordList() []string {
	return splitKeywords(e.QuestionKeywords)
}

// AnswerKeywordList splits the configured answer keywords.
func (e ExtractConfig) AnswerKeywordList() []string {
	return splitKeywords(e.AnswerKeywords)
}

// CleanConfig controls the noise-removal passes and the size budget.
type CleanConfig struct {
	MaxChars         int  `yaml:"maxChars"`
	LogFilterEnabled bool `yaml:"logFilterEnabled"`
	MaxLineLength    int  `yaml:"maxLineLength"`
}

// LLMConfig defines how to contact the judgement oracle.
type LLMConfig struct {
	BaseURL      string        `yaml:"baseUrl"`
	APIKey       string        `yaml:"apiKey"`
	Model        string        `yaml:"model"`
	Prompt       string        `yaml:"prompt"`
	Temperature  float32       `yaml:"temperature"`
	Timeout      time.Duration `yaml:"timeout"`
	CertFile     string        `yaml:"certFile"`
	KeyFile      string        `yaml:"keyFile"`
	AllowPartial bool          `yaml:"allowPartial"`
}

// NotificationConfig wires the Teams webhook targets.
type NotificationConfig struct {
	Enabled        bool   `yaml:"enabled"`
	DefaultWebhook string `yaml:"defaultWebhook"`
	RejectWebhook  string `yaml:"rejectWebhook"`
	CaseBaseURL    string `yaml:"caseBaseUrl"`
}

// FetchConfig describes how the browser fetcher renders a case page.
type FetchConfig struct {
	Headless    bool          `yaml:"headless"`
	SettleWait  time.Duration `yaml:"settleWait"`
	Timeout     time.Duration `yaml:"timeout"`
	UserDataDir string        `yaml:"userDataDir"`
	Login       LoginConfig   `yaml:"login"`
}

// LoginConfig holds the form-login parameters used when the case page
// redirects to an authentication screen.
type LoginConfig struct {
	URL              string `yaml:"url"`
	Username         string `yaml:"username"`
	Password         string `yaml:"password"`
	UsernameSelector string `yaml:"usernameSelector"`
	PasswordSelector string `yaml:"passwordSelector"`
	SubmitSelector   string `yaml:"submitSelector"`
}

// LoggingConfig selects log level and allows disabling output entirely.
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
}

// Load reads YAML configuration (if present) and applies environment
// overrides for secrets and endpoints.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			// Decoding into a copy of the defaults means keys present in
			// the file override them, keys absent keep them, and enable
			// flags can be set to false explicitly.
			fileCfg := cfg
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = fileCfg
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(llmAPIKeyEnv); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv(llmBaseURLEnv); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv(llmModelEnv); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv(teamsWebhookEnv); v != "" {
		c.Notifications.DefaultWebhook = v
	}
	if v := os.Getenv(teamsRejectHookEnv); v != "" {
		c.Notifications.RejectWebhook = v
	}
	if v := os.Getenv(teamsEnabledEnv); v != "" {
		c.Notifications.Enabled = parseBool(v)
	}
	if v := os.Getenv(caseBaseURLEnv); v != "" {
		c.Notifications.CaseBaseURL = v
	}
	if v := os.Getenv(loginUsernameEnv); v != "" {
		c.Fetch.Login.Username = v
	}
	if v := os.Getenv(loginPasswordEnv); v != "" {
		c.Fetch.Login.Password = v
	}
	if v := os.Getenv("LLM_ALLOW_PARTIAL"); v != "" {
		c.LLM.AllowPartial = parseBool(v)
	}
	if v := os.Getenv("LOG_FILTER_ENABLED"); v != "" {
		c.Clean.LogFilterEnabled = parseBool(v)
	}
	if v := os.Getenv("MAX_CHARS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Clean.MaxChars = n
		}
	}
	if v := os.Getenv(logEnabledEnv); v != "" {
		c.Logging.Enabled = parseBool(v)
	}
	if v := os.Getenv(headlessEnv); v != "" {
		c.Fetch.Headless = parseBool(v)
	}
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

func splitKeywords(value string) []string {
	parts := strings.Split(value, ",")
	keywords := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			keywords = append(keywords, trimmed)
		}
	}
	return keywords
}

func defaultConfig() Config {
	return Config{
		Monitor: MonitorConfig{
			Dir:          "./monitor",
			PollInterval: 2 * time.Second,
			CaseIDDigits: 8,
		},
		Extract: ExtractConfig{
			SeparatorPattern:  `^ー+$`,
			QuestionKeywords:  "QUESTION",
			AnswerKeywords:    "ANSWER",
			HeaderDatePattern: `\d{4}/\d{2}/\d{2}\s+\d{2}:\d{2}`,
		},
		Clean: CleanConfig{
			MaxChars:         6000,
			LogFilterEnabled: true,
			MaxLineLength:    200,
		},
		LLM: LLMConfig{
			BaseURL:     "http://localhost:11434/v1",
			Model:       "llama3.2:1b",
			Temperature: 0.2,
			Timeout:     60 * time.Second,
		},
		Notifications: NotificationConfig{
			Enabled:     true,
			CaseBaseURL: "http://localhost:8080/",
		},
		Fetch: FetchConfig{
			Timeout: 30 * time.Second,
			Login: LoginConfig{
				URL:              "http://localhost:8080/login",
				UsernameSelector: `input[name='username']`,
				PasswordSelector: `input[name='password']`,
				SubmitSelector:   `button[type='submit'], input[type='submit']`,
			},
		},
		Logging: LoggingConfig{Enabled: true, Level: "info"},
	}
}
