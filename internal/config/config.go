package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	Port    int    `yaml:"port"`
	GinMode string `yaml:"gin_mode"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type TokenConfig struct {
	Secret     string   `yaml:"secret"`
	Issuer     string   `yaml:"issuer"`
	SessionTTL string   `yaml:"session_ttl"`
	// Issuer hosts accepted on the federated path.
	TrustedIssuers []string `yaml:"trusted_issuers"`
	GoogleAudience string   `yaml:"google_audience"`
}

type CodeConfig struct {
	Length int    `yaml:"length"`
	TTL    string `yaml:"ttl"`
	// A new code may be issued once the active one has no more than
	// `grace` left. Resend wait = remaining - grace.
	Grace string `yaml:"grace"`
}

type LockoutConfig struct {
	Threshold int    `yaml:"threshold"`
	Duration  string `yaml:"duration"`
}

type ModerationConfig struct {
	AcceptRatingBonus int    `yaml:"accept_rating_bonus"`
	GatewayTimeout    string `yaml:"gateway_timeout"`
}

type MailConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
	From string `yaml:"from"`
}

type TwilioConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	FromNumber string `yaml:"from_number"`
}

type SocialConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
	Channel  string `yaml:"channel"`
}

type CasbinConfig struct {
	ModelPath string `yaml:"model_path"`
}

type ConfigFile struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Token      TokenConfig      `yaml:"token"`
	Code       CodeConfig       `yaml:"code"`
	Lockout    LockoutConfig    `yaml:"lockout"`
	Moderation ModerationConfig `yaml:"moderation"`
	Mail       MailConfig       `yaml:"mail"`
	Twilio     TwilioConfig     `yaml:"twilio"`
	Social     SocialConfig     `yaml:"social"`
	Casbin     CasbinConfig     `yaml:"casbin"`
}

// Config is the resolved runtime configuration with durations parsed and
// env overrides applied.
type Config struct {
	Port    string
	GinMode string

	DSN           string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	TokenSecret    string
	TokenIssuer    string
	SessionTTL     time.Duration
	TrustedIssuers []string
	GoogleAudience string

	CodeLength int
	CodeTTL    time.Duration
	CodeGrace  time.Duration

	LockoutThreshold int
	LockoutDuration  time.Duration

	AcceptRatingBonus int
	GatewayTimeout    time.Duration

	MailHost string
	MailPort int
	MailUser string
	MailPass string
	MailFrom string

	TwilioSID   string
	TwilioToken string
	TwilioFrom  string

	SocialEndpoint string
	SocialAPIKey   string
	SocialChannel  string

	CasbinModelPath string
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// Load reads config/config.yml and resolves the runtime configuration.
// Secrets may be overridden from the environment.
func Load() (*Config, error) {
	return LoadFrom(env("CONFIG_PATH", "config/config.yml"))
}

func LoadFrom(path string) (*Config, error) {
	file, err := loadConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	sessionTTL, err := parseDuration("token session TTL", file.Token.SessionTTL, 7*24*time.Hour)
	if err != nil {
		return nil, err
	}
	codeTTL, err := parseDuration("code TTL", file.Code.TTL, 15*time.Minute)
	if err != nil {
		return nil, err
	}
	codeGrace, err := parseDuration("code grace", file.Code.Grace, 14*time.Minute)
	if err != nil {
		return nil, err
	}
	lockDur, err := parseDuration("lockout duration", file.Lockout.Duration, 30*time.Minute)
	if err != nil {
		return nil, err
	}
	gwTimeout, err := parseDuration("gateway timeout", file.Moderation.GatewayTimeout, 10*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:    strconv.Itoa(file.App.Port),
		GinMode: file.App.GinMode,

		DSN:           env("DATABASE_DSN", file.Database.DSN),
		RedisAddr:     env("REDIS_ADDR", file.Redis.Addr),
		RedisPassword: env("REDIS_PASSWORD", file.Redis.Password),
		RedisDB:       file.Redis.DB,

		TokenSecret:    env("TOKEN_SECRET", file.Token.Secret),
		TokenIssuer:    file.Token.Issuer,
		SessionTTL:     sessionTTL,
		TrustedIssuers: file.Token.TrustedIssuers,
		GoogleAudience: env("GOOGLE_AUDIENCE", file.Token.GoogleAudience),

		CodeLength: file.Code.Length,
		CodeTTL:    codeTTL,
		CodeGrace:  codeGrace,

		LockoutThreshold: file.Lockout.Threshold,
		LockoutDuration:  lockDur,

		AcceptRatingBonus: file.Moderation.AcceptRatingBonus,
		GatewayTimeout:    gwTimeout,

		MailHost: env("MAIL_HOST", file.Mail.Host),
		MailPort: envInt("MAIL_PORT", file.Mail.Port),
		MailUser: env("MAIL_USER", file.Mail.User),
		MailPass: env("MAIL_PASS", file.Mail.Pass),
		MailFrom: env("MAIL_FROM", file.Mail.From),

		TwilioSID:   env("TWILIO_ACCOUNT_SID", file.Twilio.AccountSID),
		TwilioToken: env("TWILIO_AUTH_TOKEN", file.Twilio.AuthToken),
		TwilioFrom:  env("TWILIO_FROM_NUMBER", file.Twilio.FromNumber),

		SocialEndpoint: env("SOCIAL_ENDPOINT", file.Social.Endpoint),
		SocialAPIKey:   env("SOCIAL_API_KEY", file.Social.APIKey),
		SocialChannel:  file.Social.Channel,

		CasbinModelPath: file.Casbin.ModelPath,
	}

	if cfg.Port == "0" {
		cfg.Port = env("PORT", "8080")
	}
	if cfg.CodeLength == 0 {
		cfg.CodeLength = 6
	}
	if cfg.LockoutThreshold == 0 {
		cfg.LockoutThreshold = 5
	}
	if cfg.AcceptRatingBonus == 0 {
		cfg.AcceptRatingBonus = 10
	}
	if len(cfg.TrustedIssuers) == 0 {
		cfg.TrustedIssuers = []string{"accounts.google.com", "https://accounts.google.com"}
	}
	if cfg.TokenSecret == "" {
		return nil, fmt.Errorf("token secret is required")
	}
	if cfg.CodeGrace >= cfg.CodeTTL {
		return nil, fmt.Errorf("code grace must be shorter than code TTL")
	}

	return cfg, nil
}

func loadConfigFile(path string) (*ConfigFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file ConfigFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &file, nil
}

func parseDuration(name, raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return d, nil
}
