package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Config holds every setting the handler set and its adapters need.
type Config struct {
	ServiceName string   `yaml:"service_name"`
	Port        string   `yaml:"port"`
	CORSOrigins []string `yaml:"cors_allowed_origins"`

	DSN string `yaml:"dsn"`

	Storage    Storage    `yaml:"storage"`
	Moderation Moderation `yaml:"moderation"`
	Telegram   Telegram   `yaml:"telegram"`
	Tracing    Tracing    `yaml:"tracing"`

	PublicVideosLimit int   `yaml:"public_videos_limit"`
	MaxUploadBytes    int64 `yaml:"max_upload_bytes"`
}

// Storage S3-compatible object store config.
type Storage struct {
	Endpoint        string        `yaml:"endpoint"`
	Region          string        `yaml:"region"`
	AccessKeyID     string        `yaml:"access_key_id"`
	SecretAccessKey string        `yaml:"secret_access_key"`
	Bucket          string        `yaml:"bucket"`
	PublicURL       string        `yaml:"public_url"`
	SignedURLTTL    time.Duration `yaml:"signed_url_ttl"`
}

// Moderation vendor and text moderation config.
type Moderation struct {
	Enabled     bool   `yaml:"enabled"`
	APIUser     string `yaml:"api_user"`
	APISecret   string `yaml:"api_secret"`
	Endpoint    string `yaml:"endpoint"`
	TextEnabled bool   `yaml:"text_enabled"`
	Credentials string `yaml:"credentials_file"`
}

// Telegram bot config. An empty token disables channel checks.
type Telegram struct {
	BotToken string `yaml:"bot_token"`
}

// Tracing config.
type Tracing struct {
	Enabled   bool   `yaml:"enabled"`
	ProjectID string `yaml:"project_id"`
	LocalOnly bool   `yaml:"local_only"`
}

const (
	defaultPort           = "8080"
	defaultRegion         = "us-east-1"
	defaultBucket         = "videos"
	defaultSignedURLTTL   = 60 * time.Second
	defaultMaxUploadBytes = 100 << 20
	defaultSightengineURL = "https://api.sightengine.com/1.0/video/check-sync.json"
)

// Load reads an optional .env file, an optional YAML file at path, and then
// the process environment. Environment values win over the YAML file.
func Load(path string) (*Config, error) {
	// If environment file exists, load it
	// this is for local development
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, errors.Wrap(err, "load .env")
		}
	}

	c := &Config{}
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
		if err := yaml.Unmarshal(content, c); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", path)
		}
	}

	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyEnv() error {
	// An empty variable keeps the YAML value.
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	str("SERVICE_NAME", &c.ServiceName)
	str("PORT", &c.Port)
	str("DSN", &c.DSN)
	str("STORAGE_ENDPOINT", &c.Storage.Endpoint)
	str("STORAGE_REGION", &c.Storage.Region)
	str("STORAGE_ACCESS_KEY_ID", &c.Storage.AccessKeyID)
	str("STORAGE_SECRET_ACCESS_KEY", &c.Storage.SecretAccessKey)
	str("STORAGE_BUCKET", &c.Storage.Bucket)
	str("STORAGE_PUBLIC_URL", &c.Storage.PublicURL)
	str("SIGHTENGINE_API_USER", &c.Moderation.APIUser)
	str("SIGHTENGINE_API_SECRET", &c.Moderation.APISecret)
	str("SIGHTENGINE_ENDPOINT", &c.Moderation.Endpoint)
	str("GOOGLE_APPLICATION_CREDENTIALS", &c.Moderation.Credentials)
	str("TELEGRAM_BOT_TOKEN", &c.Telegram.BotToken)
	str("GOOGLE_CLOUD_PROJECT", &c.Tracing.ProjectID)

	if origins := splitList(os.Getenv("CORS_ALLOWED_ORIGINS")); len(origins) > 0 {
		c.CORSOrigins = origins
	}

	bools := map[string]*bool{
		"MODERATION_ENABLED":      &c.Moderation.Enabled,
		"TEXT_MODERATION_ENABLED": &c.Moderation.TextEnabled,
		"TRACING_ENABLED":         &c.Tracing.Enabled,
		"LOCAL_ONLY":              &c.Tracing.LocalOnly,
	}
	for key, dst := range bools {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(err, "%s", key)
		}
		*dst = b
	}

	if v := os.Getenv("SIGNED_URL_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrap(err, "SIGNED_URL_TTL")
		}
		c.Storage.SignedURLTTL = d
	}
	if v := os.Getenv("PUBLIC_VIDEOS_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(err, "PUBLIC_VIDEOS_LIMIT")
		}
		c.PublicVideosLimit = n
	}
	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.Wrap(err, "MAX_UPLOAD_BYTES")
		}
		c.MaxUploadBytes = n
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "local"
	}
	if c.Port == "" {
		c.Port = defaultPort
	}
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = []string{"*"}
	}
	if c.Storage.Region == "" {
		c.Storage.Region = defaultRegion
	}
	if c.Storage.Bucket == "" {
		c.Storage.Bucket = defaultBucket
	}
	if c.Storage.SignedURLTTL == 0 {
		c.Storage.SignedURLTTL = defaultSignedURLTTL
	}
	if c.Moderation.Endpoint == "" {
		c.Moderation.Endpoint = defaultSightengineURL
	}
	if c.MaxUploadBytes == 0 {
		c.MaxUploadBytes = defaultMaxUploadBytes
	}
	c.Storage.PublicURL = strings.TrimRight(c.Storage.PublicURL, "/")
}

// Validate reports the first missing or inconsistent setting.
func (c *Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"DSN", c.DSN},
		{"STORAGE_ACCESS_KEY_ID", c.Storage.AccessKeyID},
		{"STORAGE_SECRET_ACCESS_KEY", c.Storage.SecretAccessKey},
		{"STORAGE_PUBLIC_URL", c.Storage.PublicURL},
	}
	for _, r := range required {
		if r.value == "" {
			return errors.Errorf("%s is not set", r.name)
		}
	}
	if c.Moderation.Enabled && (c.Moderation.APIUser == "" || c.Moderation.APISecret == "") {
		return errors.New("MODERATION_ENABLED requires SIGHTENGINE_API_USER and SIGHTENGINE_API_SECRET")
	}
	if c.Tracing.Enabled && c.Tracing.ProjectID == "" {
		return errors.New("TRACING_ENABLED requires GOOGLE_CLOUD_PROJECT")
	}
	if c.PublicVideosLimit < 0 {
		return errors.New("PUBLIC_VIDEOS_LIMIT must not be negative")
	}
	if c.MaxUploadBytes < 0 {
		return errors.New("MAX_UPLOAD_BYTES must not be negative")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
