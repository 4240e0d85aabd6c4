package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/pion/stun/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	LogLevel   string        `mapstructure:"log_level"`
	Secret     string        `mapstructure:"secret"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	PongWait   time.Duration `mapstructure:"pong_wait"`
	WriteWait  time.Duration `mapstructure:"write_wait"`
	SendBuffer int           `mapstructure:"send_buffer"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// SlowPeerPolicy is "drop" or "kick".
	SlowPeerPolicy string `mapstructure:"slow_peer_policy"`
	// MaxInFlight caps concurrent provider calls; 0 means unlimited.
	MaxInFlight   int `mapstructure:"max_in_flight"`
	ContextWindow int `mapstructure:"context_window"`

	OpenAI     OpenAIConfig      `mapstructure:"openai"`
	AWS        AWSConfig         `mapstructure:"aws"`
	Voices     map[string]string `mapstructure:"voices"`
	ICEServers []ICEServer       `mapstructure:"ice_servers"`
}

type OpenAIConfig struct {
	APIKey             string        `mapstructure:"api_key"`
	BaseURL            string        `mapstructure:"base_url"`
	ChatModel          string        `mapstructure:"chat_model"`
	TranscriptionModel string        `mapstructure:"transcription_model"`
	MaxTokens          int64         `mapstructure:"max_tokens"`
	Temperature        float64       `mapstructure:"temperature"`
	Timeout            time.Duration `mapstructure:"timeout"`
}

type AWSConfig struct {
	Region          string        `mapstructure:"region"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	SessionToken    string        `mapstructure:"session_token"`
	Engine          string        `mapstructure:"engine"`
	LanguageCode    string        `mapstructure:"language_code"`
	OutputFormat    string        `mapstructure:"output_format"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

type ICEServer struct {
	URLs       []string `mapstructure:"urls"`
	Username   string   `mapstructure:"username"`
	Credential string   `mapstructure:"credential"`
}

// Loader owns the viper instance so the config file can be watched after
// the initial load.
type Loader struct {
	v    *viper.Viper
	file string
	used bool
}

// Load reads .env, the config file for CONFIG_ENV and the environment.
// A missing config file is not an error.
func Load() (*Config, error) {
	l := NewLoader("")
	return l.Load()
}

// NewLoader prepares a loader. An empty path selects
// config/config.<CONFIG_ENV>.yaml.
func NewLoader(path string) *Loader {
	if path == "" {
		env := os.Getenv("CONFIG_ENV")
		if env == "" {
			env = "dev"
		}
		path = fmt.Sprintf("config/config.%s.yaml", env)
	}
	return &Loader{v: viper.New(), file: path}
}

func (l *Loader) Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Str("module", "config").Msg("failed to read .env")
	}

	v := l.v
	v.SetConfigType("yaml")
	v.SetConfigFile(l.file)
	setDefaults(v)

	v.SetEnvPrefix("assist")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindProviderEnv(v)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", l.file).Msg("config file not found, using defaults")
	} else {
		l.used = true
		log.Info().Str("module", "config").Str("file", l.file).Msg("loaded config")
	}

	cfg, err := l.decode()
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("module", "config").
		Str("mode", cfg.Mode).
		Int("port", cfg.Port).
		Str("chat_model", cfg.OpenAI.ChatModel).
		Str("region", cfg.AWS.Region).
		Msg("config ready")
	return cfg, nil
}

// Watch calls fn with a freshly decoded config whenever the loaded config
// file changes. It does nothing when Load ran on defaults only.
func (l *Loader) Watch(fn func(*Config)) {
	if !l.used {
		return
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := l.decode()
		if err != nil {
			log.Error().Err(err).Str("module", "config").Str("file", e.Name).Msg("reload failed")
			return
		}
		log.Info().Str("module", "config").Str("file", e.Name).Str("op", e.Op.String()).Msg("config reloaded")
		fn(cfg)
	})
	l.v.WatchConfig()
}

func (l *Loader) decode() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 4000)
	v.SetDefault("static_path", "./web")
	v.SetDefault("log_level", "info")
	v.SetDefault("read_limit", 50<<20)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("pong_wait", "60s")
	v.SetDefault("write_wait", "10s")
	v.SetDefault("send_buffer", 64)
	v.SetDefault("shutdown_timeout", "15s")
	v.SetDefault("slow_peer_policy", "drop")
	v.SetDefault("max_in_flight", 0)
	v.SetDefault("context_window", 5)

	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.chat_model", "gpt-4o")
	v.SetDefault("openai.transcription_model", "whisper-1")
	v.SetDefault("openai.max_tokens", 1000)
	v.SetDefault("openai.temperature", 0.7)
	v.SetDefault("openai.timeout", "60s")

	v.SetDefault("aws.region", "us-east-1")
	v.SetDefault("aws.engine", "generative")
	v.SetDefault("aws.language_code", "en-US")
	v.SetDefault("aws.output_format", "mp3")
	v.SetDefault("aws.timeout", "30s")

	v.SetDefault("voices", map[string]string{
		"female": "Ruth",
		"male":   "Matthew",
	})
	v.SetDefault("ice_servers", []map[string]any{
		{"urls": []string{"stun:stun.l.google.com:19302"}},
	})
}

// bindProviderEnv maps the conventional unprefixed variables onto config keys.
func bindProviderEnv(v *viper.Viper) {
	_ = v.BindEnv("port", "ASSIST_PORT", "PORT")
	_ = v.BindEnv("secret", "ASSIST_SECRET", "SESSION_SECRET")
	_ = v.BindEnv("openai.api_key", "ASSIST_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("openai.base_url", "ASSIST_OPENAI_BASE_URL", "OPENAI_BASE_URL")
	_ = v.BindEnv("aws.region", "ASSIST_AWS_REGION", "AWS_REGION")
	_ = v.BindEnv("aws.access_key_id", "ASSIST_AWS_ACCESS_KEY_ID", "AWS_ACCESS_KEY_ID")
	_ = v.BindEnv("aws.secret_access_key", "ASSIST_AWS_SECRET_ACCESS_KEY", "AWS_SECRET_ACCESS_KEY")
	_ = v.BindEnv("aws.session_token", "ASSIST_AWS_SESSION_TOKEN", "AWS_SESSION_TOKEN")
}

func (c *Config) Validate() error {
	switch c.SlowPeerPolicy {
	case "drop", "kick":
	default:
		return fmt.Errorf("config: slow_peer_policy must be drop or kick, got %q", c.SlowPeerPolicy)
	}
	if c.ContextWindow <= 0 {
		return fmt.Errorf("config: context_window must be positive, got %d", c.ContextWindow)
	}
	if c.MaxInFlight < 0 {
		return fmt.Errorf("config: max_in_flight must not be negative, got %d", c.MaxInFlight)
	}
	if len(c.Voices) == 0 {
		return errors.New("config: at least one voice is required")
	}
	for _, s := range c.ICEServers {
		for _, u := range s.URLs {
			if _, err := stun.ParseURI(u); err != nil {
				return fmt.Errorf("config: ice server %q: %w", u, err)
			}
		}
	}
	return nil
}
