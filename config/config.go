package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/slighter12/go-lib/database/postgres"
)

const (
	defaultPath               = "."
	defaultMaxRequestBodySize = "100KB"

	defaultSessionTTL        = 24 * time.Hour
	defaultExtensionTTL      = 7 * 24 * time.Hour
	defaultPasswordMinLength = 8
	defaultExchangeTimeout   = 10 * time.Second
	defaultMicrosoftTenant   = "common"
	defaultWebAuthnTimeout   = 60 * time.Second
	defaultSweepInterval     = 10 * time.Minute

	ChallengeBackendPostgres = "postgres"
	ChallengeBackendRedis    = "redis"
	ChallengeBackendMemory   = "memory"
)

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port               int    `json:"port" yaml:"port"`
		MaxRequestBodySize string `json:"maxRequestBodySize" yaml:"maxRequestBodySize"`
		Timeouts           struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	Postgres *postgres.DBConn `json:"postgres" yaml:"postgres" mapstructure:"postgres"`

	SecretKey SecretKeyConfig `json:"secretKey" yaml:"secretKey"`

	Auth AuthConfig `json:"auth" yaml:"auth"`

	OAuth OAuthConfig `json:"oauth" yaml:"oauth"`

	WebAuthn WebAuthnConfig `json:"webauthn" yaml:"webauthn"`

	Challenge ChallengeConfig `json:"challenge" yaml:"challenge"`

	// Redis is only required when challenge.backend is "redis"
	Redis *RedisConfig `json:"redis" yaml:"redis"`

	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
}

// SecretKeyConfig holds signing secrets.
type SecretKeyConfig struct {
	Session string `json:"session" yaml:"session"`
}

// AuthConfig defines authentication-related configuration
type AuthConfig struct {
	SessionTTL        time.Duration `json:"sessionTTL" yaml:"sessionTTL"`
	ExtensionTTL      time.Duration `json:"extensionTTL" yaml:"extensionTTL"`
	PasswordMinLength int           `json:"passwordMinLength" yaml:"passwordMinLength"`
}

// OAuthConfig configures the identity providers. A provider without client credentials is disabled.
type OAuthConfig struct {
	// Public origin used to build callback URLs, e.g. https://portal.example.com
	BaseURL         string                  `json:"baseUrl" yaml:"baseUrl"`
	ExchangeTimeout time.Duration           `json:"exchangeTimeout" yaml:"exchangeTimeout"`
	Google          OAuthClientConfig       `json:"google" yaml:"google"`
	Microsoft       MicrosoftProviderConfig `json:"microsoft" yaml:"microsoft"`
}

type OAuthClientConfig struct {
	ClientID     string `json:"clientId" yaml:"clientId"`
	ClientSecret string `json:"clientSecret" yaml:"clientSecret"`
}

// Enabled reports whether both client credentials are present.
func (c OAuthClientConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

type MicrosoftProviderConfig struct {
	ClientID     string `json:"clientId" yaml:"clientId"`
	ClientSecret string `json:"clientSecret" yaml:"clientSecret"`
	TenantID     string `json:"tenantId" yaml:"tenantId"`
}

// Enabled reports whether both client credentials are present.
func (c MicrosoftProviderConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// WebAuthnConfig defines the relying party.
type WebAuthnConfig struct {
	RPID    string        `json:"rpId" yaml:"rpId"`
	RPName  string        `json:"rpName" yaml:"rpName"`
	Origins []string      `json:"origins" yaml:"origins"`
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// ChallengeConfig selects where one-time challenges live.
type ChallengeConfig struct {
	// One of "postgres", "redis", "memory"
	Backend string `json:"backend" yaml:"backend"`

	// Interval between expired-challenge sweeps; 0 disables the sweeper
	SweepInterval time.Duration `json:"sweepInterval" yaml:"sweepInterval"`
}

type RedisConfig struct {
	Addr         string        `json:"addr" yaml:"addr"`
	Password     string        `json:"password" yaml:"password"`
	DB           int           `json:"db" yaml:"db"`
	DialTimeout  time.Duration `json:"dialTimeout" yaml:"dialTimeout"`
	ReadTimeout  time.Duration `json:"readTimeout" yaml:"readTimeout"`
	WriteTimeout time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
}

type MetricsConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// LoadWithEnv loads .yaml files through koanf.
func LoadWithEnv[T any](currEnv string, configPath ...string) (*T, error) {
	cfg := new(T)
	koanfInstance := koanf.New(".")

	// Build list of paths to search for config file
	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			abs := filepath.Join(pwd, path)
			searchPaths = append(searchPaths, abs)
		}
	}

	// Try to find and load the config file
	var configFile string
	var found bool
	for _, path := range searchPaths {
		candidate := filepath.Join(path, currEnv+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate
			found = true

			break
		}
	}

	if !found {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", currEnv)
	}

	// Load YAML config file
	if err := koanfInstance.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", currEnv)
	}

	existingConfigMap := koanfInstance.Raw()

	// Load environment variables
	if err := koanfInstance.Load(env.Provider(".", env.Opt{
		TransformFunc: func(k, v string) (string, any) {
			// Convert ENV_VAR_NAME to path and align each segment with existing YAML keys.
			// Example: POSTGRES_SSLMODE -> postgres.sslMode (not postgres.sslmode)
			key := canonicalizeEnvKey(k, existingConfigMap)

			return key, v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	// Unmarshal into the config struct (case-insensitive to match env vars)
	if err := koanfInstance.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				// Case-insensitive matching for env var overrides
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", currEnv)
	}

	return cfg, nil
}

func New() (*Config, error) {
	cfg, err := LoadWithEnv[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Build replicas from environment variables (POSTGRES_REPLICAS_0_HOST, POSTGRES_REPLICAS_0_PORT, etc.)
	if cfg.Postgres != nil {
		cfg.Postgres.Replicas = buildReplicasFromEnv()
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.HTTP.MaxRequestBodySize) == "" {
		cfg.HTTP.MaxRequestBodySize = defaultMaxRequestBodySize
	}
	if cfg.Auth.SessionTTL <= 0 {
		cfg.Auth.SessionTTL = defaultSessionTTL
	}
	if cfg.Auth.ExtensionTTL <= 0 {
		cfg.Auth.ExtensionTTL = defaultExtensionTTL
	}
	if cfg.Auth.PasswordMinLength <= 0 {
		cfg.Auth.PasswordMinLength = defaultPasswordMinLength
	}
	if cfg.OAuth.ExchangeTimeout <= 0 {
		cfg.OAuth.ExchangeTimeout = defaultExchangeTimeout
	}
	if cfg.OAuth.Microsoft.TenantID == "" {
		cfg.OAuth.Microsoft.TenantID = defaultMicrosoftTenant
	}
	cfg.OAuth.BaseURL = strings.TrimRight(cfg.OAuth.BaseURL, "/")
	if cfg.WebAuthn.Timeout <= 0 {
		cfg.WebAuthn.Timeout = defaultWebAuthnTimeout
	}
	if cfg.Challenge.Backend == "" {
		cfg.Challenge.Backend = ChallengeBackendPostgres
	}
	if cfg.Challenge.SweepInterval < 0 {
		cfg.Challenge.SweepInterval = defaultSweepInterval
	}
}

func (cfg *Config) validate() error {
	switch cfg.Challenge.Backend {
	case ChallengeBackendPostgres, ChallengeBackendMemory:
	case ChallengeBackendRedis:
		if cfg.Redis == nil || cfg.Redis.Addr == "" {
			return errors.New("challenge backend redis requires redis.addr")
		}
	default:
		return errors.Errorf("unknown challenge backend: %s", cfg.Challenge.Backend)
	}

	if cfg.WebAuthn.RPID == "" || len(cfg.WebAuthn.Origins) == 0 {
		return errors.New("webauthn.rpId and webauthn.origins are required")
	}

	return nil
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}

		child, _ := value.(map[string]any)

		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}

// buildReplicasFromEnv builds the replicas slice from environment variables.
// Environment variable format: POSTGRES_REPLICAS_{index}_{field}
// Example: POSTGRES_REPLICAS_0_HOST, POSTGRES_REPLICAS_0_PORT, POSTGRES_REPLICAS_0_USERNAME, POSTGRES_REPLICAS_0_PASSWORD
func buildReplicasFromEnv() []postgres.ConnectionConfig {
	var replicas []postgres.ConnectionConfig

	for i := 0; ; i++ {
		prefix := "POSTGRES_REPLICAS_" + strconv.Itoa(i) + "_"

		host := os.Getenv(prefix + "HOST")
		port := os.Getenv(prefix + "PORT")
		if host == "" || port == "" {
			// No more replicas or incomplete configuration.
			break
		}

		replica := postgres.ConnectionConfig{
			Host:     host,
			Port:     port,
			UserName: os.Getenv(prefix + "USERNAME"),
			Password: os.Getenv(prefix + "PASSWORD"),
		}

		replicas = append(replicas, replica)
	}

	return replicas
}
