package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the central typed configuration struct.
// Embed or extend it in your app's own AppConfig.
type Config struct {
	App       AppConfig
	Container ContainerConfig
}

type AppConfig struct {
	Name  string
	Env   string // local | production | testing
	Debug bool
	URL   string
	Port  string
}

// IsProduction reports whether APP_ENV is "production".
func (a AppConfig) IsProduction() bool { return a.Env == "production" }

// ContainerConfig controls how the service container is set up.
type ContainerConfig struct {
	Parameters    string // path of a YAML parameters file, optional
	LogLevel      string // logrus level name
	FactorySuffix string // empty disables suffix-based factory detection
	Inspector     bool   // mount the /_container routes; never in production
}

// Load reads .env (if present) and populates a Config from environment variables.
// Call once at bootstrap: cfg := config.Load()
func Load(envFiles ...string) *Config {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	return &Config{
		App: AppConfig{
			Name:  env("APP_NAME", "GoInject"),
			Env:   env("APP_ENV", "local"),
			Debug: envBool("APP_DEBUG", true),
			URL:   env("APP_URL", "http://localhost"),
			Port:  env("APP_PORT", "8000"),
		},
		Container: ContainerConfig{
			Parameters:    env("CONTAINER_PARAMETERS", ""),
			LogLevel:      env("CONTAINER_LOG_LEVEL", "info"),
			FactorySuffix: env("CONTAINER_FACTORY_SUFFIX", ""),
			Inspector:     envBool("CONTAINER_INSPECTOR", false),
		},
	}
}

// Parameters exposes the application settings as container parameters.
//
//	app.name, app.env, app.debug, app.url, app.port
func (c *Config) Parameters() map[string]any {
	return map[string]any{
		"app.name":  c.App.Name,
		"app.env":   c.App.Env,
		"app.debug": c.App.Debug,
		"app.url":   c.App.URL,
		"app.port":  c.App.Port,
	}
}

// ── Parameters file ─────────────────────────────────────────────────────────

// LoadParameters reads a YAML document and flattens nested mappings into
// dotted keys:
//
//	db:
//	  host: localhost   →  "db.host": "localhost"
//	  port: 5432        →  "db.port": 5432
//
// Sequences are kept as []any values.
func LoadParameters(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading parameters: %w", err)
	}
	return ParseParameters(data)
}

// ParseParameters is LoadParameters for an in-memory document.
func ParseParameters(data []byte) (map[string]any, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: parsing parameters: %w", err)
	}
	out := make(map[string]any)
	flatten("", doc, out)
	return out, nil
}

func flatten(prefix string, in map[string]any, out map[string]any) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			flatten(key, nested, out)
			continue
		}
		out[key] = v
	}
}

// ── helpers ─────────────────────────────────────────────────────────────────

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
