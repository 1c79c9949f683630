package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Database DatabaseConfig
	Encoder  EncoderConfig
	Matcher  MatcherConfig
	Env      string // "production" hides internal error details from responses
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type EncoderConfig struct {
	URL            string // face encoding service, defaults to http://localhost:5001
	TimeoutSeconds int    // upper bound on one extraction call (default 30)
	Dim            int    // encoding dimension (default 128)
}

type MatcherConfig struct {
	Threshold     float64 `yaml:"threshold"`
	UnitNormalize bool    `yaml:"unit_normalize"`
	MarkPolicy    string  `yaml:"mark_policy"`
}

type defaultsFile struct {
	Matcher MatcherConfig `yaml:"matcher"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
// Returns the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

// envBool reads an environment variable as a boolean, falling back to the
// default when unset or unparseable.
func envBool(key string, defaultVal bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return defaultVal
}

func Load() *Config {
	var defaults defaultsFile
	if err := yaml.Unmarshal(defaultsYAML, &defaults); err != nil {
		// Embedded file, cannot happen in practice.
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}

	matcher := defaults.Matcher
	matcher.Threshold = envFloat("MATCH_THRESHOLD", matcher.Threshold)
	matcher.UnitNormalize = envBool("MATCH_UNIT_NORMALIZE", matcher.UnitNormalize)
	if policy := os.Getenv("MARK_POLICY"); policy != "" {
		matcher.MarkPolicy = policy
	}

	encoderURL := os.Getenv("ENCODER_URL")
	if encoderURL == "" {
		encoderURL = "http://localhost:5001"
	}

	return &Config{
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Encoder: EncoderConfig{
			URL:            encoderURL,
			TimeoutSeconds: envInt("ENCODER_TIMEOUT_SECONDS", 30),
			Dim:            envInt("ENCODING_DIM", 128),
		},
		Matcher: matcher,
		Env:     os.Getenv("ENV"),
	}
}
