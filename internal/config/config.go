package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed thresholds.yaml
var thresholdsYAML []byte

// fallbackThreshold is used when neither MATCH_THRESHOLD nor the embedded
// per-model table yields a value.
const fallbackThreshold = 0.8

type Config struct {
	Embedder   EmbedderConfig
	Match      MatchConfig
	Storage    StorageConfig
	Web        WebConfig
	Thresholds ThresholdsConfig
}

type EmbedderConfig struct {
	URL   string // face embedding service base URL (defaults to http://localhost:8000)
	Model string // embedding model identifier, used to look up the default threshold
	Dim   int    // embedding dimension (defaults to 512, FaceNet)
}

type MatchConfig struct {
	Threshold float64 // explicit threshold override; 0 means "use the per-model table"
}

type StorageConfig struct {
	DataDir       string // root directory for per-identity records and audit images
	AttendanceCSV string // path to the attendance CSV ledger
	DatabaseURL   string // PostgreSQL connection URL; empty selects the file backends
	MaxOpenConns  int    // maximum open connections (default 25)
	MaxIdleConns  int    // maximum idle connections (default 5)
}

type WebConfig struct {
	Host string
	Port int
}

type ThresholdsConfig struct {
	Models map[string]float64 `yaml:"models"`
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

// envString reads an environment variable, falling back to a default when unset.
func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	var thresholds ThresholdsConfig
	if err := yaml.Unmarshal(thresholdsYAML, &thresholds); err != nil {
		// Embedded file, so this should never happen in practice.
		panic("failed to unmarshal embedded thresholds.yaml: " + err.Error())
	}

	return &Config{
		Embedder: EmbedderConfig{
			URL:   envString("EMBEDDER_URL", "http://localhost:8000"),
			Model: envString("EMBEDDER_MODEL", "facenet-vggface2"),
			Dim:   envInt("EMBEDDING_DIM", 512),
		},
		Match: MatchConfig{
			Threshold: envFloat("MATCH_THRESHOLD", 0),
		},
		Storage: StorageConfig{
			DataDir:       envString("DATA_DIR", "dataset"),
			AttendanceCSV: envString("ATTENDANCE_CSV", "attendance.csv"),
			DatabaseURL:   os.Getenv("DATABASE_URL"),
			MaxOpenConns:  envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:  envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Web: WebConfig{
			Host: envString("WEB_HOST", "0.0.0.0"),
			Port: envInt("WEB_PORT", 8080),
		},
		Thresholds: thresholds,
	}
}

// MatchThreshold resolves the effective match threshold: an explicit
// MATCH_THRESHOLD wins, then the embedded per-model table, then the fallback.
func (c *Config) MatchThreshold() float64 {
	if c.Match.Threshold > 0 {
		return c.Match.Threshold
	}
	if t, ok := c.Thresholds.Models[c.Embedder.Model]; ok && t > 0 {
		return t
	}
	return fallbackThreshold
}
