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
	Training    TrainingConfig
	Solver      SolverConfig
	Recognition RecognitionConfig
	Model       ModelConfig
	Database    DatabaseConfig
}

type TrainingConfig struct {
	Eigenfaces  int // target eigenface count K
	ImageWidth  int
	ImageHeight int
}

type SolverConfig struct {
	Tolerance     float64
	MaxIterations int
	Seed          int64 // fixed seed keeps training reproducible
}

type RecognitionConfig struct {
	Threshold float64 // reject as unknown above this face-space distance
}

type ModelConfig struct {
	Path string // gob model file path
	Name string // model name in the database store
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL; empty means file store only
	MaxOpenConns int
	MaxIdleConns int
}

// defaults mirrors the embedded defaults.yaml layout.
type defaults struct {
	Training struct {
		Eigenfaces  int `yaml:"eigenfaces"`
		ImageWidth  int `yaml:"image_width"`
		ImageHeight int `yaml:"image_height"`
	} `yaml:"training"`
	Solver struct {
		Tolerance     float64 `yaml:"tolerance"`
		MaxIterations int     `yaml:"max_iterations"`
		Seed          int64   `yaml:"seed"`
	} `yaml:"solver"`
	Recognition struct {
		Threshold float64 `yaml:"threshold"`
	} `yaml:"recognition"`
	Model struct {
		Path string `yaml:"path"`
		Name string `yaml:"name"`
	} `yaml:"model"`
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

func envInt64(key string, defaultVal int64) int64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	return defaultVal
}

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

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// Load builds the configuration from the embedded defaults overridden by
// FACEID_* (and DATABASE_*) environment variables.
func Load() *Config {
	var d defaults
	if err := yaml.Unmarshal(defaultsYAML, &d); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}

	return &Config{
		Training: TrainingConfig{
			Eigenfaces:  envInt("FACEID_EIGENFACES", d.Training.Eigenfaces),
			ImageWidth:  envInt("FACEID_IMAGE_WIDTH", d.Training.ImageWidth),
			ImageHeight: envInt("FACEID_IMAGE_HEIGHT", d.Training.ImageHeight),
		},
		Solver: SolverConfig{
			Tolerance:     envFloat("FACEID_TOLERANCE", d.Solver.Tolerance),
			MaxIterations: envInt("FACEID_MAX_ITERATIONS", d.Solver.MaxIterations),
			Seed:          envInt64("FACEID_SEED", d.Solver.Seed),
		},
		Recognition: RecognitionConfig{
			Threshold: envFloat("FACEID_THRESHOLD", d.Recognition.Threshold),
		},
		Model: ModelConfig{
			Path: envString("FACEID_MODEL_PATH", d.Model.Path),
			Name: envString("FACEID_MODEL_NAME", d.Model.Name),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
	}
}
