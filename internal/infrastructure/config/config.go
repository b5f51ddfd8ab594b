package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port       string        `env:"PORT,        default=8080"`
	Env        string        `env:"ENV,         default=development"`
	JWTSecret  string        `env:"JWT_SECRET"`
	LogLevel   string        `env:"LOG_LEVEL,   default=info"`
	SessionTTL time.Duration `env:"SESSION_TTL, default=1h"`

	Data   DataConfig
	Vision VisionConfig
}

// DataConfig locates the flat-file stores and the model directories.
type DataConfig struct {
	AccountsFile     string `env:"ACCOUNTS_FILE,     default=data/bank_details.csv"`
	TransactionsFile string `env:"TRANSACTIONS_FILE, default=data/transactions.csv"`
	ModelDir         string `env:"MODEL_DIR,         default=data/output"`
	DatasetDir       string `env:"DATASET_DIR,       default=data/dataset"`
}

// VisionConfig covers the face inference sidecar and decision thresholds.
type VisionConfig struct {
	BaseURL             string  `env:"VISION_URL,           default=http://localhost:9090"`
	DetectionConfidence float64 `env:"DETECTION_CONFIDENCE, default=0.2"`
	MatchThreshold      float64 `env:"MATCH_THRESHOLD,      default=0.15"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
