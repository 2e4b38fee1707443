package config

import (
	"fmt"
	"log/slog"

	"github.com/kelseyhightower/envconfig"
)

type BaseEnv struct {
	Env      string `envconfig:"ENV" default:"local"`
	HTTPHost string `envconfig:"HTTP_HOST" default:""`
	HTTPPort string `envconfig:"HTTP_PORT" default:"3200"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"debug"`
}

type StorageEnv struct {
	Type    string `envconfig:"STORAGE_TYPE" default:"local"`
	BaseDir string `envconfig:"STORAGE_BASE_DIR" default:".taskflow/data"`
	// SQLite settings (used when Type == "sqlite")
	SQLitePath string `envconfig:"SQLITE_PATH" default:".taskflow/taskflow.db"`
	// S3 settings (used when Type == "s3")
	S3Bucket string `envconfig:"S3_BUCKET"`
	S3Prefix string `envconfig:"S3_PREFIX" default:"taskflow/"`
	S3Region string `envconfig:"S3_REGION" default:"ap-northeast-1"`
}

type AuthEnv struct {
	SessionSecret string `envconfig:"SESSION_SECRET" required:"true"`
	SessionTTL    string `envconfig:"SESSION_TTL" default:"168h"`
}

type VAPIDEnv struct {
	VAPIDPublicKey  string `envconfig:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `envconfig:"VAPID_PRIVATE_KEY"`
	VAPIDContact    string `envconfig:"VAPID_CONTACT" default:"mailto:admin@taskflow.local"`
}

type TipsEnv struct {
	TipsFile string `envconfig:"TIPS_FILE" default:".taskflow/tips.yaml"`
}

type Env struct {
	BaseEnv
	StorageEnv
	AuthEnv
	VAPIDEnv
	TipsEnv
}

const namespace = "TASKFLOW"

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	return &env, nil
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelDebug
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelDebug
	}
	return level
}

func AuthEnvFromEnv(env *Env) *AuthEnv {
	return &env.AuthEnv
}

func VAPIDEnvFromEnv(env *Env) *VAPIDEnv {
	return &env.VAPIDEnv
}
