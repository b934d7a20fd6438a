package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// envConfig mirrors Config with env tags. Unset variables leave the
// corresponding field at its zero value, which the overlay skips.
type envConfig struct {
	Addr                        string        `env:"SHELFDRIVE_ADDR"`
	DatabaseDSN                 string        `env:"SHELFDRIVE_DATABASE_DSN"`
	SecretKey                   string        `env:"SHELFDRIVE_SECRET_KEY"`
	AccessTokenValidityDuration time.Duration `env:"SHELFDRIVE_ACCESS_TOKEN_VALIDITY"`
	S3RootUser                  string        `env:"SHELFDRIVE_S3_ROOT_USER"`
	S3RootPassword              string        `env:"SHELFDRIVE_S3_ROOT_PASSWORD"`
	S3Bucket                    string        `env:"SHELFDRIVE_S3_BUCKET"`
	S3Region                    string        `env:"SHELFDRIVE_S3_REGION"`
	S3BaseEndpoint              string        `env:"SHELFDRIVE_S3_BASE_ENDPOINT"`
}

// parseEnv overlays environment variables onto the config. Only variables
// that are actually set override earlier layers.
func parseEnv(config *Config) {
	ec := envConfig{}
	if err := env.Parse(&ec); err != nil {
		panic(err)
	}

	if ec.Addr != "" {
		config.Addr = ec.Addr
	}
	if ec.DatabaseDSN != "" {
		config.DatabaseDSN = ec.DatabaseDSN
	}
	if ec.SecretKey != "" {
		config.SecretKey = ec.SecretKey
	}
	if ec.AccessTokenValidityDuration != 0 {
		config.AccessTokenValidityDuration = ec.AccessTokenValidityDuration
	}
	if ec.S3RootUser != "" {
		config.S3RootUser = ec.S3RootUser
	}
	if ec.S3RootPassword != "" {
		config.S3RootPassword = ec.S3RootPassword
	}
	if ec.S3Bucket != "" {
		config.S3Bucket = ec.S3Bucket
	}
	if ec.S3Region != "" {
		config.S3Region = ec.S3Region
	}
	if ec.S3BaseEndpoint != "" {
		config.S3BaseEndpoint = ec.S3BaseEndpoint
	}
}
