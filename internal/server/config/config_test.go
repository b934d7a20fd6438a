package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	require.Equal(t, ":8080", cfg.Addr)
	require.NotEmpty(t, cfg.DatabaseDSN)
	require.Equal(t, 15*time.Minute, cfg.AccessTokenValidityDuration)
	require.NotEmpty(t, cfg.S3Bucket)
}

func TestParseEnv_OverridesOnlySetVariables(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	t.Setenv("SHELFDRIVE_ADDR", ":9090")
	t.Setenv("SHELFDRIVE_SECRET_KEY", "from-env")
	t.Setenv("SHELFDRIVE_ACCESS_TOKEN_VALIDITY", "30m")

	parseEnv(cfg)

	require.Equal(t, ":9090", cfg.Addr)
	require.Equal(t, "from-env", cfg.SecretKey)
	require.Equal(t, 30*time.Minute, cfg.AccessTokenValidityDuration)
	// untouched layers keep their defaults
	require.Equal(t, "shelfdrive", cfg.S3Bucket)
}

func TestParseJson_LoadsFileFromFlag(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conf.json")
	body := `{
		"addr": ":7070",
		"database_dsn": "postgres://json",
		"secret_key": "json-secret",
		"access_token_validity_duration": "45m",
		"s3_root_user": "json-user",
		"s3_root_password": "json-pass",
		"s3_bucket": "json-bucket",
		"s3_region": "eu-west-1",
		"s3_base_endpoint": "http://minio:9000/"
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	origArgs := os.Args
	defer func() { os.Args = origArgs }()
	os.Args = []string{"server", "-c", path}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)

	require.Equal(t, ":7070", cfg.Addr)
	require.Equal(t, "postgres://json", cfg.DatabaseDSN)
	require.Equal(t, "json-secret", cfg.SecretKey)
	require.Equal(t, 45*time.Minute, cfg.AccessTokenValidityDuration)
	require.Equal(t, "eu-west-1", cfg.S3Region)
}

func TestParseJson_NoFlagLeavesConfigAlone(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()
	os.Args = []string{"server"}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)

	require.Equal(t, ":8080", cfg.Addr)
}

func TestParseFlags_OverridesDefaults(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()
	os.Args = []string{"server", "-a", ":6060", "-t", "5", "-b", "flag-bucket"}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg)

	require.Equal(t, ":6060", cfg.Addr)
	require.Equal(t, 5*time.Minute, cfg.AccessTokenValidityDuration)
	require.Equal(t, "flag-bucket", cfg.S3Bucket)
}
