package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "docuchat", cfg.App.Name)
	require.Equal(t, "http://localhost:8000", cfg.Inference.BaseURL)
	require.Equal(t, "mistral", cfg.Inference.Model)
	require.Equal(t, "chat.message.persist", cfg.RabbitMQ.MessagePersistQueue)
	require.Equal(t, 1000, cfg.Chat.AckDelayMS)
	require.Equal(t, "0.0.0.0:8080", cfg.HTTPAddr())
}

func TestLoad_FileThenEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[app]
port = 9090

[inference]
model = "llama3"

[chat]
ack_delay_ms = 250
`), 0o644))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("INFERENCE_MODEL", "phi3")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.App.Port)
	require.Equal(t, 250, cfg.Chat.AckDelayMS)
	// Environment wins over the file.
	require.Equal(t, "phi3", cfg.Inference.Model)
}

func TestMySQLDSN(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("MYSQL_USER", "app")
	t.Setenv("MYSQL_PASSWORD", "secret")
	t.Setenv("MYSQL_HOST", "db.internal")
	t.Setenv("MYSQL_PORT", "3307")
	t.Setenv("MYSQL_DB", "chat")
	t.Setenv("MYSQL_PARAMS", "parseTime=true")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "app:secret@tcp(db.internal:3307)/chat?parseTime=true", cfg.MySQLDSN())
}
