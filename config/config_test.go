package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"

	"waitdie/transaction"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, transaction.Ascending, cfg.SchedulerOrder())
	require.Equal(t, hclog.Info, cfg.LogLevel())
	require.Zero(t, cfg.MaxRounds)
	require.False(t, cfg.Metrics.Enabled)
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
order: descending
max_rounds: 100
log:
  level: trace
  json: true
metrics:
  enabled: true
`))
	require.NoError(t, err)
	require.Equal(t, transaction.Descending, cfg.SchedulerOrder())
	require.Equal(t, 100, cfg.MaxRounds)
	require.Equal(t, hclog.Trace, cfg.LogLevel())
	require.True(t, cfg.Log.JSON)
	require.True(t, cfg.Metrics.Enabled)
	// Fields not present keep their defaults.
	require.Equal(t, 4, cfg.Parallelism)
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestParseUnknownField(t *testing.T) {
	_, err := Parse([]byte("rounds: 3\n"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Order = "sideways"
	cfg.MaxRounds = -1
	cfg.Log.Level = "loud"
	cfg.Parallelism = 0

	err := cfg.Validate()
	require.Error(t, err)
	for _, field := range []string{"order", "max_rounds", "log.level", "parallelism"} {
		require.Contains(t, err.Error(), field+":")
	}

	cfg = Default()
	cfg.Order = "sideways"
	var verr ValidationError
	require.True(t, errors.As(cfg.Validate(), &verr))
	require.Equal(t, "order", verr.Field)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "waitdie.yaml")
	require.NoError(t, os.WriteFile(path, []byte("order: desc\nparallelism: 2\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, transaction.Descending, cfg.SchedulerOrder())
	require.Equal(t, 2, cfg.Parallelism)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
