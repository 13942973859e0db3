package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	root := t.TempDir()
	t.Chdir(root)
	t.Setenv("PROJECT_ROOT", root)

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, ":8000", cfg.HTTPAddress)
	require.Equal(t, "postgres", cfg.DatabaseKind)
	require.Equal(t, filepath.Join(root, "data"), cfg.DataDir)
	require.Equal(t, filepath.Join(root, "processed"), cfg.ProcessedDir)
	require.Equal(t, "http://localhost:8080", cfg.AirflowURL)
	require.Equal(t, "etl_pipeline", cfg.AirflowDAGID)
	require.Equal(t, 10*time.Second, cfg.AirflowTriggerTimeout)
	require.Equal(t, 5*time.Second, cfg.AirflowHealthTimeout)
	require.Equal(t, 1, cfg.PipelineRetries)
	require.Equal(t, 5*time.Minute, cfg.PipelineRetryDelay)
	require.False(t, cfg.LoadClearExisting)
	require.False(t, cfg.DatadogEnabled)
	require.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("AIRFLOW_URL", "http://airflow:8080/")
	t.Setenv("DATABASE_KIND", "SQLite")
	t.Setenv("LOAD_CLEAR_EXISTING", "true")
	t.Setenv("PIPELINE_RETRY_DELAY", "30s")
	t.Setenv("KAFKA_BROKERS", " a:9092 , ,b:9092")
	t.Setenv("DATA_DIR", "/srv/incoming")
	t.Setenv("DD_API_KEY", "key")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "http://airflow:8080", cfg.AirflowURL)
	require.Equal(t, "sqlite", cfg.DatabaseKind)
	require.True(t, cfg.LoadClearExisting)
	require.Equal(t, 30*time.Second, cfg.PipelineRetryDelay)
	require.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	require.Equal(t, "/srv/incoming", cfg.DataDir)
	require.True(t, cfg.DatadogEnabled)
}

func TestLoadReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("AIRFLOW_DAG_ID=nightly\nTOP_ORDER=asc\n"), 0o600))
	t.Setenv("TOP_ORDER", "desc")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "nightly", cfg.AirflowDAGID)
	require.Equal(t, "desc", cfg.TopOrder, "environment wins over the file")
}

func TestLoadFailsOnMissingExplicitFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.env"))

	_, err := Load()
	require.Error(t, err)
}
