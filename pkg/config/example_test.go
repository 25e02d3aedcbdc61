package config_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/jsonparquet/pkg/config"
	"github.com/ajitpratap0/jsonparquet/pkg/errors"
)

// ExampleNewConfig demonstrates creating a configuration with default values.
func ExampleNewConfig() {
	cfg := config.NewConfig()

	fmt.Printf("Write Batch Size: %d\n", cfg.Writer.WriteBatchSize)
	fmt.Printf("Compression: %s\n", cfg.Writer.Compression)
	fmt.Printf("Unexpected Fields: %s\n", cfg.Reader.UnexpectedFieldBehavior)

	// Output:
	// Write Batch Size: 10000
	// Compression: snappy
	// Unexpected Fields: ignore
}

// ExampleConfig_Validate shows how to validate a configuration before use.
func ExampleConfig_Validate() {
	cfg := config.NewConfig()
	cfg.Writer.WriteBatchSize = 0

	err := cfg.Validate()
	fmt.Println(err)

	// Output:
	// config: write_batch_size must be positive
}

func TestLoadConfigOverlaysDefaults(t *testing.T) {
	t.Setenv("JSONPARQUET_TEST_BATCH", "250")

	path := filepath.Join(t.TempDir(), "jsonparquet.yaml")
	content := `
writer:
  write_batch_size: ${JSONPARQUET_TEST_BATCH}
  compression: zstd
reader:
  unexpected_field_behavior: error
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 250, cfg.Writer.WriteBatchSize)
	assert.Equal(t, "zstd", cfg.Writer.Compression)
	assert.Equal(t, "error", cfg.Reader.UnexpectedFieldBehavior)
	assert.Equal(t, config.DefaultBlockSize, cfg.Reader.BlockSize)
	assert.True(t, cfg.Writer.StoreSchema)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("reader:\n  block_size: -1\n"), 0o600))

	_, err := config.LoadConfig(path)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := config.NewConfig()
	cfg.Writer.Compression = "gzip"
	cfg.Reader.Workers = 3

	require.NoError(t, config.Save(path, cfg))

	loaded, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestGetWorkers(t *testing.T) {
	r := config.ReaderConfig{}
	assert.GreaterOrEqual(t, r.GetWorkers(), 1)
	r.Workers = 2
	assert.Equal(t, 2, r.GetWorkers())
}
