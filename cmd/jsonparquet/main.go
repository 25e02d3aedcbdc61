// Command jsonparquet converts JSON documents to Parquet files using a
// registered schema description.
package main

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/jsonparquet/pkg/config"
	"github.com/ajitpratap0/jsonparquet/pkg/logger"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "jsonparquet",
		Short: "Convert JSON documents to Parquet",
		Long: `jsonparquet converts JSON documents to Parquet files. Each resource type is
described by a JSON-Schema style description that fixes the column names and types.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newVersionCommand(),
		newConvertCommand(),
		newSchemaCommand(),
		newInspectCommand(),
	)
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "jsonparquet v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

// loadConfig reads the configuration file when one is given and falls back
// to defaults otherwise
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.NewConfig(), nil
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// newLogger builds a console logger on stderr so stdout stays free for
// command output
func newLogger(cfg *config.Config, level string) (*zap.Logger, error) {
	if level == "" {
		level = cfg.Observability.LogLevel
	}
	return logger.New(logger.Config{
		Level:       level,
		Encoding:    "console",
		OutputPaths: []string{"stderr"},
	})
}

func readSource(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path) //nolint:gosec // G304: path is a command argument
}
