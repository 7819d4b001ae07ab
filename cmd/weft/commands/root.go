package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/agenthands/weft/internal/config"
	"github.com/agenthands/weft/internal/printer"
)

var versionString = "dev"

// SetVersionInfo sets the version reported by --version.
func SetVersionInfo(v, c, d string) {
	versionString = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

// Execute runs the CLI with os.Args.
func Execute() error {
	return newRootCmd(printer.New(nil, nil)).ExecuteContext(context.Background())
}

// app carries what every subcommand needs once flags are parsed.
type app struct {
	printer *printer.Printer
	logger  *slog.Logger
	cfg     *config.Config

	configPath string
	logLevel   string
	envFile    string
}

func newRootCmd(p *printer.Printer) *cobra.Command {
	a := &app{printer: p}

	root := &cobra.Command{
		Use:   "weft",
		Short: "weft - semantic annotation of EML metadata",
		Long: `weft annotates Ecological Metadata Language documents with ontology terms.

It extracts candidate terms for datasets, entities and attributes, records them
in a tab-separated workbook, rejects duplicates and ungrounded terms, and writes
the accepted annotations into the documents at their schema positions.`,
		Version:       versionString,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a TOML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	root.AddCommand(
		newAnnotateCmd(a),
		newWorkbookCmd(a),
		newApplyCmd(a),
		newKindsCmd(a),
		newSOSOCmd(a),
		newSSSOMCmd(a),
		newBenchmarkCmd(a),
		newPruneCmd(a),
	)
	return root
}

func (a *app) setup() error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(a.logLevel)); err != nil {
		return a.printer.Error("Invalid log level", err.Error(), nil,
			[]string{"Use one of debug, info, warn or error."})
	}
	a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(a.logger)

	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			a.logger.Warn("failed to load env file", "path", a.envFile, "error", err)
		}
	}

	cfg := config.Default()
	if a.configPath != "" {
		loaded, err := config.Load(a.configPath)
		if err != nil {
			return a.printer.Error("Cannot load configuration", err.Error(),
				map[string]string{"Config": a.configPath}, nil)
		}
		cfg = loaded
	}
	cfg.ApplyEnv()
	a.cfg = cfg
	return nil
}

// validate checks the configuration after command flags were applied.
func (a *app) validate() error {
	if err := a.cfg.Validate(); err != nil {
		return a.printer.Error("Invalid configuration", strings.TrimSpace(err.Error()), nil,
			[]string{"Fix the config file or the environment variables it is overridden by."})
	}
	return nil
}
