// Command coldtrace analyzes cold-storage temperature logs and recommends a
// disposition for the stored product.
package main

import (
	"fmt"
	"os"

	"github.com/HerbHall/coldtrace/internal/config"
	"github.com/HerbHall/coldtrace/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	configPath string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "coldtrace",
		Short:         "Cold-chain temperature log analyzer",
		Long:          "Detects data gaps and temperature excursions in cold-storage logger exports and recommends whether the stored product is usable.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to configuration file")

	cmd.AddCommand(newAnalyzeCommand(opts))
	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newVersionCommand())
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Info())
		},
	}
}

// flagBinding maps a command flag onto a viper key.
type flagBinding struct {
	key  string
	flag string
}

// loadConfig reads the configuration, binds the given flags over it and
// builds the logger.
func loadConfig(cmd *cobra.Command, opts *rootOptions, bindings ...flagBinding) (*viper.Viper, *zap.Logger, error) {
	v, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, nil, err
	}
	for _, b := range bindings {
		if err := v.BindPFlag(b.key, cmd.Flags().Lookup(b.flag)); err != nil {
			return nil, nil, fmt.Errorf("bind --%s: %w", b.flag, err)
		}
	}

	logger, err := config.NewLogger(v)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize logger: %w", err)
	}
	if f := v.ConfigFileUsed(); f != "" {
		logger.Debug("configuration loaded", zap.String("source", f))
	}
	return v, logger, nil
}
