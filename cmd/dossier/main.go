// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the dossier CLI.
//
// dossier reads a list of subjects (name and institution plus optional
// columns), finds web sources for each, extracts the requested fields with a
// language model, and writes one merged row per subject to a workbook and
// the local record store.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/dossier/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback when set, otherwise the named secret from
// .secrets/ or the environment.
func secretDefault(name, fallback string) string {
	if fallback != "" {
		return fallback
	}
	return secrets.Get(loadedSecrets, name)
}

// rootCmd is the base command for the dossier CLI.
var rootCmd = &cobra.Command{
	Use:   "dossier",
	Short: "Build subject profiles from web sources",
	Long: `dossier builds one profile row per subject from public web sources.

For every subject in the input list it searches the web for candidate
pages, keeps the relevant ones, asks a language model for the requested
fields on each page, and merges the answers into a single row. Rows are
written to an .xlsx workbook and to a local SQLite record store as each
subject completes.

Formats choose the output columns, extra search terms, and prompts. Use
"dossier format" to inspect or save them and "dossier records" to query
past runs.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		dir := viper.GetString("secrets_dir")
		s, err := secrets.Load(dir)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./dossier.yaml or ~/.config/dossier/dossier.yaml)")
	pf.String("secrets-dir", secrets.DefaultDir, "directory holding API key files")
	pf.String("log-format", "console", "log encoding: console or json")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("store", "", "record store path (default dossier.db)")
	pf.String("format-dir", defaultFormatDir, "directory of saved formats")

	bindFlag("secrets_dir", pf.Lookup("secrets-dir"))
	bindFlag("log.format", pf.Lookup("log-format"))
	bindFlag("log.level", pf.Lookup("log-level"))
	bindFlag("store", pf.Lookup("store"))
	bindFlag("format_dir", pf.Lookup("format-dir"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("dossier")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "dossier"))
		}
	}

	viper.SetEnvPrefix("DOSSIER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// bindFlag ties a config key to a flag so a set flag overrides the config
// file and environment.
func bindFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("binding flag for %s: %v", key, err))
	}
}

// newLogger builds the structured logger. Logs go to stderr so stdout
// carries only progress and command output.
func newLogger() (*zap.Logger, error) {
	var cfg zap.Config
	switch viper.GetString("log.format") {
	case "json":
		cfg = zap.NewProductionConfig()
	case "console", "":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.DisableStacktrace = true
	default:
		return nil, fmt.Errorf("unsupported log format %q: use console or json", viper.GetString("log.format"))
	}

	level, err := zapcore.ParseLevel(viper.GetString("log.level"))
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
