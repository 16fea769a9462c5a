// -- cmd/root.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/monkey-cli/internal/config"
	"github.com/xkilldash9x/monkey-cli/internal/observability"
)

// app carries the state resolved in PersistentPreRunE to the subcommands.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
}

// NewRootCommand builds a fresh command tree. Each call has its own viper
// instance, so flags never leak between executions.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:     "monkey-cli",
		Short:   "monkey-cli drives a browser through random interactions while steering toward a target success rate.",
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			if err := a.load(cmd); err != nil {
				// Initialize a fallback logger so the failure is visible.
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "monkey-cli"})
				return err
			}
			observability.InitializeLogger(a.cfg.Logger)
			observability.GetLogger().Info("Starting monkey-cli.", zap.String("version", Version))
			return nil
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(newRunCmd(a))
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// Execute runs the command tree with a signal-aware context.
func Execute(ctx context.Context) error {
	err := NewRootCommand().ExecuteContext(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			observability.GetLogger().Warn("Run interrupted.")
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
	}
	observability.Sync()
	return err
}

// load resolves configuration in precedence order: flags, MONKEY_ environment
// variables, the config file, then defaults.
func (a *app) load(cmd *cobra.Command) error {
	config.SetDefaults(a.v)
	if err := initializeConfig(a.v, a.cfgFile); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}
	if err := applyRunFlags(cmd, a.v); err != nil {
		return err
	}
	cfg, err := config.NewConfigFromViper(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

// initializeConfig reads in config file and ENV variables if set. A .env file
// in the working directory is loaded first when present.
func initializeConfig(v *viper.Viper, cfgFile string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error reading .env file: %w", err)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("MONKEY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults/env vars
	}
	return nil
}
