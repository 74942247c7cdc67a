package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/danmuck/tpkit/internal/config"
	logs "github.com/danmuck/tpkit/internal/logging"
)

// exitError carries a process exit code out of a command.
type exitError struct {
	code int
}

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func asExit(err error, target *exitError) bool {
	return errors.As(err, target)
}

func runCmd() *cobra.Command {
	var (
		configPath string
		pluginID   string
		address    string
		updateURL  string
		adminAddr  string
		logLevel   string
		reconnect  bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to the host and serve plugin events",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadRunConfig(configPath)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			levelFlag := ""
			if flags.Changed("plugin-id") {
				cfg.PluginID = strings.TrimSpace(pluginID)
			}
			if flags.Changed("address") {
				cfg.Host.Address = strings.TrimSpace(address)
			}
			if flags.Changed("update-url") {
				cfg.UpdateURL = strings.TrimSpace(updateURL)
			}
			if flags.Changed("admin-addr") {
				cfg.Admin.Enabled = true
				cfg.Admin.Addr = strings.TrimSpace(adminAddr)
			}
			if flags.Changed("log-level") {
				cfg.Log.Level = logLevel
				levelFlag = logLevel
			}
			if flags.Changed("reconnect") {
				cfg.Reconnect = reconnect
			}
			if err := config.ValidateClientFile(cfg); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			logs.Apply(runtimeLogConfig(cfg.Log, levelFlag))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			term, err := runPlugin(ctx, cfg)
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			if !term.Exit {
				logs.Infof("tpclient.run connection ended reason=%s, waiting for signal", term.Reason)
				<-ctx.Done()
				return nil
			}
			if term.HadError {
				return exitError{code: 1}
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&configPath, "config", "c", "", "Path to a tpclient TOML config")
	f.StringVar(&pluginID, "plugin-id", "", "Plugin id sent in the pairing message")
	f.StringVar(&address, "address", config.DefaultHostAddress, "Host address")
	f.StringVar(&updateURL, "update-url", "", "URL returning {\"version\": \"x.y.z\"}")
	f.StringVar(&adminAddr, "admin-addr", "", "Enable the admin HTTP server on this address")
	f.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	f.BoolVar(&reconnect, "reconnect", false, "Reconnect with backoff after the host drops the connection")
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or check tpclient config files",
	}

	var (
		kind      string
		overwrite bool
	)
	initCmd := &cobra.Command{
		Use:   "init <path>",
		Short: "Write a config template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteTemplate(args[0], kind, overwrite); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s config to %s\n", kind, args[0])
			return nil
		},
	}
	initCmd.Flags().StringVar(&kind, "kind", "client", "Template kind (client, minimal)")
	initCmd.Flags().BoolVar(&overwrite, "force", false, "Overwrite an existing file")

	validateCmd := &cobra.Command{
		Use:   "validate <path>",
		Short: "Strictly parse and validate a config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadClientConfig(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok plugin_id=%s host=%s states=%d\n", cfg.PluginID, cfg.Host.Address, len(cfg.States))
			return nil
		},
	}

	cmd.AddCommand(initCmd, validateCmd)
	return cmd
}

// runtimeLogConfig layers the [log] table, then TPKIT_LOG_* variables, then
// --log-level over the runtime defaults.
func runtimeLogConfig(file config.LogConfig, levelFlag string) logs.Config {
	out := logs.RuntimeConfig()
	if level, ok := logs.ParseLevel(file.Level); ok {
		out.Level = level
	}
	out.JSON = file.JSON
	logs.ApplyEnv(&out)
	if level, ok := logs.ParseLevel(levelFlag); ok {
		out.Level = level
	}
	return out
}
