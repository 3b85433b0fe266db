package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ds124wfegd/elastix-api/config"
	"github.com/ds124wfegd/elastix-api/internal/appServer"
	"github.com/ds124wfegd/elastix-api/internal/entity"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	version = "dev"
	cfgFile string
	cfg     *config.Config
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "elastix-api",
		Short:         "HTTP and command line front end for elastix image registration",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			appServer.NewServer(cfg)
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", config.GetEnv("ELASTIX_API_CONFIG", ""),
		"config file (default: ./config/config.yaml)")
	root.PersistentFlags().String("work-dir", "", "base directory for relative paths")
	root.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(newServeCommand())
	root.AddCommand(newRegisterCommand())
	root.AddCommand(newWarpCommand())
	root.AddCommand(newParameterMapsCommand())
	return root
}

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			appServer.NewServer(cfg)
			return nil
		},
	}
	cmd.Flags().String("port", "", "port to listen on")
	return cmd
}

// initConfig loads the config file and lays the command line flags over it.
func initConfig(flags *pflag.FlagSet) error {
	v, err := config.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("cannot load config: %w", err)
	}

	bindings := map[string]string{
		"work-dir":  "app.work_dir",
		"log-level": "log.level",
		"port":      "server.port",
	}
	for flag, key := range bindings {
		if f := flags.Lookup(flag); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}

	cfg, err = config.ParseConfig(v)
	if err != nil {
		return fmt.Errorf("cannot parse config: %w", err)
	}

	appServer.SetupLogging(cfg)
	return nil
}

// printResult writes the envelope the HTTP API would have returned.
func printResult(w io.Writer, envelope *entity.ResultEnvelope, err error) error {
	if err != nil {
		logrus.WithError(err).Debug("command failed")
		envelope = entity.Failure(err)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(envelope); encErr != nil {
		return encErr
	}
	return err
}
