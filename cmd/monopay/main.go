package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/monopay/monopay/internal/config"
	"github.com/monopay/monopay/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:           "monopay",
		Short:         "MonoPay authentication server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load variables from this file instead of .env")

	load := func(ctx context.Context) (config.Config, zerolog.Logger, error) {
		var files []string
		if envFile != "" {
			files = append(files, envFile)
		}
		cfg, err := config.Load(ctx, files...)
		if err != nil {
			return config.Config{}, zerolog.Nop(), fmt.Errorf("load config: %w", err)
		}
		log, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			return config.Config{}, zerolog.Nop(), err
		}
		return cfg, log, nil
	}

	cmd.AddCommand(newServeCommand(load))
	cmd.AddCommand(newMigrateCommand(load))
	return cmd
}

type loadFunc func(ctx context.Context) (config.Config, zerolog.Logger, error)
