package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/shelf/internal/app"
	"github.com/MrSnakeDoc/shelf/internal/config"
	"github.com/MrSnakeDoc/shelf/internal/logger"
	"github.com/MrSnakeDoc/shelf/internal/version"
)

func main() {
	root := &cobra.Command{
		Use:           "shelf",
		Short:         "Blog and GitHub explorer backend",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}

	root.AddCommand(serveCmd(), bookmarksCmd(), adminCmd())

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "❌ shelf: %v\n", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	cfg := config.Load()
	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)
	defer func() { _ = loggerClient.Sync() }()

	a, err := app.New(ctx, cfg, loggerClient)
	if err != nil {
		return err
	}
	return a.Run(ctx)
}

// openStorage is shared by the offline commands. Logs stay quiet unless
// debugging so stdout carries only the command output.
func openStorage(ctx context.Context) (*app.Storage, error) {
	cfg := config.Load()
	level := "warn"
	if cfg.LogLevel == "debug" {
		level = "debug"
	}
	return app.OpenStorage(ctx, cfg, logger.New(level, cfg.PrettyLog))
}
