package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"defect-bot/config"
	"defect-bot/internal/container"
	"defect-bot/internal/domain/port"
	"defect-bot/internal/infrastructure/prediction"
	"defect-bot/internal/infrastructure/storage"
	"defect-bot/internal/infrastructure/vision"
	"defect-bot/internal/logging"
	"defect-bot/internal/telemetry"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "defect-bot",
	Short:         "Surface defect classification via a remote model",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to YAML config")

	rootCmd.AddCommand(botCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(classesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// application собранные зависимости одного запуска команды
type application struct {
	cfg     *config.Config
	logger  *slog.Logger
	app     *container.Container
	closers []func(context.Context) error
}

// setup читает конфигурацию, поднимает хранилище и клиент модели и загружает историю
func setup(ctx context.Context) (*application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := logging.Init(cfg.Log.Format, logging.ParseLevel(cfg.Log.Level))
	a := &application{cfg: cfg, logger: logger}

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer("defect-bot", logger)
		if err != nil {
			return nil, fmt.Errorf("init tracer: %w", err)
		}
		a.closers = append(a.closers, shutdown)
	}

	kv, err := a.openStore()
	if err != nil {
		a.close(ctx)
		return nil, err
	}

	timeout, err := cfg.PredictionTimeout()
	if err != nil {
		a.close(ctx)
		return nil, err
	}
	classifier := prediction.NewClient(cfg.Prediction.Endpoint,
		prediction.WithTimeout(timeout),
		prediction.WithLogger(logger))
	preparer := vision.NewJPEGPreparer(cfg.Image.JPEGQuality, cfg.Image.MaxSide)

	a.app = container.New(storage.NewMemoryUserRepository(), classifier, kv, preparer, logger)
	loaded := a.app.History.Load(ctx)

	logger.Debug("application ready",
		slog.String("endpoint", classifier.Endpoint()),
		slog.String("storage", cfg.Storage.Driver),
		slog.Int("history_entries", len(loaded)))
	return a, nil
}

func (a *application) openStore() (port.KeyValueStore, error) {
	switch a.cfg.Storage.Driver {
	case "memory":
		return storage.NewMemoryKVStore(), nil
	case "file":
		return storage.NewFileKVStore(a.cfg.Storage.Path)
	default:
		store, err := storage.NewSQLiteKVStore(a.cfg.Storage.Path)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return store.Close() })
		return store, nil
	}
}

func (a *application) close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Error("shutdown", slog.String("error", err.Error()))
		}
	}
}

// withApp оборачивает RunE: собирает зависимости и освобождает их после команды
func withApp(run func(cmd *cobra.Command, args []string, a *application) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close(context.WithoutCancel(cmd.Context()))
		return run(cmd, args, a)
	}
}

var classesCmd = &cobra.Command{
	Use:   "classes",
	Short: "List defect classes known to the model",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *application) error {
		return printClasses(cmd.OutOrStdout(), a)
	}),
}

func printClasses(w io.Writer, a *application) error {
	for _, class := range a.app.PredictionService.Classes().Classes() {
		if _, err := fmt.Fprintf(w, "%d\t%s\n", class.Index, class.Name); err != nil {
			return err
		}
	}
	return nil
}
