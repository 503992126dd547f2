package main

import (
	"context"
	"fmt"
	"log"
	"net/url"

	"github.com/jonathan/meucv/internal/config"
	"github.com/jonathan/meucv/internal/editor"
	"github.com/jonathan/meucv/internal/notify"
	"github.com/jonathan/meucv/internal/server"
	"github.com/jonathan/meucv/internal/storage"
	"github.com/spf13/cobra"
)

var (
	servePort       int
	serveConfigPath string
	serveStorageURL string
	serveLocale     string
	serveOrigins    []string
	serveVerbose    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the editing session: section updates, autosave, score, preview and saved résumés.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default 8080)")
	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "", "Path to JSON config file")
	serveCmd.Flags().StringVar(&serveStorageURL, "storage-url", "", "Storage backend URL (memory://, file:///dir, postgres://, redis://, s3://)")
	serveCmd.Flags().StringVar(&serveLocale, "locale", "", "Interface language before preferences are saved (pt or en)")
	serveCmd.Flags().BoolVarP(&serveVerbose, "verbose", "v", false, "Log with microsecond timestamps and source locations")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "allowed-origins", nil, "CORS allowed origins (default *)")
	rootCmd.AddCommand(serveCmd)
}

// loadServeConfig layers flags over the environment over the config file over defaults.
func loadServeConfig() (config.Config, error) {
	base := config.Default()
	verbose := serveVerbose
	if serveConfigPath != "" {
		fileCfg, err := config.LoadConfig(serveConfigPath)
		if err != nil {
			return config.Config{}, err
		}
		base = fileCfg.MergeWithDefaults(base)
		verbose = verbose || fileCfg.Verbose
	}

	envCfg, err := config.FromEnv()
	if err != nil {
		return config.Config{}, err
	}
	merged := envCfg.MergeWithDefaults(base)

	flags := config.Config{Port: servePort, StorageURL: serveStorageURL, Locale: serveLocale}
	cfg := flags.MergeWithDefaults(merged)
	cfg.Verbose = verbose

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadServeConfig()
	if err != nil {
		return err
	}

	if cfg.Verbose {
		log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	backend, err := storage.Open(ctx, cfg.StorageURL)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}

	toasts := notify.NewRecorder(0)
	session, err := editor.Open(ctx, editor.Config{
		Backend:         backend,
		Key:             cfg.Key,
		Delay:           cfg.AutosaveDelay(),
		Sink:            notify.Multi{notify.LogSink{}, toasts},
		MaxHints:        cfg.Hints(),
		PreviewTemplate: cfg.PreviewTemplate,
		Locale:          cfg.Lang(),
	})
	if err != nil {
		_ = backend.Close()
		return fmt.Errorf("failed to open editing session: %w", err)
	}
	log.Printf("[serve] storage=%s key=%s autosave=%s", redactURL(cfg.StorageURL), session.DocumentKey(), cfg.AutosaveDelay())

	srv, err := server.New(server.Config{
		Port:           cfg.Port,
		Session:        session,
		Backend:        backend,
		Toasts:         toasts,
		AllowedOrigins: serveOrigins,
	})
	if err != nil {
		_ = session.Close(ctx)
		_ = backend.Close()
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}

// redactURL hides the password of a storage URL for logging.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid>"
	}
	return u.Redacted()
}
