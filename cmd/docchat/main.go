package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/mohamedaboabdallah/Q-A-using-RAG/internal/api"
	"github.com/mohamedaboabdallah/Q-A-using-RAG/internal/chat"
	"github.com/mohamedaboabdallah/Q-A-using-RAG/internal/config"
	"github.com/mohamedaboabdallah/Q-A-using-RAG/internal/files"
	"github.com/mohamedaboabdallah/Q-A-using-RAG/internal/logging"
	"github.com/mohamedaboabdallah/Q-A-using-RAG/internal/session"
	"github.com/mohamedaboabdallah/Q-A-using-RAG/internal/store"
	"github.com/mohamedaboabdallah/Q-A-using-RAG/internal/tui"
	"github.com/mohamedaboabdallah/Q-A-using-RAG/internal/upload"
)

const version = "1.0.0"

var (
	flagConfig  string
	flagBaseURL string
	flagDataDir string
)

func main() {
	root := &cobra.Command{
		Use:     "docchat",
		Short:   "Chat with your uploaded documents",
		Long:    "docchat is an interactive client for a retrieval-augmented document-QA service.\n\nLog in or register, upload txt/pdf/doc/docx documents, and ask questions about them.",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}

	root.Flags().StringVar(&flagConfig, "config", "", "path to config file (default: user config dir)")
	root.Flags().StringVar(&flagBaseURL, "base-url", "", "backend base URL (overrides config)")
	root.Flags().StringVar(&flagDataDir, "data-dir", "", "local state directory (overrides config)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flagConfig
	if configPath == "" {
		configPath = config.DefaultConfigPath()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if flagBaseURL != "" {
		cfg.BaseURL = flagBaseURL
	}
	if flagDataDir != "" {
		cfg.DataDir = flagDataDir
	}

	logger, logFile, err := logging.OpenFile(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer logFile.Close()

	snapshots, closeStore, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}
	defer closeStore()

	sessions := session.NewManager(snapshots, logger)
	sessions.Restore()

	client := api.NewClient(cfg.BaseURL, cfg.RequestTimeout(), cfg.UploadTimeout(), sessions, logger)
	client.SetOnUnauthorized(sessions.Invalidate)

	pipeline := upload.NewPipeline(upload.Limits{
		MaxFileSizeBytes:  cfg.MaxFileSizeBytes,
		AllowedExtensions: cfg.AllowedExtensions,
	})
	registry := files.NewRegistry(client, logger)

	conversation := chat.NewLog(snapshots, client)
	conversation.Load()

	app := tui.New(tui.Deps{
		Config:   cfg,
		Client:   client,
		Sessions: sessions,
		Pipeline: pipeline,
		Registry: registry,
		Log:      conversation,
		Store:    snapshots,
		Logger:   logger,
	})

	logger.Info("starting", map[string]interface{}{"base_url": cfg.BaseURL, "storage": cfg.Storage})
	if _, err := tea.NewProgram(app, tea.WithAltScreen()).Run(); err != nil {
		return err
	}
	return nil
}

func openStore(cfg config.Config) (store.Store, func(), error) {
	if cfg.Storage == "sqlite" {
		st, err := store.NewSQLiteStore(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return st, func() { st.Close() }, nil
	}
	st, err := store.NewFileStore(cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}
	return st, func() {}, nil
}
