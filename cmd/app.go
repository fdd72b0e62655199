package cmd

import (
	"fmt"

	"github.com/marchholm/sage/pkg/api"
	"github.com/marchholm/sage/pkg/attachments"
	"github.com/marchholm/sage/pkg/config"
	"github.com/marchholm/sage/pkg/controllers"
	"github.com/marchholm/sage/pkg/logger"
	"github.com/marchholm/sage/pkg/tui"
)

// RunApplication wires config, logging, the API client, and the chat
// controller together and starts the terminal UI
func RunApplication() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Close()

	logger.Info("Application starting")

	client := api.NewClient(cfg.Server.URL, cfg.Server.Token)

	controller := controllers.NewChatController(client, cfg.Chat.Model)
	controller.SetFacilityType(cfg.Chat.FacilityType)

	manager := attachments.NewManager(
		client,
		cfg.Uploads.AllowedExtensions,
		cfg.Uploads.MaxBytes,
	)
	controller.SetAttachments(manager)

	app, err := tui.NewApp(controller, manager, cfg.Chat.TokenLimit)
	if err != nil {
		return fmt.Errorf("failed to create TUI application: %w", err)
	}

	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI application error: %w", err)
	}

	logger.Info("Application shutting down")
	return nil
}

// newClient builds an API client for one-shot subcommands, loading config
// and logging first
func newClient() (*api.Client, *config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return api.NewClient(cfg.Server.URL, cfg.Server.Token), cfg, nil
}
