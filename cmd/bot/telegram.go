package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/alejandrodnm/ictbot/config"
	"github.com/alejandrodnm/ictbot/internal/adapters/telegram"
)

// runTelegramTest envía un mensaje de prueba para validar token y chat id.
func runTelegramTest(ctx context.Context, cfg *config.Config) error {
	if cfg.Telegram.Token == "" || cfg.Telegram.ChatID == "" {
		return errors.New("set TELEGRAM_TOKEN and TELEGRAM_CHAT_ID in .env first")
	}
	client := telegram.NewClient(cfg.Telegram.BaseURL, cfg.Telegram.Token, cfg.Telegram.ChatID)
	if err := client.SendText(ctx, "Test OK: the Telegram bot is connected."); err != nil {
		return err
	}
	slog.Info("test message sent", "chat_id", cfg.Telegram.ChatID)
	return nil
}
