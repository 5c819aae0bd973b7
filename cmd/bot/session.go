package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/alejandrodnm/ictbot/config"
	"github.com/alejandrodnm/ictbot/internal/adapters/quotex"
)

// runLoginHelper abre un navegador visible, espera a que el usuario haga login
// a mano y guarda la sesión resultante.
func runLoginHelper(ctx context.Context, cfg *config.Config) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	browser, err := quotex.NewBrowser(ctx, browserConfig(cfg, false), store)
	if err != nil {
		return err
	}
	defer browser.Close()

	if err := browser.Navigate(ctx); err != nil {
		return err
	}

	fmt.Println("Browser opened. Log in to the platform, wait for the dashboard, then press Enter here.")
	done := make(chan struct{})
	go func() {
		_, _ = bufio.NewReader(os.Stdin).ReadString('\n')
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
	}

	if err := browser.SaveSession(ctx); err != nil {
		return err
	}
	fmt.Println("Session saved.")
	return nil
}

// runImportSession guarda en el store un JSON {cookies, localStorage} exportado
// desde la consola del navegador.
func runImportSession(ctx context.Context, cfg *config.Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %q: %w", path, err)
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.ImportJSON(ctx, cfg.Quotex.SessionName, data); err != nil {
		return err
	}
	slog.Info("session imported", "file", path, "name", cfg.Quotex.SessionName, "dsn", cfg.Storage.DSN)
	return nil
}
