package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/alejandrodnm/ictbot/config"
	"github.com/alejandrodnm/ictbot/internal/adapters/notify"
	"github.com/alejandrodnm/ictbot/internal/adapters/quotex"
	"github.com/alejandrodnm/ictbot/internal/adapters/storage"
	"github.com/alejandrodnm/ictbot/internal/adapters/telegram"
	"github.com/alejandrodnm/ictbot/internal/metrics"
	"github.com/alejandrodnm/ictbot/internal/ports"
	"github.com/alejandrodnm/ictbot/internal/scanner"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one cycle ignoring kill zones, print the result and exit")
	dryRun := flag.Bool("dry-run", false, "print signals to the console instead of sending them to Telegram")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print a full table per cycle (default: compact 1-line)")
	login := flag.Bool("login", false, "open a visible browser, log in manually and save the session")
	importSession := flag.String("import-session", "", "import a session JSON exported from the browser console")
	testTelegram := flag.Bool("test-telegram", false, "send a connectivity message to Telegram and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	closeLog := setupLogger(cfg.Log)
	defer closeLog()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch {
	case *testTelegram:
		exitOn(runTelegramTest(ctx, cfg))
		return
	case *importSession != "":
		exitOn(runImportSession(ctx, cfg, *importSession))
		return
	case *login:
		exitOn(runLoginHelper(ctx, cfg))
		return
	}

	exitOn(run(ctx, cfg, *once, *dryRun, *table))
	slog.Info("ictbot stopped cleanly")
}

// run arranca el navegador, resuelve los instrumentos y ejecuta el scanner.
func run(ctx context.Context, cfg *config.Config, once, dryRun, table bool) error {
	if cfg.Quotex.Email == "" || cfg.Quotex.Password == "" {
		return errors.New("QUOTEX_EMAIL and QUOTEX_PASSWORD are required")
	}
	if !dryRun && !once && (cfg.Telegram.Token == "" || cfg.Telegram.ChatID == "") {
		return errors.New("TELEGRAM_TOKEN and TELEGRAM_CHAT_ID are required (or use -dry-run)")
	}

	calendar, err := cfg.Calendar()
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	browser, err := quotex.NewBrowser(ctx, browserConfig(cfg, cfg.Quotex.Headless), store)
	if err != nil {
		return err
	}
	defer browser.Close()

	if !browser.IsAuthenticated(ctx) {
		if err := browser.Reauthenticate(ctx); err != nil {
			return err
		}
	}

	instruments, err := scanner.ResolveInstruments(ctx, cfg.InstrumentList(), browser)
	if err != nil {
		return err
	}

	console := notify.NewConsole(table)
	var deliverer ports.Deliverer = console
	if !dryRun {
		deliverer = telegram.NewClient(cfg.Telegram.BaseURL, cfg.Telegram.Token, cfg.Telegram.ChatID)
	}

	scanCfg := scannerConfig(cfg)
	scanCfg.Calendar = calendar
	scanCfg.Expiry.Location = calendar.Location

	s := scanner.New(scanCfg, instruments, browser, browser, deliverer, scanner.SystemClock{Location: calendar.Location})
	if table || once {
		s.SetReporter(console)
	}

	if cfg.Metrics.Addr != "" {
		rec := metrics.New()
		s.SetMetrics(rec)
		srv := serveMetrics(cfg.Metrics.Addr, rec)
		defer srv.Shutdown(context.Background())
	}

	slog.Info("ictbot starting",
		"instruments", len(instruments),
		"dry_run", dryRun,
		"once", once,
		"tz", calendar.Location.String(),
	)

	if once {
		report, err := s.RunOnce(ctx)
		if err != nil {
			return err
		}
		if report.Winner != nil {
			return console.Deliver(ctx, *report.Winner)
		}
		return nil
	}
	return s.Run(ctx)
}

func scannerConfig(cfg *config.Config) scanner.Config {
	sc := scanner.DefaultConfig()
	sc.OutsideWindowInterval = config.Seconds(cfg.Scanner.OutsideWindowSeconds)
	sc.AuthBackoff = config.Seconds(cfg.Scanner.AuthBackoffSeconds)
	sc.NoSignalBackoff = config.Seconds(cfg.Scanner.NoSignalSeconds)
	sc.Cooldown = config.Seconds(cfg.Scanner.CooldownSeconds)
	sc.CallTimeout = config.Seconds(cfg.Scanner.CallTimeoutSeconds)
	sc.AuthTimeout = config.Seconds(cfg.Scanner.AuthTimeoutSeconds)
	sc.MinPublishScore = cfg.Scanner.MinPublishScore
	sc.CoarseCount = cfg.Scanner.CoarseCount
	sc.FineCount = cfg.Scanner.FineCount
	return sc
}

func browserConfig(cfg *config.Config, headless bool) quotex.Config {
	bc := quotex.Config{
		TradeURL:         cfg.Quotex.BaseURL,
		Email:            cfg.Quotex.Email,
		Password:         cfg.Quotex.Password,
		Headless:         headless,
		ChromePath:       cfg.Quotex.ChromePath,
		SessionName:      cfg.Quotex.SessionName,
		Wait:             config.Seconds(cfg.Quotex.WaitSeconds),
		ScrapesPerMinute: cfg.Quotex.ScrapesPerMin,
	}
	// Sin terminal (servidor headless) no hay quien escriba el código 2FA.
	if !headless {
		bc.Prompter = quotex.StdinPrompter{In: os.Stdin, Out: os.Stdout}
	}
	return bc
}

// openStore abre el store de sesiones e importa SESSION_B64 si no hay sesión.
func openStore(ctx context.Context, cfg *config.Config) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		return nil, err
	}
	imported, err := store.RestoreFromBase64(ctx, cfg.Quotex.SessionName, cfg.Quotex.SessionB64)
	if err != nil {
		slog.Warn("SESSION_B64 not imported", "err", err)
	} else if imported {
		slog.Info("session restored from SESSION_B64")
	}
	return store, nil
}

func serveMetrics(addr string, rec *metrics.Recorder) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", rec.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "err", err, "addr", addr)
		}
	}()
	slog.Info("metrics endpoint listening", "addr", addr)
	return srv
}

func exitOn(err error) {
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	slog.Error("ictbot exited with error", "err", err)
	os.Exit(1)
}

// setupLogger configura slog hacia stdout y, si log.file está definido, también
// a un archivo rotado. Devuelve la función que cierra el archivo.
func setupLogger(cfg config.LogConfig) func() {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var out io.Writer = os.Stdout
	closeFn := func() {}
	if cfg.File != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    10, // MB
			MaxBackups: 5,
			MaxAge:     30, // días
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, file)
		closeFn = func() { _ = file.Close() }
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	slog.SetDefault(slog.New(handler))
	return closeFn
}
