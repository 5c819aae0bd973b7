package quotex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"golang.org/x/time/rate"

	"github.com/alejandrodnm/ictbot/internal/domain"
	"github.com/alejandrodnm/ictbot/internal/ports"
)

const (
	defaultTradeURL = "https://qxbroker.com/en/trade"

	// Oculta navigator.webdriver en cada documento nuevo.
	stealthScript = `Object.defineProperty(navigator, 'webdriver', {get: () => undefined})`
)

// ErrNotLoggedIn indica que no se pudo establecer una sesión autenticada.
var ErrNotLoggedIn = errors.New("quotex: not logged in")

// Config controla el navegador y el login.
type Config struct {
	TradeURL         string
	Email            string
	Password         string
	Headless         bool
	ChromePath       string
	SessionName      string
	Wait             time.Duration // espera máxima de elementos del DOM
	ScrapesPerMinute int
	Prompter         CodePrompter // lector del código 2FA; nil = sin 2FA interactivo
}

// SignInURL deriva la página de login a partir de la de trading.
func (c Config) SignInURL() string {
	base := strings.TrimSuffix(strings.TrimRight(c.TradeURL, "/"), "/trade")
	return base + "/sign-in"
}

// Browser automatiza una pestaña de Chrome sobre la plataforma.
// Implementa ports.CandleProvider, ports.Session y ports.InstrumentLister.
// Todas las operaciones se serializan: hay una sola pestaña.
type Browser struct {
	cfg     Config
	store   ports.SessionStore
	limiter *rate.Limiter

	ctx         context.Context // contexto de la pestaña
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc

	mu      sync.Mutex
	current domain.Instrument // par activo en el gráfico
}

// NewBrowser arranca Chrome y abre la página de trading.
func NewBrowser(ctx context.Context, cfg Config, store ports.SessionStore) (*Browser, error) {
	if cfg.TradeURL == "" {
		cfg.TradeURL = defaultTradeURL
	}
	if cfg.SessionName == "" {
		cfg.SessionName = "quotex"
	}
	if cfg.Wait <= 0 {
		cfg.Wait = 30 * time.Second
	}
	if cfg.ScrapesPerMinute <= 0 {
		cfg.ScrapesPerMinute = 30
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1280, 900),
	)
	if cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ChromePath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(func(format string, args ...any) {
			slog.Debug("chromedp", "msg", fmt.Sprintf(format, args...))
		}),
	)

	b := &Browser{
		cfg:         cfg,
		store:       store,
		limiter:     rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.ScrapesPerMinute)), 1),
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
	}

	err := b.run(ctx, cfg.Wait,
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
			return err
		}),
		chromedp.Navigate(cfg.TradeURL),
	)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("quotex.NewBrowser: start chrome: %w", err)
	}

	slog.Info("browser started", "headless", cfg.Headless, "url", cfg.TradeURL)
	return b, nil
}

// Close cierra la pestaña y el proceso de Chrome.
func (b *Browser) Close() {
	b.cancelTab()
	b.cancelAlloc()
}

// run ejecuta acciones en la pestaña con un timeout, cancelándolas también
// si ctx termina antes.
func (b *Browser) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(b.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}
