package quotex

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/alejandrodnm/ictbot/internal/domain"
)

const balanceCheckTimeout = 10 * time.Second

// CodePrompter obtiene el código 2FA que la plataforma envía por email.
type CodePrompter interface {
	PromptCode(ctx context.Context) (string, error)
}

// StdinPrompter pide el código por terminal.
type StdinPrompter struct {
	In  io.Reader
	Out io.Writer
}

// PromptCode escribe el aviso y lee una línea, respetando ctx.
func (p StdinPrompter) PromptCode(ctx context.Context) (string, error) {
	fmt.Fprint(p.Out, "Enter the email verification code: ")

	type result struct {
		code string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := bufio.NewReader(p.In).ReadString('\n')
		if err != nil && line == "" {
			ch <- result{err: err}
			return
		}
		ch <- result{code: strings.TrimSpace(line)}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return "", r.err
		}
		if r.code == "" {
			return "", errors.New("empty verification code")
		}
		return r.code, nil
	}
}

// IsAuthenticated implementa ports.Session: el saldo solo aparece tras el login.
func (b *Browser) IsAuthenticated(ctx context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hasBalance(ctx, balanceCheckTimeout)
}

func (b *Browser) hasBalance(ctx context.Context, timeout time.Duration) bool {
	return b.run(ctx, timeout, chromedp.WaitReady(selBalance, chromedp.ByQuery)) == nil
}

// Reauthenticate implementa ports.Session: primero restaura la sesión guardada
// y, si no basta, hace login con credenciales (y 2FA) y guarda la sesión nueva.
func (b *Browser) Reauthenticate(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = ""

	restored, err := b.restoreSession(ctx)
	if err != nil {
		slog.Warn("stored session not restored", "err", err)
	}
	if restored {
		slog.Info("session restored from store", "name", b.cfg.SessionName)
		return nil
	}

	if b.cfg.Email == "" || b.cfg.Password == "" {
		return fmt.Errorf("quotex.Reauthenticate: no credentials: %w", ErrNotLoggedIn)
	}
	if err := b.login(ctx); err != nil {
		return fmt.Errorf("quotex.Reauthenticate: %w", err)
	}
	if err := b.saveSession(ctx); err != nil {
		slog.Warn("session not saved after login", "err", err)
	}
	return nil
}

// restoreSession carga cookies y localStorage guardados y recarga la página.
func (b *Browser) restoreSession(ctx context.Context) (bool, error) {
	if b.store == nil {
		return false, nil
	}
	sess, err := b.store.LoadSession(ctx, b.cfg.SessionName)
	if errors.Is(err, domain.ErrNoSession) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	actions := []chromedp.Action{
		chromedp.Navigate(b.cfg.TradeURL),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return network.SetCookies(toCookieParams(sess.Cookies, b.cfg.TradeURL)).Do(ctx)
		}),
	}
	for k, v := range sess.LocalStorage {
		var ok bool
		actions = append(actions, chromedp.Evaluate(setLocalStorageScript(k, v), &ok))
	}
	actions = append(actions, chromedp.Reload())

	if err := b.run(ctx, b.cfg.Wait, actions...); err != nil {
		return false, fmt.Errorf("apply session: %w", err)
	}
	return b.hasBalance(ctx, balanceCheckTimeout), nil
}

// login rellena el formulario y, si aparece, el campo del código 2FA.
func (b *Browser) login(ctx context.Context) error {
	err := b.run(ctx, b.cfg.Wait,
		chromedp.Navigate(b.cfg.SignInURL()),
		chromedp.WaitVisible(selEmail, chromedp.ByQuery),
		chromedp.SetValue(selEmail, "", chromedp.ByQuery),
		chromedp.SendKeys(selEmail, b.cfg.Email, chromedp.ByQuery),
		chromedp.SetValue(selPassword, "", chromedp.ByQuery),
		chromedp.SendKeys(selPassword, b.cfg.Password, chromedp.ByQuery),
		chromedp.Click(selSubmit, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("login form: %w", err)
	}

	if b.run(ctx, 10*time.Second, chromedp.WaitVisible(selCode, chromedp.ByQuery)) == nil {
		if err := b.submitCode(ctx); err != nil {
			return err
		}
	}

	if !b.hasBalance(ctx, b.cfg.Wait) {
		return ErrNotLoggedIn
	}
	slog.Info("logged in with credentials")
	return nil
}

func (b *Browser) submitCode(ctx context.Context) error {
	if b.cfg.Prompter == nil {
		return fmt.Errorf("verification code required but no prompter configured: %w", ErrNotLoggedIn)
	}
	code, err := b.cfg.Prompter.PromptCode(ctx)
	if err != nil {
		return fmt.Errorf("read verification code: %w", err)
	}
	err = b.run(ctx, b.cfg.Wait,
		chromedp.SetValue(selCode, "", chromedp.ByQuery),
		chromedp.SendKeys(selCode, code, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("enter verification code: %w", err)
	}
	// Algunas variantes del formulario envían el código solas.
	_ = b.run(ctx, 5*time.Second, chromedp.Click(selSubmit, chromedp.ByQuery))
	return nil
}

// SaveSession guarda cookies y localStorage actuales en el store.
func (b *Browser) SaveSession(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.saveSession(ctx); err != nil {
		return fmt.Errorf("quotex.SaveSession: %w", err)
	}
	return nil
}

// Navigate abre la página de trading (usado por el helper de login manual).
func (b *Browser) Navigate(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.run(ctx, b.cfg.Wait, chromedp.Navigate(b.cfg.TradeURL))
}

func (b *Browser) saveSession(ctx context.Context) error {
	if b.store == nil {
		return errors.New("no session store")
	}

	var (
		cookies []*network.Cookie
		local   map[string]string
	)
	err := b.run(ctx, b.cfg.Wait,
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			cookies, err = network.GetCookies().Do(ctx)
			return err
		}),
		chromedp.Evaluate(readLocalStorageScript, &local),
	)
	if err != nil {
		return fmt.Errorf("read browser state: %w", err)
	}

	sess := domain.BrowserSession{
		Cookies:      fromCookies(cookies),
		LocalStorage: local,
		SavedAt:      time.Now(),
	}
	if err := b.store.SaveSession(ctx, b.cfg.SessionName, sess); err != nil {
		return err
	}
	slog.Info("session saved", "name", b.cfg.SessionName, "cookies", len(sess.Cookies), "local_storage", len(sess.LocalStorage))
	return nil
}

// toCookieParams convierte las cookies guardadas al formato de CDP. Las que no
// traen dominio se asocian a pageURL.
func toCookieParams(cookies []domain.SessionCookie, pageURL string) []*network.CookieParam {
	out := make([]*network.CookieParam, 0, len(cookies))
	for _, c := range cookies {
		p := &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
		}
		if c.Domain == "" {
			p.URL = pageURL
		}
		if c.Expiry > 0 {
			exp := cdp.TimeSinceEpoch(time.Unix(int64(c.Expiry), 0))
			p.Expires = &exp
		}
		out = append(out, p)
	}
	return out
}

// fromCookies convierte las cookies de CDP al formato persistido.
// Las cookies de sesión (Expires ≤ 0) no llevan expiry.
func fromCookies(cookies []*network.Cookie) []domain.SessionCookie {
	out := make([]domain.SessionCookie, 0, len(cookies))
	for _, c := range cookies {
		if c == nil {
			continue
		}
		sc := domain.SessionCookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
		}
		if c.Expires > 0 {
			sc.Expiry = c.Expires
		}
		out = append(out, sc)
	}
	return out
}
