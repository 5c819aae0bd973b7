package storage

// sqlite.go: persistencia de la sesión del navegador.
//
//   - `sessions`: UNA fila por nombre (UPSERT). Cookies y localStorage como JSON,
//     tal como los exporta la consola del navegador.
//   - Prune al arrancar: sesiones sin refrescar en 30 días ya no sirven
//     (las cookies de la plataforma caducan antes).

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alejandrodnm/ictbot/internal/domain"
	_ "modernc.org/sqlite"
)

// ErrNoSession indica que no hay sesión guardada con ese nombre.
var ErrNoSession = domain.ErrNoSession

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    name          TEXT PRIMARY KEY,
    cookies       TEXT     NOT NULL DEFAULT '[]',
    local_storage TEXT     NOT NULL DEFAULT '{}',
    saved_at      DATETIME NOT NULL
);
`

const retentionSessions = 30 * 24 * time.Hour

// SQLiteStorage implementa ports.SessionStore usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada.
// Aplica el schema y limpia sesiones caducadas.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// SaveSession guarda (o reemplaza) la sesión con el nombre dado.
func (s *SQLiteStorage) SaveSession(ctx context.Context, name string, session domain.BrowserSession) error {
	if session.Empty() {
		return fmt.Errorf("storage.SaveSession: %q: empty session", name)
	}

	cookies, err := json.Marshal(session.Cookies)
	if err != nil {
		return fmt.Errorf("storage.SaveSession: marshal cookies: %w", err)
	}
	ls := session.LocalStorage
	if ls == nil {
		ls = map[string]string{}
	}
	local, err := json.Marshal(ls)
	if err != nil {
		return fmt.Errorf("storage.SaveSession: marshal localStorage: %w", err)
	}

	savedAt := session.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now()
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (name, cookies, local_storage, saved_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			cookies       = excluded.cookies,
			local_storage = excluded.local_storage,
			saved_at      = excluded.saved_at`,
		name, string(cookies), string(local), savedAt.UTC(),
	); err != nil {
		return fmt.Errorf("storage.SaveSession: upsert %q: %w", name, err)
	}
	return nil
}

// LoadSession devuelve la sesión guardada o ErrNoSession.
func (s *SQLiteStorage) LoadSession(ctx context.Context, name string) (domain.BrowserSession, error) {
	var (
		cookies, local string
		savedAt        time.Time
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT cookies, local_storage, saved_at FROM sessions WHERE name = ?`, name,
	).Scan(&cookies, &local, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.BrowserSession{}, ErrNoSession
	}
	if err != nil {
		return domain.BrowserSession{}, fmt.Errorf("storage.LoadSession: query %q: %w", name, err)
	}

	sess := domain.BrowserSession{SavedAt: savedAt}
	if err := json.Unmarshal([]byte(cookies), &sess.Cookies); err != nil {
		return domain.BrowserSession{}, fmt.Errorf("storage.LoadSession: decode cookies: %w", err)
	}
	if err := json.Unmarshal([]byte(local), &sess.LocalStorage); err != nil {
		return domain.BrowserSession{}, fmt.Errorf("storage.LoadSession: decode localStorage: %w", err)
	}
	return sess, nil
}

// HasSession devuelve true si existe una sesión con ese nombre.
func (s *SQLiteStorage) HasSession(ctx context.Context, name string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sessions WHERE name = ?`, name,
	).Scan(&n); err != nil {
		return false, fmt.Errorf("storage.HasSession: %w", err)
	}
	return n > 0, nil
}

// ImportJSON guarda una sesión exportada desde la consola del navegador:
// {"cookies": [...], "localStorage": {...}}.
func (s *SQLiteStorage) ImportJSON(ctx context.Context, name string, data []byte) error {
	var sess domain.BrowserSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return fmt.Errorf("storage.ImportJSON: decode: %w", err)
	}
	if err := s.SaveSession(ctx, name, sess); err != nil {
		return fmt.Errorf("storage.ImportJSON: %w", err)
	}
	return nil
}

// RestoreFromBase64 importa una sesión codificada en base64 (SESSION_B64) solo
// si todavía no existe ninguna. Devuelve true si importó.
func (s *SQLiteStorage) RestoreFromBase64(ctx context.Context, name, encoded string) (bool, error) {
	if encoded == "" {
		return false, nil
	}
	exists, err := s.HasSession(ctx, name)
	if err != nil {
		return false, fmt.Errorf("storage.RestoreFromBase64: %w", err)
	}
	if exists {
		return false, nil
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return false, fmt.Errorf("storage.RestoreFromBase64: decode base64: %w", err)
	}
	if err := s.ImportJSON(ctx, name, data); err != nil {
		return false, fmt.Errorf("storage.RestoreFromBase64: %w", err)
	}
	return true, nil
}

// Close cierra la conexión a la base de datos limpiamente.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// pruneOld elimina sesiones que ya no pueden restaurar un login.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retentionSessions)
	_, _ = s.db.ExecContext(ctx, `DELETE FROM sessions WHERE saved_at < ?`, cutoff)
}
