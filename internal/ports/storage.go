package ports

import (
	"context"

	"github.com/alejandrodnm/ictbot/internal/domain"
)

// SessionStore persiste la sesión del navegador (cookies + localStorage).
// El core nunca la lee: solo la usa la capa de automatización.
type SessionStore interface {
	// SaveSession guarda (o reemplaza) la sesión con el nombre dado.
	SaveSession(ctx context.Context, name string, session domain.BrowserSession) error

	// LoadSession devuelve la sesión guardada o domain.ErrNoSession.
	LoadSession(ctx context.Context, name string) (domain.BrowserSession, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
