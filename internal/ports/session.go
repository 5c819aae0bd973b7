package ports

import "context"

// Session representa la sesión autenticada en la plataforma de trading.
type Session interface {
	// IsAuthenticated comprueba si la sesión sigue viva.
	IsAuthenticated(ctx context.Context) bool

	// Reauthenticate intenta recuperar la sesión (sesión guardada o login).
	Reauthenticate(ctx context.Context) error
}
