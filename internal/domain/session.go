package domain

import (
	"errors"
	"time"
)

// ErrNoSession indica que no hay sesión del navegador guardada.
var ErrNoSession = errors.New("no stored session")

// SessionCookie es una cookie del navegador tal como la exporta la consola.
type SessionCookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain,omitempty"`
	Path     string  `json:"path,omitempty"`
	Expiry   float64 `json:"expiry,omitempty"`
	Secure   bool    `json:"secure,omitempty"`
	HTTPOnly bool    `json:"httpOnly,omitempty"`
}

// BrowserSession es el estado persistido del navegador autenticado.
type BrowserSession struct {
	Cookies      []SessionCookie   `json:"cookies"`
	LocalStorage map[string]string `json:"localStorage"`
	SavedAt      time.Time         `json:"-"`
}

// Empty devuelve true si no hay nada que restaurar.
func (s BrowserSession) Empty() bool {
	return len(s.Cookies) == 0 && len(s.LocalStorage) == 0
}
