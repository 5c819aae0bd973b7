package ports

import "time"

// Clock es la fuente de tiempo del scanner. Inyectable para tests.
type Clock interface {
	Now() time.Time
}
