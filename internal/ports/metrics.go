package ports

import (
	"time"

	"github.com/alejandrodnm/ictbot/internal/domain"
)

// Metrics registra la actividad del scanner. Un nil Metrics desactiva el registro.
type Metrics interface {
	RecordTick(state string)
	RecordEvaluation(ev domain.Evaluation)
	RecordSignal(sig domain.Signal)
	RecordDeliveryFailure(channel string)
	RecordAuthFailure()
	ObserveCycle(d time.Duration)
}
