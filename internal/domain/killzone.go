package domain

import (
	"fmt"
	"sync"
	"time"
)

// TehranZone es el nombre IANA de la zona del calendario.
const TehranZone = "Asia/Tehran"

var (
	tehranOnce sync.Once
	tehranLoc  *time.Location
)

// TehranLocation devuelve la zona horaria del proceso. Si la base tz no está
// disponible usa el offset fijo +03:30 (Irán no aplica horario de verano desde 2022).
func TehranLocation() *time.Location {
	tehranOnce.Do(func() {
		loc, err := time.LoadLocation(TehranZone)
		if err != nil {
			loc = time.FixedZone("IRST", 3*3600+30*60)
		}
		tehranLoc = loc
	})
	return tehranLoc
}

// TimeOfDay es la duración transcurrida desde la medianoche local.
type TimeOfDay time.Duration

// ClockOf devuelve la hora del día de t en su propia location, con segundos.
func ClockOf(t time.Time) TimeOfDay {
	h, m, s := t.Clock()
	return TimeOfDay(time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(t.Nanosecond()))
}

// At construye un TimeOfDay a partir de hora y minuto.
func At(hour, minute int) TimeOfDay {
	return TimeOfDay(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

// ParseTimeOfDay parsea "HH:MM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("domain.ParseTimeOfDay: %q: %w", s, err)
	}
	return At(t.Hour(), t.Minute()), nil
}

// String devuelve "HH:MM".
func (t TimeOfDay) String() string {
	d := time.Duration(t)
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}

// KillZone es una ventana horaria favorable, inclusiva en ambos extremos.
type KillZone struct {
	Name  string
	Start TimeOfDay
	End   TimeOfDay
}

// Contains devuelve true si tod está en [Start, End].
func (k KillZone) Contains(tod TimeOfDay) bool {
	return tod >= k.Start && tod <= k.End
}

// Calendar es el conjunto ordenado y de solo lectura de kill zones del proceso.
type Calendar struct {
	Zones    []KillZone
	Location *time.Location
}

// DefaultCalendar devuelve las sesiones OTC en hora de Teherán.
func DefaultCalendar() Calendar {
	return Calendar{
		Zones: []KillZone{
			{Name: "asia", Start: At(4, 30), End: At(7, 30)},
			{Name: "london", Start: At(11, 30), End: At(14, 30)},
			{Name: "new_york", Start: At(16, 30), End: At(19, 30)},
		},
		Location: TehranLocation(),
	}
}

// ZoneAt devuelve la primera kill zone que contiene t.
func (c Calendar) ZoneAt(t time.Time) (KillZone, bool) {
	if c.Location != nil {
		t = t.In(c.Location)
	}
	tod := ClockOf(t)
	for _, z := range c.Zones {
		if z.Contains(tod) {
			return z, true
		}
	}
	return KillZone{}, false
}

// Contains devuelve true si t cae dentro de alguna kill zone.
func (c Calendar) Contains(t time.Time) bool {
	_, ok := c.ZoneAt(t)
	return ok
}
