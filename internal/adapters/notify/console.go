package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/ictbot/internal/domain"
)

// Console implementa ports.Deliverer y ports.CycleReporter escribiendo a un io.Writer.
// Se usa en modo dry-run y con -once.
type Console struct {
	out      io.Writer
	table    bool
	location *time.Location
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(table bool) *Console {
	return NewConsoleWriter(os.Stdout, table)
}

// NewConsoleWriter crea un notificador sobre un writer arbitrario (tests).
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table, location: domain.TehranLocation()}
}

// Deliver imprime la señal ganadora.
func (c *Console) Deliver(_ context.Context, sig domain.Signal) error {
	ts := sig.Time.In(c.location).Format("15:04:05")
	if !c.table {
		fmt.Fprintf(c.out, "[%s] SIGNAL %s %s %dm score:%d %s\n",
			ts, sig.Instrument, sig.Direction, sig.ExpiryMinutes, sig.Score, sig.ReasonText())
		return nil
	}

	fmt.Fprintf(c.out, "\n[%s] === SIGNAL ===\n", ts)
	table := tablewriter.NewWriter(c.out)
	table.Header("Pair", "Direction", "Expiry", "Score", "Reason")
	table.Append(
		string(sig.Instrument),
		sig.Direction.String(),
		fmt.Sprintf("%d min", sig.ExpiryMinutes),
		fmt.Sprintf("%d", sig.Score),
		sig.ReasonText(),
	)
	table.Render()
	return nil
}

// ReportCycle imprime el resumen de un ciclo, incluidas las evaluaciones que
// no llegaron a señal (ej. el suelo débil de 50).
func (c *Console) ReportCycle(_ context.Context, report domain.CycleReport) error {
	ts := report.StartedAt.In(c.location).Format("15:04:05")

	if !c.table {
		c.printCompact(ts, report)
		return nil
	}

	fmt.Fprintf(c.out, "\n[%s] cycle: %d instruments in %s\n",
		ts, len(report.Evaluations), report.Duration.Round(time.Millisecond))

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Pair", "OB", "FVG", "Sweep", "BOS", "Engulf", "KZ", "Score", "Note")
	for i, ev := range report.Evaluations {
		table.Append(
			fmt.Sprintf("%d", i+1),
			string(ev.Instrument),
			mark(ev.Flags.OrderBlock),
			mark(ev.Flags.FairValueGap),
			mark(ev.Flags.LiquiditySweep),
			mark(ev.Flags.BreakOfStructure),
			ev.Flags.Engulfing.String(),
			mark(ev.InKillZone),
			fmt.Sprintf("%d", ev.Score),
			note(ev, report.Winner),
		)
	}
	table.Render()

	if report.Winner == nil {
		fmt.Fprintln(c.out, "  no signal this cycle")
	}
	return nil
}

// printCompact imprime lo esencial en una línea.
func (c *Console) printCompact(ts string, report domain.CycleReport) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %d pairs", ts, len(report.Evaluations))

	best := 0
	skipped := 0
	for _, ev := range report.Evaluations {
		if ev.Skipped != "" {
			skipped++
			continue
		}
		best = max(best, ev.Score)
	}
	fmt.Fprintf(&sb, " best:%d skipped:%d", best, skipped)

	if w := report.Winner; w != nil {
		fmt.Fprintf(&sb, " → %s %s %d", w.Instrument, w.Direction, w.Score)
	} else {
		sb.WriteString(" → no signal")
	}
	fmt.Fprintln(c.out, sb.String())
}

func mark(b bool) string {
	if b {
		return "x"
	}
	return "-"
}

func note(ev domain.Evaluation, winner *domain.Signal) string {
	switch {
	case ev.Skipped != "":
		return ev.Skipped
	case winner != nil && winner.Instrument == ev.Instrument:
		return "WINNER"
	case ev.Score == domain.ScoreWeak:
		return "weak"
	default:
		return ""
	}
}
