package notify

import (
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var brPrinter = message.NewPrinter(language.BrazilianPortuguese)

func firstName(full string) string {
	fields := strings.Fields(full)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006")
}

func formatClock(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("15:04")
}

// formatMoney renders a BRL amount, e.g. R$ 1.234,50.
func formatMoney(v float64) string {
	return "R$ " + brPrinter.Sprintf("%.2f", v)
}

func truncateText(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "…"
}

// occurrenceTypeLabel turns the stored type into the wording residents see.
func occurrenceTypeLabel(t string) string {
	switch strings.ToLower(t) {
	case "multa", "fine":
		return "Multa"
	case "advertencia", "advertência", "warning":
		return "Advertência"
	case "notificacao", "notificação", "notice":
		return "Notificação"
	}
	if t == "" {
		return "Ocorrência"
	}
	return t
}
