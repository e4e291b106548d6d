package ui

import (
	"strings"

	"keita/internal/notify"
)

// RenderToasts renders the active toast stack, newest last. Each toast is a
// single padded line colored by severity.
func RenderToasts(s Styles, toasts []notify.Toast) string {
	if len(toasts) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, t := range toasts {
		base := s.Toast
		switch t.Severity {
		case notify.SeveritySuccess:
			base = base.Background(Success)
		case notify.SeverityError:
			base = base.Background(Destructive)
		default:
			base = base.Background(Info)
		}
		sb.WriteString(base.Render(t.Message))
		if i < len(toasts)-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
