package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/crewlog/internal/constants"
	"github.com/julianstephens/crewlog/internal/models"
)

func (m Model) View() string {
	if m.screen == screenConfirmLeave {
		return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
			dangerStyle.Render("Leave this job?"),
			"",
			"Your progress is saved on this device and resumes next time.",
			"",
			"(y) leave   (n) keep working",
		))
	}

	header := titleStyle.Render(fmt.Sprintf("Booking %s", m.state.BookingID))
	if m.state.IsActive() {
		header += "  started " + m.state.StartedAt.Local().Format(constants.DateTimeFormat)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", header)
	fmt.Fprintf(&b, "Checklist %d/%d\n", m.state.Checklist.Done(), m.state.Template.TaskCount())

	section := ""
	ledgerStarted := false
	for i, r := range m.rows {
		if r.kind == rowTask && r.section != section {
			section = r.section
			fmt.Fprintf(&b, "  %s\n", sectionStyle.Render(section))
		}
		if r.kind == rowEntry && !ledgerStarted {
			ledgerStarted = true
			fmt.Fprintf(&b, "\nLedger\n")
		}
		b.WriteString(m.viewRow(i, r))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nPhotos queued: %d\n", len(m.state.Photos))
	if m.err != "" {
		fmt.Fprintf(&b, "\n%s\n", warningStyle.Render(m.err))
	}

	return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left, b.String(), m.help.View(m.keys)))
}

func (m Model) viewRow(i int, r row) string {
	pointer := "  "
	if i == m.cursor {
		pointer = cursorStyle.Render("> ")
	}
	switch r.kind {
	case rowTask:
		if m.state.Checklist[r.key] {
			return pointer + "  [x] " + doneStyle.Render(r.label)
		}
		return pointer + "  [ ] " + r.label
	default:
		idx := m.state.Ledger.Index(r.entryID)
		if idx < 0 {
			return pointer + r.label
		}
		e := m.state.Ledger[idx]
		if std, ok := e.(models.StandardExchange); ok {
			return fmt.Sprintf("%s%-24s %2d / %d", pointer, r.label, std.ExchangedQuantity, std.ExpectedQuantity)
		}
		return fmt.Sprintf("%s%-24s %2d  (%s)", pointer, r.label, e.Qty(), e.Kind())
	}
}
