package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		if m.screen == screenConfirmLeave {
			return m.updateConfirmLeave(msg)
		}
		return m.updateWorking(msg)
	}
	return m, nil
}

func (m Model) updateWorking(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = ""
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.sess.HasUnsavedWork() {
			m.screen = screenConfirmLeave
			return m, nil
		}
		m.outcome = OutcomeLeave
		return m, tea.Quit
	case key.Matches(msg, m.keys.Submit):
		m.outcome = OutcomeSubmit
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Toggle):
		if r, ok := m.current(); ok && r.kind == rowTask {
			m.apply(m.sess.ToggleChecklistItem(r.key))
		}
	case key.Matches(msg, m.keys.Inc):
		m.adjust(1)
	case key.Matches(msg, m.keys.Dec):
		m.adjust(-1)
	}
	return m, nil
}

func (m Model) updateConfirmLeave(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.outcome = OutcomeLeave
		return m, tea.Quit
	case "n", "N", "esc":
		m.screen = screenWorking
	}
	return m, nil
}

func (m Model) current() (row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return row{}, false
	}
	return m.rows[m.cursor], true
}

// adjust moves the selected ledger entry's quantity by delta. The session
// clamps the result.
func (m *Model) adjust(delta int) {
	r, ok := m.current()
	if !ok || r.kind != rowEntry {
		return
	}
	i := m.state.Ledger.Index(r.entryID)
	if i < 0 {
		return
	}
	m.apply(m.sess.RecordLedgerQuantity(r.entryID, m.state.Ledger[i].Qty()+delta))
}

func (m *Model) apply(err error) {
	if err != nil {
		m.err = err.Error()
	}
	m.refresh()
}
