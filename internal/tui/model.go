// Package tui is the operative's work-session screen: checklist and ledger
// on one page, with a guard against leaving a job in progress.
package tui

import (
	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/crewlog/internal/models"
)

// Session is the subset of *session.Session the screen drives.
type Session interface {
	State() models.WorkSession
	HasUnsavedWork() bool
	ToggleChecklistItem(key string) error
	RecordLedgerQuantity(entryID string, qty int) error
}

type screen int

const (
	screenWorking screen = iota
	screenConfirmLeave
)

// Outcome tells the caller why the screen closed.
type Outcome int

const (
	OutcomeLeave Outcome = iota
	OutcomeSubmit
)

type rowKind int

const (
	rowTask rowKind = iota
	rowEntry
)

// row is one selectable line: a checklist task or a ledger entry.
type row struct {
	kind    rowKind
	section string
	label   string
	key     string
	entryID string
}

type Model struct {
	sess    Session
	state   models.WorkSession
	rows    []row
	cursor  int
	screen  screen
	keys    KeyMap
	help    help.Model
	err     string
	outcome Outcome
	width   int
}

func NewModel(sess Session) Model {
	m := Model{
		sess: sess,
		keys: DefaultKeyMap(),
		help: help.New(),
	}
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

// Outcome is valid once the program has exited.
func (m Model) Outcome() Outcome { return m.outcome }

// refresh re-reads the session after a mutation.
func (m *Model) refresh() {
	m.state = m.sess.State()
	m.rows = nil
	for _, section := range m.state.Template.Sections {
		for _, task := range section.Tasks {
			m.rows = append(m.rows, row{
				kind:    rowTask,
				section: section.Title,
				label:   task,
				key:     models.ChecklistKey(section.Title, task),
			})
		}
	}
	for _, e := range m.state.Ledger {
		m.rows = append(m.rows, row{kind: rowEntry, label: e.Ref().Name, entryID: e.EntryID()})
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// Run shows the screen until the operative leaves or asks to submit.
func Run(sess Session) (Outcome, error) {
	p := tea.NewProgram(NewModel(sess), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return OutcomeLeave, err
	}
	if m, ok := final.(Model); ok {
		return m.outcome, nil
	}
	return OutcomeLeave, nil
}
