package models

import (
	"strings"

	"github.com/julianstephens/crewlog/internal/constants"
	apperrors "github.com/julianstephens/crewlog/internal/errors"
)

type Section struct {
	Title string   `json:"title"`
	Tasks []string `json:"tasks"`
}

type ChecklistTemplate struct {
	ID       string    `json:"id"`
	Name     string    `json:"name,omitempty"`
	Sections []Section `json:"sections"`
}

// ChecklistKey derives the key a task is tracked under, "<section> - <task>".
func ChecklistKey(section, task string) string {
	return section + constants.ChecklistKeySeparator + task
}

// Keys returns every task key in template order.
func (t ChecklistTemplate) Keys() []string {
	var keys []string
	for _, section := range t.Sections {
		for _, task := range section.Tasks {
			keys = append(keys, ChecklistKey(section.Title, task))
		}
	}
	return keys
}

func (t ChecklistTemplate) TaskCount() int {
	n := 0
	for _, section := range t.Sections {
		n += len(section.Tasks)
	}
	return n
}

func (t ChecklistTemplate) Validate() error {
	if t.ID == "" {
		return apperrors.Invalid("template.id", "cannot be empty")
	}
	seen := make(map[string]bool)
	for i, section := range t.Sections {
		if strings.TrimSpace(section.Title) == "" {
			return apperrors.Invalid("template.sections", "section %d has no title", i+1)
		}
		for _, task := range section.Tasks {
			if strings.TrimSpace(task) == "" {
				return apperrors.Invalid("template.sections", "section %q has an empty task", section.Title)
			}
			key := ChecklistKey(section.Title, task)
			if seen[key] {
				return apperrors.Invalid("template.sections", "duplicate task %q", key)
			}
			seen[key] = true
		}
	}
	return nil
}

// Clone returns a deep copy so later template edits cannot reach a snapshot.
func (t ChecklistTemplate) Clone() ChecklistTemplate {
	out := ChecklistTemplate{ID: t.ID, Name: t.Name, Sections: make([]Section, len(t.Sections))}
	for i, section := range t.Sections {
		out.Sections[i] = Section{Title: section.Title, Tasks: append([]string(nil), section.Tasks...)}
	}
	return out
}

// ChecklistState maps checklist keys to their completion flag.
type ChecklistState map[string]bool

// NewChecklistState seeds every key of the template as not done.
func NewChecklistState(t ChecklistTemplate) ChecklistState {
	state := make(ChecklistState, t.TaskCount())
	for _, key := range t.Keys() {
		state[key] = false
	}
	return state
}

func (c ChecklistState) Clone() ChecklistState {
	out := make(ChecklistState, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Done returns how many tasks are marked complete.
func (c ChecklistState) Done() int {
	n := 0
	for _, v := range c {
		if v {
			n++
		}
	}
	return n
}

// Pending returns the keys still marked false, in template order.
func (c ChecklistState) Pending(t ChecklistTemplate) []string {
	var out []string
	for _, key := range t.Keys() {
		if !c[key] {
			out = append(out, key)
		}
	}
	return out
}
