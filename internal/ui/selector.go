package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/yolodolo42/safebot/internal/chain"
)

// SelectorItem represents an item in the selector
type SelectorItem struct {
	ID          string
	Label       string
	Description string
	Current     bool
}

func (it SelectorItem) display() string {
	if it.Label != "" {
		return it.Label
	}
	return it.ID
}

// Selector is an interactive list selector. Typing narrows the list by
// label or id; only a window of Height rows is shown at a time.
type Selector struct {
	title    string
	items    []SelectorItem
	visible  []int // indexes into items after filtering
	filter   string
	cursor   int // index into visible
	offset   int
	selected int // index into items, -1 when cancelled
	active   bool
	width    int
	height   int
}

// NewSelector creates a new selector
func NewSelector(title string, items []SelectorItem) Selector {
	s := Selector{
		title:    title,
		items:    items,
		selected: 0,
		active:   true,
		width:    80,
		height:   10,
	}
	s.refilter()
	for i, idx := range s.visible {
		if items[idx].Current {
			s.cursor = i
			s.selected = idx
			break
		}
	}
	s.scroll()
	return s
}

// ChainItems lists chains for a Selector, marking currentID.
func ChainItems(chains []chain.Chain, currentID string) []SelectorItem {
	items := make([]SelectorItem, 0, len(chains))
	for _, c := range chains {
		items = append(items, SelectorItem{
			ID:          c.ID,
			Label:       c.Name,
			Description: "id " + c.ID,
			Current:     currentID != "" && strings.EqualFold(c.ID, currentID),
		})
	}
	return items
}

// SetWidth sets the selector width
func (s *Selector) SetWidth(w int) {
	s.width = w
}

// SetHeight sets how many rows are shown at once.
func (s *Selector) SetHeight(h int) {
	if h < 1 {
		h = 1
	}
	s.height = h
	s.scroll()
}

// Active returns whether the selector is active
func (s *Selector) Active() bool {
	return s.active
}

// Selected returns the selected item ID, or empty if cancelled
func (s *Selector) Selected() string {
	if s.selected >= 0 && s.selected < len(s.items) {
		return s.items[s.selected].ID
	}
	return ""
}

// Cancelled returns whether the selector was cancelled
func (s *Selector) Cancelled() bool {
	return !s.active && s.selected == -1
}

// Filter returns the current filter text.
func (s *Selector) Filter() string {
	return s.filter
}

// Update handles selector input
func (s *Selector) Update(msg tea.Msg) (*Selector, tea.Cmd) {
	if !s.active {
		return s, nil
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}

	switch key.Type {
	case tea.KeyUp:
		if s.cursor > 0 {
			s.cursor--
		}
	case tea.KeyDown:
		if s.cursor < len(s.visible)-1 {
			s.cursor++
		}
	case tea.KeyEnter:
		if len(s.visible) > 0 {
			s.selected = s.visible[s.cursor]
			s.active = false
		}
	case tea.KeyEsc:
		if s.filter != "" {
			s.filter = ""
			s.refilter()
			break
		}
		s.selected = -1
		s.active = false
	case tea.KeyBackspace:
		if s.filter != "" {
			r := []rune(s.filter)
			s.filter = string(r[:len(r)-1])
			s.refilter()
		}
	case tea.KeyRunes, tea.KeySpace:
		s.filter += string(key.Runes)
		s.refilter()
	}

	s.scroll()
	return s, nil
}

func (s *Selector) refilter() {
	needle := strings.ToLower(strings.TrimSpace(s.filter))
	s.visible = make([]int, 0, len(s.items))
	for i, it := range s.items {
		if needle == "" ||
			strings.Contains(strings.ToLower(it.display()), needle) ||
			strings.Contains(strings.ToLower(it.ID), needle) {
			s.visible = append(s.visible, i)
		}
	}
	s.cursor = 0
	s.offset = 0
}

func (s *Selector) scroll() {
	if s.cursor < s.offset {
		s.offset = s.cursor
	}
	if s.cursor >= s.offset+s.height {
		s.offset = s.cursor - s.height + 1
	}
}

// View renders the selector
func (s *Selector) View() string {
	if !s.active {
		return ""
	}

	var b strings.Builder

	b.WriteString(HelpStyle.Render(s.title + " (type to filter, ↑/↓ navigate, enter select, esc cancel)"))
	b.WriteString("\n")
	if s.filter != "" {
		b.WriteString(PromptStyle.Render(SymbolPrompt) + " " + s.filter)
	}
	b.WriteString("\n")

	if len(s.visible) == 0 {
		b.WriteString(SelectorDim.Render("  no matches"))
		b.WriteString("\n")
		return b.String()
	}

	end := min(s.offset+s.height, len(s.visible))
	for i := s.offset; i < end; i++ {
		item := s.items[s.visible[i]]
		isCursor := i == s.cursor

		if isCursor {
			b.WriteString(SelectorCursor.Render(SymbolArrow) + " ")
		} else {
			b.WriteString("  ")
		}

		label := fmt.Sprintf("%-28s", item.display())
		if isCursor {
			b.WriteString(SelectorActive.Render(label))
		} else {
			b.WriteString(SelectorItemStyle.Render(label))
		}

		if item.Description != "" {
			desc := item.Description
			if item.Current {
				desc += " (current)"
			}
			b.WriteString(SelectorDim.Render(desc))
		}

		b.WriteString("\n")
	}
	if len(s.visible) > s.height {
		b.WriteString(SelectorDim.Render(fmt.Sprintf("  %d-%d of %d", s.offset+1, end, len(s.visible))))
		b.WriteString("\n")
	}

	return b.String()
}
