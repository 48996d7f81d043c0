package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	rio "github.com/matzehuels/reconlayout/pkg/io"
)

var (
	listDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	listHeaderStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// =============================================================================
// LevelListModel - Interactive per-level report browser
// =============================================================================

// LevelListModel is the bubbletea model for browsing the decisions taken at
// each internal host node. Enter toggles a detail view with the committed
// guest order and its reference.
type LevelListModel struct {
	Levels []rio.LevelRecord
	Cursor int
	Height int
	Offset int
	Detail bool
}

// NewLevelListModel creates a new level list model.
func NewLevelListModel(levels []rio.LevelRecord) LevelListModel {
	return LevelListModel{Levels: levels, Height: 15}
}

func (m LevelListModel) Init() tea.Cmd {
	return nil
}

func (m LevelListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.Detail {
				m.Detail = false
				return m, nil
			}
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Levels)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Levels) > 0 {
				m.Detail = !m.Detail
			}
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 8
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m LevelListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Host Levels"))
	b.WriteString("\n")
	if m.Detail {
		b.WriteString(listDimStyle.Render("⏎/esc back  q quit"))
	} else {
		b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ details  q quit"))
	}
	b.WriteString("\n\n")

	if len(m.Levels) == 0 {
		b.WriteString(listDimStyle.Render("  no internal host nodes"))
		b.WriteString("\n")
		return b.String()
	}
	if m.Detail {
		b.WriteString(levelDetail(m.Levels[m.Cursor]))
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.Levels))
	b.WriteString(levelTable(m.Levels[m.Offset:end], m.Cursor-m.Offset))
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Levels))))

	return b.String()
}

// =============================================================================
// Rendering
// =============================================================================

// levelTable renders levels as a table. The row at index cursor is
// highlighted; pass -1 for none.
func levelTable(levels []rio.LevelRecord, cursor int) string {
	rows := make([][]string, len(levels))
	for i, lv := range levels {
		mark := "  "
		if i == cursor {
			mark = "▸ "
		}
		choice := "keep"
		if lv.Rotate {
			choice = "rotate"
		}
		rows[i] = []string{
			mark,
			lv.Host,
			strconv.Itoa(lv.Size),
			strconv.Itoa(lv.Groups),
			strconv.Itoa(lv.Direct),
			strconv.Itoa(lv.Rotated),
			choice,
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Host", "Size", "Groups", "Direct", "Rotated", "Choice").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return listHeaderStyle
			}
			base := lipgloss.NewStyle()
			if col >= 2 && col <= 5 {
				base = base.Align(lipgloss.Right)
			}
			if row < len(levels) && col == 6 && levels[row].Rotate {
				base = base.Foreground(colorGreen)
			}
			if row == cursor {
				return base.Bold(true)
			}
			return base
		})
	return t.Render()
}

func levelDetail(lv rio.LevelRecord) string {
	var b strings.Builder
	choice := "keep"
	if lv.Rotate {
		choice = "rotate"
	}
	row := func(k, v string) {
		b.WriteString(lipgloss.NewStyle().Foreground(colorGray).Width(12).Render(k))
		b.WriteString(" ")
		b.WriteString(StyleValue.Render(v))
		b.WriteString("\n")
	}
	row("host", lv.Host)
	row("choice", fmt.Sprintf("%s (direct %d, rotated %d)", choice, lv.Direct, lv.Rotated))
	row("crossings", strconv.Itoa(lv.Crossings))
	row("groups", strconv.Itoa(lv.Groups))
	row("boundaries", strconv.Itoa(lv.Boundaries))
	row("order", strings.Join(lv.Order, " "))
	row("reference", strings.Join(lv.Reference, " "))
	return b.String()
}
