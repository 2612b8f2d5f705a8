// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

package catalogui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bktutor/bktutor/catalog"
)

// View implements tea.Model.
func (model Model) View() string {
	var builder strings.Builder

	title := lipgloss.NewStyle().Bold(true).Foreground(model.theme.HeaderForeground)
	builder.WriteString(title.Render("bktutor · course catalog"))
	builder.WriteString("\n")

	if model.focus == FocusSearch || model.search.Value() != "" {
		builder.WriteString(model.search.View())
	} else {
		builder.WriteString(lipgloss.NewStyle().Foreground(model.theme.FaintText).Render("press / to search"))
	}
	builder.WriteString("\n")

	header := lipgloss.NewStyle().Foreground(model.theme.FaintText).Underline(true)
	builder.WriteString(header.Render(model.formatRow(" ", "CODE", "NAME", "TUTOR", "TIME")))
	builder.WriteString("\n")

	builder.WriteString(model.renderList())
	builder.WriteString(model.renderStatus())
	builder.WriteString("\n")
	builder.WriteString(model.renderHelp())
	return builder.String()
}

func (model Model) renderList() string {
	entries := model.view.Entries
	height := model.listHeight()
	var builder strings.Builder

	if len(entries) == 0 {
		faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)
		switch {
		case model.fetching || model.view.Status == catalog.Loading:
			builder.WriteString(faint.Render("loading…"))
		case model.view.Query != "":
			builder.WriteString(faint.Render(fmt.Sprintf("no course matches %q", model.view.Query)))
		default:
			builder.WriteString(faint.Render("no courses"))
		}
		builder.WriteString("\n")
		for range height - 1 {
			builder.WriteString("\n")
		}
		return builder.String()
	}

	end := min(model.offset+height, len(entries))
	for index := model.offset; index < end; index++ {
		builder.WriteString(model.renderRow(index, entries[index]))
		builder.WriteString("\n")
	}
	for range height - (end - model.offset) {
		builder.WriteString("\n")
	}
	return builder.String()
}

func (model Model) renderRow(index int, entry catalog.Entry) string {
	marker := " "
	markerStyle := lipgloss.NewStyle()
	switch {
	case model.enrollment != nil && model.enrollment.InFlight(entry.Code):
		marker = "…"
		markerStyle = markerStyle.Foreground(model.theme.Pending)
	case entry.Registered:
		marker = "✓"
		markerStyle = markerStyle.Foreground(model.theme.Registered)
	}

	row := model.formatRow(markerStyle.Render(marker), entry.Code, entry.Name, entry.Tutor, entry.Time)
	style := lipgloss.NewStyle().Foreground(model.theme.NormalText).MaxWidth(model.width)
	if index == model.cursor && model.focus != FocusSearch {
		style = style.
			Background(model.theme.SelectedBackground).
			Foreground(model.theme.SelectedForeground).
			Width(model.width)
	}
	return style.Render(row)
}

// formatRow lays out the columns. Names get whatever width the fixed
// columns leave.
func (model Model) formatRow(marker, code, name, tutor, slot string) string {
	const codeWidth, tutorWidth, timeWidth = 8, 20, 16
	nameWidth := max(10, model.width-codeWidth-tutorWidth-timeWidth-6)
	return fmt.Sprintf("%s %s %s %s %s",
		marker,
		pad(code, codeWidth),
		pad(name, nameWidth),
		pad(tutor, tutorWidth),
		pad(slot, timeWidth),
	)
}

// pad truncates or right-pads text to exactly width cells.
func pad(text string, width int) string {
	if lipgloss.Width(text) > width {
		runes := []rune(text)
		for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
			runes = runes[:len(runes)-1]
		}
		return string(runes) + "…"
	}
	return text + strings.Repeat(" ", width-lipgloss.Width(text))
}

func (model Model) renderStatus() string {
	counts := fmt.Sprintf("%d of %d", len(model.view.Entries), model.view.Matching)
	if model.view.Query != "" {
		counts += fmt.Sprintf(" matching (%d total)", model.view.Total)
	}
	if model.view.HasMore {
		counts += " · m for more"
	}
	line := lipgloss.NewStyle().Foreground(model.theme.FaintText).Render(counts)

	if model.focus == FocusConfirm {
		prompt := lipgloss.NewStyle().Bold(true).Foreground(model.theme.Pending)
		return line + "  " + prompt.Render(fmt.Sprintf("unregister from %s? y/n", model.pending))
	}
	if model.status == "" {
		return line
	}
	color := model.theme.Success
	if model.statusError {
		color = model.theme.Failure
	}
	return line + "  " + lipgloss.NewStyle().Foreground(color).Render(model.status)
}

func (model Model) renderHelp() string {
	parts := make([]string, 0, len(model.keys.shortHelp()))
	for _, binding := range model.keys.shortHelp() {
		help := binding.Help()
		parts = append(parts, help.Key+" "+help.Desc)
	}
	return lipgloss.NewStyle().Foreground(model.theme.HelpText).Render(strings.Join(parts, " · "))
}
