package main

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	colorPrimary = lipgloss.Color("#7C71F9")
	colorSuccess = lipgloss.Color("#34D399")
	colorDim     = lipgloss.Color("#6B7280")
)

var (
	styleDim         = lipgloss.NewStyle().Foreground(colorDim)
	styleSuccess     = lipgloss.NewStyle().Foreground(colorSuccess)
	styleTableHeader = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	styleActive      = lipgloss.NewStyle().Bold(true).Foreground(colorSuccess)
)

// newTable returns a borderless table with an underlined header row.
func newTable(headers ...string) *table.Table {
	return table.New().
		Headers(headers...).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		BorderHeader(true).
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleTableHeader.PaddingRight(2)
			}
			return lipgloss.NewStyle().PaddingRight(2)
		})
}
