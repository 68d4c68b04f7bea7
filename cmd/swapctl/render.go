package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"tierswap/pkg/config"
	"tierswap/pkg/swap"
)

var (
	primaryColor   = lipgloss.Color("#7C3AED")
	secondaryColor = lipgloss.Color("#06B6D4")
	accentColor    = lipgloss.Color("#10B981")
	errorColor     = lipgloss.Color("#EF4444")
	mutedColor     = lipgloss.Color("#94A3B8")
	bgDark         = lipgloss.Color("#0F172A")
	textPrimary    = lipgloss.Color("#F8FAFC")
)

var (
	titleStyle = lipgloss.NewStyle().
			Background(primaryColor).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true).
			Padding(0, 2)

	badgeStyle = lipgloss.NewStyle().
			Background(secondaryColor).
			Foreground(bgDark).
			Bold(true).
			Padding(0, 1)

	successStyle = lipgloss.NewStyle().
			Background(accentColor).
			Foreground(bgDark).
			Bold(true).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Background(errorColor).
			Foreground(textPrimary).
			Bold(true).
			Padding(0, 1)

	mutedStyle = lipgloss.NewStyle().Foreground(mutedColor)

	headerStyle = lipgloss.NewStyle().Foreground(primaryColor).Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(mutedColor)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

func renderStates(sys *config.System) string {
	t := newTable("#", "state", "page size", "pages", "capacity", "store")
	for i, st := range sys.States() {
		t.Row(
			strconv.Itoa(i),
			st.Name(),
			strconv.FormatUint(st.PageSize(), 10),
			strconv.FormatUint(st.NumPages(), 10),
			strconv.FormatUint(st.Capacity(), 10),
			string(st.Store().Kind()),
		)
	}
	return t.String()
}

func renderOperation(op *swap.SwapOperation) string {
	names := make([]string, len(op.Path))
	for i, st := range op.Path {
		names[i] = st.Name()
	}
	return fmt.Sprintf("%s %s\n%s",
		badgeStyle.Render(op.Direction.String()),
		strings.Join(names, " -> "),
		mutedStyle.Render(fmt.Sprintf("op %s  window %s  relative size %d  steps %d  fields %d",
			op.ID, op.Window, op.RelativeSwapSize, op.Len(), op.FieldsMoved())))
}

// renderSteps lists at most limit steps; limit 0 lists them all.
func renderSteps(op *swap.SwapOperation, limit int) string {
	if op.IsEmpty() {
		return mutedStyle.Render("nothing to swap")
	}

	t := newTable("#", "hop", "source", "source fields", "destination", "destination fields")
	n := 0
	for h, hop := range op.Hops() {
		for _, step := range hop {
			if limit > 0 && n == limit {
				return t.String() + "\n" + mutedStyle.Render(fmt.Sprintf("%d more steps not shown", op.Len()-n))
			}
			t.Row(
				strconv.Itoa(n),
				strconv.Itoa(h),
				step.Source.String(),
				step.SourceRegion.String(),
				step.Destination.String(),
				step.DestinationRegion.String(),
			)
			n++
		}
	}
	return t.String()
}
