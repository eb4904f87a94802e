package tui

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/flowsilicon/keyconsole/internal/console"
	"github.com/flowsilicon/keyconsole/internal/keys"
)

var cadenceOrder = []string{console.CadenceKeys, console.CadenceStats, console.CadenceRates}

const rowFormat = "%s %s %-14s %10s %7s %8s %8s %6s %8s  %s"

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.renderTable())
	b.WriteString("\n")

	if m.progress != nil {
		b.WriteString(m.renderProgress())
		b.WriteString("\n")
	}
	if m.confirm != nil {
		b.WriteString(styleDialog.Render(
			styleTitle.Render(m.confirm.title) + "\n" + m.confirm.message + "\n\n" +
				styleKey.Render("y") + " yes  " + styleKey.Render("n") + " no  " + styleKey.Render("esc") + " cancel"))
		b.WriteString("\n")
	}
	if m.input != inputNone {
		b.WriteString(m.field.View())
		b.WriteString("\n")
	}
	for _, t := range m.toasts {
		b.WriteString(severityStyles[t.severity].Render(t.message))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m *Model) renderHeader() string {
	title := styleTitle.Render("Key Console")

	mode := "mode: unknown"
	if m.mode != nil {
		mode = "mode: " + string(m.mode.Mode)
		if m.mode.Mode.UsesIDs() {
			masked := make([]string, 0, len(m.mode.IDs))
			for _, id := range m.mode.IDs {
				masked = append(masked, keys.MaskKey(id))
			}
			mode += " (" + strings.Join(masked, ", ") + ")"
		}
	}
	sort := "sort: " + m.sort.String()

	lines := []string{title + "  " + styleMuted.Render(mode+"  "+sort)}

	if m.stats != nil {
		lines = append(lines, fmt.Sprintf("keys %d (active %d, disabled %d)  balance %s (active %s)  calls %d  success %s",
			m.stats.TotalKeys, m.stats.ActiveKeys, m.stats.DisabledKeys,
			formatBalance(m.stats.TotalBalance), formatBalance(m.stats.ActiveKeysBalance),
			m.stats.TotalCalls, formatRate(m.stats.AvgSuccessRate)))
	}
	if m.rates != nil {
		lines = append(lines, fmt.Sprintf("rpm %d  tpm %d  rpd %d  tpd %d",
			m.rates.RPM, m.rates.TPM, m.rates.RPD, m.rates.TPD))
	}

	var cadences []string
	for _, name := range cadenceOrder {
		if st, ok := m.cadences[name]; ok {
			cadences = append(cadences, name+" "+st.Label())
		}
	}
	if len(cadences) > 0 {
		lines = append(lines, styleMuted.Render(strings.Join(cadences, "  |  ")))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderTable() string {
	if len(m.records) == 0 {
		return styleMuted.Render("No keys. Press a to add one.")
	}

	rows := []string{styleHeader.Render(fmt.Sprintf(rowFormat,
		" ", " ", "key", "balance", "score", "success", "calls", "rpm", "tpm", "state"))}

	for _, r := range m.records {
		cursor := " "
		if r.ID == m.cursorID {
			cursor = styleCursor.Render(">")
		}
		mark := " "
		if slices.Contains(m.selected, r.ID) {
			mark = styleSelected.Render("*")
		}
		state := "enabled"
		if r.Disabled {
			state = "disabled"
		}

		row := fmt.Sprintf(rowFormat, cursor, mark, r.Masked(),
			formatBalance(r.Balance),
			strconv.FormatFloat(r.Score, 'f', 2, 64),
			formatRate(r.SuccessRate),
			strconv.FormatInt(r.TotalCalls, 10),
			strconv.FormatInt(r.RPM, 10),
			strconv.FormatInt(r.TPM, 10),
			state)
		if r.Disabled {
			row = styleDisabled.Render(row)
		}
		rows = append(rows, row)
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m *Model) renderProgress() string {
	p := m.progress
	percent := 0.0
	if p.total > 0 {
		percent = float64(p.done) / float64(p.total)
	}
	line := p.title + "\n" + m.bar.ViewAs(percent) + fmt.Sprintf(" %d/%d", p.done, p.total)
	if p.detail != "" {
		line += "\n" + styleMuted.Render(p.detail)
	}
	return line
}

func (m *Model) renderHelp() string {
	parts := make([]string, 0, len(m.keys.help()))
	for _, binding := range m.keys.help() {
		h := binding.Help()
		parts = append(parts, styleKey.Render(h.Key)+" "+styleMuted.Render(h.Desc))
	}
	return strings.Join(parts, "  ")
}

func formatBalance(b float64) string {
	return strconv.FormatFloat(b, 'f', 2, 64)
}
