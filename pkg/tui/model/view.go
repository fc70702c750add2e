package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/modoterra/igractl/pkg/core"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57"))

	statusRunning = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	statusStopped = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	statusExited  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)

	activePaneStyle = paneStyle.
			BorderForeground(lipgloss.Color("205"))

	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// View renders the TUI.
func (a App) View() string {
	if a.width == 0 || a.height == 0 {
		return "loading..."
	}

	statusBarH := 2
	logPaneH := a.logPaneHeight()
	mainH := max(a.height-logPaneH-statusBarH-4, 3)
	listW := a.width*2/5 - 2
	detailW := a.width - listW - 4

	listPane := a.paneBox(PaneList, " Services ", a.renderList(listW, mainH), listW, mainH)
	detailPane := a.paneBox(PaneDetail, " Chain ", a.renderDetail(), detailW, mainH)
	topRow := lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)

	logPane := a.paneBox(PaneLogs, a.logTitle(), a.renderLogs(), a.width-4, logPaneH)

	return lipgloss.JoinVertical(lipgloss.Left, topRow, logPane, a.renderStatusBar())
}

func (a App) paneBox(pane Pane, title, content string, w, h int) string {
	style := paneStyle
	if a.activePane == pane {
		style = activePaneStyle
	}
	return style.Width(w).Height(h).Render(
		titleStyle.Render(title) + "\n" + content,
	)
}

func (a App) renderList(w, h int) string {
	services := a.report.Services
	if !a.hasReport {
		return dimStyle.Render("waiting for daemon")
	}
	if len(services) == 0 {
		return dimStyle.Render("no services")
	}

	var b strings.Builder
	maxVisible := max(h-2, 1)
	start := 0
	if a.selectedIdx >= maxVisible {
		start = a.selectedIdx - maxVisible + 1
	}

	for i := start; i < len(services) && i-start < maxVisible; i++ {
		svc := services[i]
		name := truncate(svc.Name, w-16)
		line := fmt.Sprintf(" %s %-*s %s", statusIndicator(svc.Status), w-16, name, colorStatus(svc.Status))

		if i == a.selectedIdx {
			line = selectedStyle.Width(w).Render(line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (a App) renderDetail() string {
	if !a.hasReport {
		return dimStyle.Render("no report yet")
	}
	r := a.report

	var b strings.Builder
	if r.BlockHeightKnown {
		fmt.Fprintf(&b, "Height:  %d\n", r.BlockHeight)
	} else {
		fmt.Fprintf(&b, "Height:  %s\n", dimStyle.Render("unknown"))
	}

	sync := fmt.Sprintf("%.2f%%", r.Sync.Percent)
	if !r.Sync.Known {
		sync += dimStyle.Render(" (not reported)")
	}
	fmt.Fprintf(&b, "Sync:    %s\n", sync)
	fmt.Fprintf(&b, "Rate:    %.2f blocks/min\n", r.BlocksPerMinute)

	health := statusRunning.Render("healthy")
	if !r.Healthy() {
		health = statusExited.Render("degraded")
	}
	fmt.Fprintf(&b, "Health:  %s\n", health)
	if len(r.Unreachable) > 0 {
		fmt.Fprintf(&b, "Unreachable: %s\n", warnStyle.Render(strings.Join(r.Unreachable, ", ")))
	}
	if !r.CheckedAt.IsZero() {
		fmt.Fprintf(&b, "Checked: %s\n", dimStyle.Render(r.CheckedAt.Format(time.TimeOnly)))
	}

	if svc := a.selectedService(); svc != nil {
		running, probed := r.Health.Lookup(svc.Name)
		b.WriteString("\n")
		fmt.Fprintf(&b, "Service: %s\n", svc.Name)
		fmt.Fprintf(&b, "Status:  %s\n", colorStatus(svc.Status))
		if probed {
			fmt.Fprintf(&b, "Probe:   %t\n", running)
		}
	}

	for _, e := range r.Errors {
		b.WriteString(warnStyle.Render("! "+e) + "\n")
	}
	return b.String()
}

func (a App) renderLogs() string {
	if a.logService == "" {
		return dimStyle.Render("enter: show logs of the selected service")
	}
	if len(a.logLines) == 0 {
		return dimStyle.Render("no log output")
	}
	return a.logs.View()
}

func renderLogLines(lines []core.LogLine) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l.Line + "\n")
	}
	return b.String()
}

func (a App) logTitle() string {
	if a.logService == "" {
		return " Logs "
	}
	return " Logs: " + a.logService + " "
}

func (a App) renderStatusBar() string {
	left := a.statusMsg
	if a.pending != "" {
		left = a.spin.View() + " " + a.pending + "..."
	}
	if !a.connected && left == "" {
		left = "connecting to " + a.socketPath
	}

	right := "j/k:nav tab:pane enter:logs r:restart t:start s:stop ctrl+r:refresh q:quit"
	switch a.mode {
	case ModeProfile:
		left = "start profile: " + a.profile.View()
		right = "enter:start esc:cancel"
	case ModeConfirmStop:
		right = "y:confirm any:cancel"
	}

	gap := max(a.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return helpStyle.Render(left + strings.Repeat(" ", gap) + right)
}

func statusIndicator(status core.Status) string {
	switch status {
	case core.StatusRunning:
		return statusRunning.Render("●")
	case core.StatusStopped:
		return statusStopped.Render("○")
	case core.StatusExited:
		return statusExited.Render("✖")
	default:
		return dimStyle.Render("?")
	}
}

func colorStatus(status core.Status) string {
	s := string(status)
	switch status {
	case core.StatusRunning:
		return statusRunning.Render(s)
	case core.StatusStopped:
		return statusStopped.Render(s)
	case core.StatusExited:
		return statusExited.Render(s)
	default:
		return dimStyle.Render(s)
	}
}

func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
