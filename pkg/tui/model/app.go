package model

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/modoterra/igractl/pkg/core"
	"github.com/modoterra/igractl/pkg/monitor"
	"github.com/modoterra/igractl/pkg/transport/uds"
)

// Pane identifies which TUI pane is focused.
type Pane int

const (
	PaneList Pane = iota
	PaneDetail
	PaneLogs
)

// Mode identifies the current interaction mode.
type Mode int

const (
	ModeNormal Mode = iota
	ModeProfile
	ModeConfirmStop
)

const (
	logTail         = 200
	refreshInterval = 5 * time.Second
	requestTimeout  = 5 * time.Second
	// compose up pulls images on first start
	actionTimeout = 5 * time.Minute
)

// App is the root Bubble Tea model of the dashboard.
type App struct {
	client     *uds.Client
	socketPath string
	connected  bool
	events     chan uds.Message

	report      monitor.Report
	hasReport   bool
	selectedIdx int
	logService  string
	logLines    []core.LogLine

	activePane Pane
	mode       Mode
	profile    textinput.Model
	logs       viewport.Model
	spin       spinner.Model
	pending    string
	width      int
	height     int

	statusMsg string
}

// New creates the dashboard model. defaultProfile prefills the start prompt.
func New(socketPath, defaultProfile string) App {
	pi := textinput.New()
	pi.Placeholder = "profile"
	pi.CharLimit = 64
	pi.SetValue(defaultProfile)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return App{
		socketPath: socketPath,
		events:     make(chan uds.Message, 16),
		profile:    pi,
		logs:       viewport.New(0, 0),
		spin:       sp,
		activePane: PaneList,
		mode:       ModeNormal,
	}
}

// Init connects to the daemon.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		connectCmd(a.socketPath),
		tea.SetWindowTitle("IGRA Orchestra"),
	)
}

type tickMsg time.Time

type connectedMsg struct{ client *uds.Client }

type reportMsg struct{ report monitor.Report }

// eventMsg carries a pushed report; handling it re-arms the event wait.
type eventMsg struct{ report monitor.Report }

type logsMsg struct {
	service string
	lines   []core.LogLine
}

type errorMsg struct{ err error }

type actionResultMsg struct{ msg string }

// disconnectedMsg is sent once the daemon connection ends.
type disconnectedMsg struct{}

func connectCmd(socketPath string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		client, err := uds.Dial(ctx, socketPath)
		if err != nil {
			return errorMsg{err}
		}
		return connectedMsg{client}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForEvent(client *uds.Client, events <-chan uds.Message) tea.Cmd {
	return func() tea.Msg {
		for {
			select {
			case msg := <-events:
				var r monitor.Report
				if err := msg.UnmarshalData(&r); err != nil {
					continue
				}
				return eventMsg{r}
			case <-client.Done():
				return disconnectedMsg{}
			}
		}
	}
}

func fetchStatusCmd(client *uds.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		var r monitor.Report
		if err := client.Call(ctx, uds.MethodStatus, nil, &r); err != nil {
			return errorMsg{err}
		}
		return reportMsg{r}
	}
}

func fetchLogsCmd(client *uds.Client, service string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		var lines []core.LogLine
		if err := client.Call(ctx, uds.MethodLogs, uds.LogsRequest{Service: service, Tail: logTail}, &lines); err != nil {
			return errorMsg{err}
		}
		return logsMsg{service: service, lines: lines}
	}
}

func actionCmd(client *uds.Client, req uds.ActionRequest) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()

		if _, err := client.Request(ctx, uds.MethodAction, req); err != nil {
			return errorMsg{err}
		}
		done := req.Action
		if req.Service != "" {
			done += " " + req.Service
		}
		return actionResultMsg{msg: done + ": ok"}
	}
}

// Update handles messages.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.logs.Width = max(a.width-6, 0)
		a.logs.Height = max(a.logPaneHeight()-1, 0)
		return a, nil

	case connectedMsg:
		a.client = msg.client
		a.connected = true
		a.statusMsg = "connected"

		events := a.events
		a.client.OnEvent(func(m uds.Message) {
			if m.Method != uds.EventStatusChanged {
				return
			}
			select {
			case events <- m:
			default:
			}
		})
		return a, tea.Batch(tickCmd(), fetchStatusCmd(a.client), waitForEvent(a.client, a.events))

	case disconnectedMsg:
		a.client = nil
		a.connected = false
		a.statusMsg = "daemon connection lost"
		return a, nil

	case tickMsg:
		if a.client != nil {
			return a, tea.Batch(tickCmd(), fetchStatusCmd(a.client))
		}
		return a, tea.Batch(tickCmd(), connectCmd(a.socketPath))

	case reportMsg:
		a.setReport(msg.report)
		return a, nil

	case eventMsg:
		a.setReport(msg.report)
		if a.client != nil {
			return a, waitForEvent(a.client, a.events)
		}
		return a, nil

	case logsMsg:
		a.logService = msg.service
		a.logLines = msg.lines
		a.logs.SetContent(renderLogLines(a.logLines))
		a.logs.GotoBottom()
		return a, nil

	case actionResultMsg:
		a.pending = ""
		a.statusMsg = msg.msg
		return a, nil

	case errorMsg:
		a.pending = ""
		a.statusMsg = "error: " + msg.err.Error()
		return a, nil

	case spinner.TickMsg:
		if a.pending == "" {
			return a, nil
		}
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	return a, nil
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.mode {
	case ModeProfile:
		switch msg.String() {
		case "esc":
			a.mode = ModeNormal
			a.profile.Blur()
			a.statusMsg = "start cancelled"
			return a, nil
		case "enter":
			a.mode = ModeNormal
			a.profile.Blur()
			return a.doAction(uds.ActionRequest{Action: uds.ActionStart, Profile: a.profile.Value()})
		default:
			var cmd tea.Cmd
			a.profile, cmd = a.profile.Update(msg)
			return a, cmd
		}

	case ModeConfirmStop:
		a.mode = ModeNormal
		switch msg.String() {
		case "y", "Y":
			return a.doAction(uds.ActionRequest{Action: uds.ActionStop})
		default:
			a.statusMsg = "stop cancelled"
			return a, nil
		}
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return a, tea.Quit

	case "j", "down":
		if a.activePane == PaneLogs {
			a.logs.LineDown(1)
		} else if n := len(a.report.Services); n > 0 {
			a.selectedIdx = min(a.selectedIdx+1, n-1)
		}
	case "k", "up":
		if a.activePane == PaneLogs {
			a.logs.LineUp(1)
		} else if a.selectedIdx > 0 {
			a.selectedIdx--
		}

	case "tab":
		a.activePane = (a.activePane + 1) % 3

	case "enter", "l":
		if svc := a.selectedService(); svc != nil && a.client != nil {
			a.activePane = PaneLogs
			return a, fetchLogsCmd(a.client, svc.Name)
		}

	case "ctrl+r":
		if a.client != nil {
			return a, fetchStatusCmd(a.client)
		}

	case "r":
		if svc := a.selectedService(); svc != nil {
			return a.doAction(uds.ActionRequest{Action: uds.ActionRestart, Service: svc.Name})
		}
	case "t":
		a.mode = ModeProfile
		a.profile.Focus()
		return a, textinput.Blink
	case "s":
		a.mode = ModeConfirmStop
		a.statusMsg = "Stop the whole stack? (y/n)"
	}

	return a, nil
}

func (a App) doAction(req uds.ActionRequest) (tea.Model, tea.Cmd) {
	if a.client == nil {
		a.statusMsg = "not connected"
		return a, nil
	}
	if a.pending != "" {
		a.statusMsg = a.pending + " still running"
		return a, nil
	}
	a.pending = req.Action
	a.statusMsg = ""
	return a, tea.Batch(actionCmd(a.client, req), a.spin.Tick)
}

func (a *App) setReport(r monitor.Report) {
	a.report = r
	a.hasReport = true
	if n := len(r.Services); a.selectedIdx >= n {
		a.selectedIdx = max(0, n-1)
	}
}

func (a App) selectedService() *core.ServiceRecord {
	if a.selectedIdx < len(a.report.Services) {
		return &a.report.Services[a.selectedIdx]
	}
	return nil
}

func (a App) logPaneHeight() int {
	return max(a.height/3, 5)
}
