package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fd1az/arbitrage-scanner/pkg/ui/components"
)

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	// Components
	books  *components.BooksComponent
	alerts *components.AlertsComponent
	stats  *components.StatsComponent
	status *components.StatusComponent

	keys KeyMap
	help help.Model

	// Phase state
	phase        Phase
	welcomeStart time.Time
	startupTime  time.Time

	// State
	quitting bool
	width    int
	height   int
	venues   []string
	errors   []ErrorEntry
}

// New creates a new TUI model.
func New() Model {
	now := time.Now()
	return Model{
		books:        components.NewBooksComponent(),
		alerts:       components.NewAlertsComponent(50, 8),
		stats:        components.NewStatsComponent(),
		status:       components.NewStatusComponent(),
		keys:         DefaultKeyMap(),
		help:         help.New(),
		phase:        PhaseWelcome,
		welcomeStart: now,
		startupTime:  now,
	}
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// tickCmd returns a command that sends a tick every 100ms for smooth animations.
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

// enterStartup leaves the welcome screen and signals main to start modules.
func (m *Model) enterStartup() {
	m.phase = PhaseStartup
	m.startupTime = time.Now()
	// Trigger callback directly (don't use Send() from within Update)
	if OnStartModules != nil {
		go OnStartModules()
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Always allow quit
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		// During welcome phase, any other key skips ahead
		if m.phase == PhaseWelcome {
			m.enterStartup()
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Clear):
			m.alerts.Clear()
		case key.Matches(msg, m.keys.Pause):
			st := m.status.Status()
			st.Paused = !st.Paused
			m.status.Update(st)
		case key.Matches(msg, m.keys.Up):
			m.alerts.ScrollUp()
		case key.Matches(msg, m.keys.Down):
			m.alerts.ScrollDown()
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case TickMsg:
		if m.phase == PhaseWelcome && time.Since(m.welcomeStart) >= WelcomeDuration {
			m.enterStartup()
		}
		return m, tickCmd()

	case ScanStartedMsg:
		m.venues = msg.Venues
		m.books.SetSymbol(msg.Symbol)
		m.status.Update(components.ScanStatus{
			Symbol:    msg.Symbol,
			Notional:  msg.Notional,
			Threshold: msg.Threshold,
			Cadence:   msg.Cadence,
			Simulate:  msg.Simulate,
			Running:   true,
		})
		if m.phase == PhaseWelcome {
			m.phase = PhaseStartup
		}

	case CycleMsg:
		m.phase = PhaseDashboard

		stats := m.stats.Stats()
		stats.Cycles = msg.Iteration
		stats.LastLatency = msg.Latency
		if msg.Alert != nil {
			stats.Opportunities++
			if msg.Alert.Simulated {
				stats.Simulated++
			}
		}
		m.stats.Update(stats)

		st := m.status.Status()
		if st.Paused {
			return m, nil
		}
		st.LastCycle = time.Now()
		m.status.Update(st)

		m.books.Update(msg.Books, msg.Spread, msg.SpreadNegative, msg.Available)
		if msg.Alert != nil {
			m.alerts.Add(*msg.Alert)
		}

	case StoppedMsg:
		st := m.status.Status()
		st.Running = false
		m.status.Update(st)

	case ErrorMsg:
		m.errors = append(m.errors, ErrorEntry{
			Message:   msg.Error.Error(),
			Timestamp: time.Now(),
		})
		if len(m.errors) > maxErrors {
			m.errors = m.errors[len(m.errors)-maxErrors:]
		}
		stats := m.stats.Stats()
		stats.Errors++
		m.stats.Update(stats)
	}

	return m, nil
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}

	switch m.phase {
	case PhaseWelcome:
		return m.renderWelcomeScreen()
	case PhaseStartup:
		return m.renderStartupScreen()
	}

	var b strings.Builder

	b.WriteString(TitleStyle.Render(" Cross-Venue Depth Scanner "))
	b.WriteString("\n\n")
	b.WriteString(m.status.View())
	b.WriteString("\n\n")

	left := m.books.View()
	right := m.alerts.View()
	if m.width > 100 {
		l := BoxStyle.Width(m.width/2 - 2).Render(left)
		r := BoxStyle.Width(m.width/2 - 2).Render(right)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, l, r))
	} else {
		width := max(m.width-4, 40)
		b.WriteString(BoxStyle.Width(width).Render(left))
		b.WriteString("\n")
		b.WriteString(BoxStyle.Width(width).Render(right))
	}
	b.WriteString("\n\n")
	b.WriteString(m.stats.View())
	b.WriteString("\n\n")

	if len(m.errors) > 0 {
		errorStyle := lipgloss.NewStyle().Foreground(ColorDanger)
		b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(ColorDanger).Render("ERRORS"))
		b.WriteString("\n")
		for _, err := range m.errors {
			ago := time.Since(err.Timestamp).Round(time.Second)
			b.WriteString(errorStyle.Render(fmt.Sprintf("  • %s ", err.Message)))
			b.WriteString(MutedValue.Render(fmt.Sprintf("(%s ago)", ago)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(HelpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

// renderWelcomeScreen renders the animated welcome screen.
func (m Model) renderWelcomeScreen() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	greenStyle := lipgloss.NewStyle().Foreground(ColorSecondary)

	dots := strings.Repeat(".", int(time.Since(m.welcomeStart).Milliseconds()/300)%4)

	var sb strings.Builder
	sb.WriteString("\n\n\n")
	sb.WriteString(titleStyle.Render("    C R O S S - V E N U E   D E P T H   S C A N N E R"))
	sb.WriteString("\n\n")
	sb.WriteString(MutedValue.Render("    order-book arbitrage radar, net of fees and slippage"))
	sb.WriteString("\n\n\n")
	sb.WriteString(greenStyle.Render(fmt.Sprintf("    Initializing%s", dots)))
	sb.WriteString("\n\n")
	sb.WriteString(MutedValue.Render("    Press any key to skip, or wait..."))
	sb.WriteString("\n")
	return sb.String()
}

// renderStartupScreen renders the loading screen shown until the first cycle.
func (m Model) renderStartupScreen() string {
	spinners := []string{"◐", "◓", "◑", "◒"}
	idx := int(time.Since(m.startupTime).Milliseconds()/200) % len(spinners)
	connecting := lipgloss.NewStyle().Foreground(ColorWarning)

	var sb strings.Builder
	sb.WriteString("\n\n")
	sb.WriteString(HeaderStyle.Render("  Starting up..."))
	sb.WriteString("\n\n")
	if len(m.venues) == 0 {
		sb.WriteString(fmt.Sprintf("  %s %s\n", connecting.Render(spinners[idx]), MutedValue.Render("Loading venues")))
	}
	for _, v := range m.venues {
		sb.WriteString(fmt.Sprintf("  %s %s\n", connecting.Render(spinners[idx]), MutedValue.Render("Fetching "+v+" order book")))
	}
	sb.WriteString("\n")
	sb.WriteString(MutedValue.Render(fmt.Sprintf("  Elapsed: %s", time.Since(m.startupTime).Round(time.Second))))
	sb.WriteString("\n")
	return sb.String()
}

// Program holds the Bubble Tea program instance for external access.
var Program *tea.Program

// OnStartModules is called when the welcome screen completes and modules should start.
// This is set by main.go to signal when to begin loading modules.
var OnStartModules func()

// Send sends a message to the running program.
func Send(msg tea.Msg) {
	if Program != nil {
		Program.Send(msg)
	}
}
