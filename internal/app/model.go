// Package app implements the main Bubble Tea application with tab-based navigation.
package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/ha-stats-fixer/internal/logger"
	"github.com/j-veylop/ha-stats-fixer/internal/models"
	"github.com/j-veylop/ha-stats-fixer/internal/services"
	"github.com/j-veylop/ha-stats-fixer/internal/services/fixer"
	"github.com/j-veylop/ha-stats-fixer/internal/ui/styles"
)

// changeWarningInterval limits how often outside writes are announced.
const changeWarningInterval = 30 * time.Second

// TabID represents the identifier for a tab in the application.
type TabID int

const (
	// TabCorrect is the ID for the correction form tab.
	TabCorrect TabID = iota
	// TabChart is the ID for the chart tab.
	TabChart
	// TabInfo is the ID for the info tab.
	TabInfo
)

// String returns the string representation of the TabID.
func (t TabID) String() string {
	switch t {
	case TabCorrect:
		return "Correct"
	case TabChart:
		return "Chart"
	case TabInfo:
		return "Info"
	default:
		return "Unknown"
	}
}

// Tab defines the interface that all tabs must implement.
type Tab interface {
	// Init initializes the tab and returns any initial commands.
	Init() tea.Cmd

	// Update handles messages and returns the updated tab and any commands.
	Update(msg tea.Msg) (Tab, tea.Cmd)

	// View renders the tab content.
	View() string

	// SetSize sets the available size for the tab.
	SetSize(width, height int)

	// ShortHelp returns key bindings for the short help view.
	ShortHelp() []key.Binding

	// FullHelp returns key bindings for the full help view.
	FullHelp() [][]key.Binding
}

// InputCapturer is implemented by tabs that take text input. While
// CapturesInput is true, global keys other than ctrl+c go to the tab.
type InputCapturer interface {
	CapturesInput() bool
}

// KeyMap defines the keybindings for the application.
type KeyMap struct {
	Tab1      key.Binding
	Tab2      key.Binding
	Tab3      key.Binding
	NextTab   key.Binding
	PrevTab   key.Binding
	Help      key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
	Escape    key.Binding
	Confirm   key.Binding
	Deny      key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	km := KeyMap{}
	km = setTabKeys(km)
	km = setActionKeys(km)
	return km
}

func setTabKeys(k KeyMap) KeyMap {
	k.Tab1 = key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "correct"))
	k.Tab2 = key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "chart"))
	k.Tab3 = key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "info"))
	k.NextTab = key.NewBinding(key.WithKeys("tab", "l", "right"), key.WithHelp("tab/→", "next tab"))
	k.PrevTab = key.NewBinding(key.WithKeys("shift+tab", "h", "left"), key.WithHelp("shift+tab/←", "prev tab"))
	return k
}

func setActionKeys(k KeyMap) KeyMap {
	k.Help = key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help"))
	k.Quit = key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit"))
	k.ForceQuit = key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit"))
	k.Escape = key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel"))
	k.Confirm = key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "proceed without backup"))
	k.Deny = key.NewBinding(key.WithKeys("n", "N", "esc"), key.WithHelp("n/esc", "abort"))
	return k
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab1, k.Tab2, k.Tab3},
		{k.NextTab, k.PrevTab},
		{k.Help, k.Quit},
	}
}

// Styles defines the application styles.
type Styles struct {
	// Tab bar styles
	TabBar       lipgloss.Style
	ActiveTab    lipgloss.Style
	InactiveTab  lipgloss.Style
	TabSeparator lipgloss.Style

	// Notification styles
	NotificationSuccess lipgloss.Style
	NotificationError   lipgloss.Style
	NotificationWarning lipgloss.Style
	NotificationInfo    lipgloss.Style

	// Content styles
	Content lipgloss.Style
	Help    lipgloss.Style
	Spinner lipgloss.Style
	Toast   lipgloss.Style

	// Common styles
	Title     lipgloss.Style
	Subtle    lipgloss.Style
	Highlight lipgloss.Style
	Error     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
}

// DefaultStyles returns the default application styles.
func DefaultStyles() Styles {
	subtle := lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}
	highlight := lipgloss.AdaptiveColor{Light: "#03A9F4", Dark: "#41BDF5"}
	success := lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#04B575"}
	warning := lipgloss.AdaptiveColor{Light: "#FF8C00", Dark: "#FF8C00"}
	errorColor := lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"}
	info := lipgloss.AdaptiveColor{Light: "#0087D7", Dark: "#5FAFFF"}

	s := Styles{}
	s.TabBar = lipgloss.NewStyle().Padding(0, 1).BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).BorderForeground(subtle)
	s.ActiveTab = lipgloss.NewStyle().Bold(true).Foreground(highlight).Padding(0, 2)
	s.InactiveTab = lipgloss.NewStyle().Foreground(subtle).Padding(0, 2)
	s.TabSeparator = lipgloss.NewStyle().Foreground(subtle).SetString(" | ")

	s.NotificationSuccess = lipgloss.NewStyle().Foreground(success).Padding(0, 1)
	s.NotificationError = lipgloss.NewStyle().Foreground(errorColor).Bold(true).Padding(0, 1)
	s.NotificationWarning = lipgloss.NewStyle().Foreground(warning).Padding(0, 1)
	s.NotificationInfo = lipgloss.NewStyle().Foreground(info).Padding(0, 1)

	s.Content = lipgloss.NewStyle().Padding(1, 2)
	s.Help = lipgloss.NewStyle().Foreground(subtle).Padding(0, 1)
	s.Spinner = lipgloss.NewStyle().Foreground(highlight)
	s.Toast = styles.ToastStyle

	s.Title = lipgloss.NewStyle().Bold(true).Foreground(highlight)
	s.Subtle = lipgloss.NewStyle().Foreground(subtle)
	s.Highlight = lipgloss.NewStyle().Foreground(highlight)
	s.Error = lipgloss.NewStyle().Foreground(errorColor)
	s.Success = lipgloss.NewStyle().Foreground(success)
	s.Warning = lipgloss.NewStyle().Foreground(warning)

	return s
}

// Model is the main application model.
type Model struct {
	// Tab management
	activeTab TabID
	tabs      []Tab
	tabNames  []string

	// Shared state
	state    *State
	services *services.Manager
	ops      Operations
	keymap   KeyMap
	styles   Styles

	// UI components
	spinner spinner.Model

	// Window dimensions
	width  int
	height int

	// UI state
	showHelp bool
	ready    bool

	// Service subscription
	eventChannel chan services.ServiceEvent

	lastChangeWarning time.Time
}

// NewModel initializes a new application model. mgr may be nil.
func NewModel(mgr *services.Manager) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	m := &Model{
		activeTab: TabCorrect,
		tabNames:  []string{"Correct", "Chart", "Info"},
		tabs:      make([]Tab, 3), // Placeholder - tabs will be set externally
		state:     NewState(),
		services:  mgr,
		keymap:    DefaultKeyMap(),
		styles:    DefaultStyles(),
		spinner:   s,
	}
	if mgr != nil {
		m.ops = mgr
	}

	return m
}

// SetTabs sets the tabs for the model.
func (m *Model) SetTabs(tabs []Tab) {
	m.tabs = tabs
	if m.width > 0 && m.height > 0 {
		m.updateTabSizes()
	}
}

// SetOperations replaces what runs the operations.
func (m *Model) SetOperations(ops Operations) {
	m.ops = ops
}

// GetState returns the application state.
func (m *Model) GetState() *State {
	return m.state
}

// GetServices returns the service manager.
func (m *Model) GetServices() *services.Manager {
	return m.services
}

// GetKeyMap returns the key bindings.
func (m *Model) GetKeyMap() KeyMap {
	return m.keymap
}

// GetStyles returns the application styles.
func (m *Model) GetStyles() Styles {
	return m.styles
}

// GetActiveTab returns the currently active tab ID.
func (m *Model) GetActiveTab() TabID {
	return m.activeTab
}

// IsReady returns true if the model is ready (window size received).
func (m *Model) IsReady() bool {
	return m.ready
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.spinner.Tick,
		defaultTickCmd(),
	}

	if m.services != nil {
		cmds = append(cmds, subscribeToServicesCmd(m.services))
	}

	for _, tab := range m.tabs {
		if tab != nil {
			cmds = append(cmds, tab.Init())
		}
	}

	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmd, handled := m.handleKeyMsg(msg)
		if handled {
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.handleWindowSize(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	default:
		cmds = append(cmds, m.handleAppMsg(msg)...)
	}

	if cmd := m.updateActiveTab(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleAppMsg(msg tea.Msg) []tea.Cmd {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case TickMsg:
		m.state.ClearExpiredNotifications()
		cmds = append(cmds, defaultTickCmd())
	case SubscriptionEventMsg:
		m.eventChannel = msg.Channel
		cmds = append(cmds, waitForServiceEventCmd(m.eventChannel))
	case ServiceEventMsg:
		cmds = append(cmds, m.handleServiceEvent(msg.Event))
		if m.eventChannel != nil {
			cmds = append(cmds, waitForServiceEventCmd(m.eventChannel))
		}
	case RunOperationMsg:
		cmds = append(cmds, m.runOperation(msg))
	case PreviewDoneMsg:
		cmds = append(cmds, m.handlePreviewDone(msg)...)
	case DiagnoseDoneMsg:
		cmds = append(cmds, m.handleDiagnoseDone(msg))
	case ApplyDoneMsg:
		cmds = append(cmds, m.handleApplyDone(msg)...)
	case SeriesDoneMsg:
		cmds = append(cmds, m.handleSeriesDone(msg))
	case AddNotificationMsg:
		id := m.state.AddNotification(msg.Type, msg.Message, msg.Duration)
		if msg.Duration > 0 {
			cmds = append(cmds, clearNotificationCmd(id, msg.Duration))
		}
	case RemoveNotificationMsg:
		m.state.RemoveNotification(msg.ID)
	case ErrorMsg:
		cmds = append(cmds, notifyErrorCmd(msg.Error.Error()))
	case ClearTranscriptMsg:
		m.state.ClearTranscript()
	case TabSwitchMsg:
		m.activeTab = msg.Tab
		m.updateTabSizes()
	case ToggleHelpMsg:
		m.showHelp = !m.showHelp
	}
	return cmds
}

func (m *Model) handleWindowSize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true
	m.updateTabSizes()
}

// runOperation starts op unless another operation is still running.
func (m *Model) runOperation(msg RunOperationMsg) tea.Cmd {
	if m.ops == nil {
		return notifyErrorCmd("No service manager available")
	}
	if running, busy := m.state.Busy(); busy {
		return notifyWarningCmd(fmt.Sprintf("Wait for %s to finish", running))
	}
	if !m.state.Begin(msg.Op) {
		return nil
	}

	m.state.SetDatabasePath(msg.Request.DatabasePath)
	if m.services != nil {
		if err := m.services.WatchDatabase(msg.Request.DatabasePath); err != nil {
			logger.Warn("failed to watch database", "path", msg.Request.DatabasePath, "error", err)
		}
	}

	switch msg.Op {
	case OpPreview:
		m.state.SetLoadingNotification("Running preview...")
		return previewCmd(m.ops, msg.Request)
	case OpDiagnose:
		m.state.SetLoadingNotification("Running diagnose...")
		return diagnoseCmd(m.ops, msg.Request)
	case OpApply:
		m.state.SetLoadingNotification("Applying offset...")
		return applyCmd(m.ops, fixer.ApplyRequest{Request: msg.Request, Offset: msg.Offset})
	case OpSeries:
		return seriesCmd(m.ops, msg.Request)
	}

	m.state.End()
	return nil
}

// endOperation clears the busy flag and records the transcript.
func (m *Model) endOperation(op Operation, report *fixer.Report) {
	m.state.End()
	m.state.ClearLoadingNotification()
	if report != nil {
		m.state.AppendTranscript(op, time.Now(), report.Transcript)
	}
}

// refreshSeries reloads the chart after an operation on req succeeded.
func (m *Model) refreshSeries(req fixer.Request) tea.Cmd {
	return RunOperation(OpSeries, req, "")
}

func (m *Model) handlePreviewDone(msg PreviewDoneMsg) []tea.Cmd {
	var report *fixer.Report
	if msg.Result != nil {
		report = &msg.Result.Report
		m.state.SetPreview(msg.Result)
	}
	m.endOperation(OpPreview, report)

	if msg.Err != nil {
		return []tea.Cmd{notifyErrorCmd(fmt.Sprintf("Preview failed: %v", msg.Err))}
	}
	return []tea.Cmd{
		notifySuccessCmd(fmt.Sprintf("%d row(s) in range", msg.Result.Counts.InRange)),
		m.refreshSeries(msg.Request),
	}
}

func (m *Model) handleDiagnoseDone(msg DiagnoseDoneMsg) tea.Cmd {
	var report *fixer.Report
	if msg.Result != nil {
		report = &msg.Result.Report
		m.state.SetDiagnose(msg.Result)
	}
	m.endOperation(OpDiagnose, report)

	if msg.Err != nil {
		return notifyErrorCmd(fmt.Sprintf("Diagnose failed: %v", msg.Err))
	}
	return notifyInfoCmd(fmt.Sprintf("%d row(s) stored for this entity", msg.Result.Summary.RowCount))
}

func (m *Model) handleApplyDone(msg ApplyDoneMsg) []tea.Cmd {
	var report *fixer.Report
	if msg.Result != nil {
		report = &msg.Result.Report
		m.state.SetApply(msg.Result)
	}
	m.endOperation(OpApply, report)

	switch {
	case errors.Is(msg.Err, models.ErrBackupFailed) && msg.Request.ConfirmWithoutBackup == nil:
		m.state.SetPendingApply(msg.Request, msg.Err)
		return nil
	case msg.Err != nil:
		return []tea.Cmd{notifyErrorCmd(fmt.Sprintf("Apply failed: %v", msg.Err))}
	case !msg.Result.Committed:
		return []tea.Cmd{notifyWarningCmd("No rows were changed")}
	}

	var rows int64
	for _, c := range msg.Result.Updated {
		rows += c.Rows
	}
	return []tea.Cmd{
		notifySuccessCmd(fmt.Sprintf("Applied offset %s to %d row(s)",
			models.FormatOffset(msg.Result.Offset), rows+msg.Result.ShortTermUpdated)),
		m.refreshSeries(msg.Request.Request),
	}
}

func (m *Model) handleSeriesDone(msg SeriesDoneMsg) tea.Cmd {
	m.state.End()
	if msg.Err != nil {
		logger.Debug("failed to load chart rows", "error", msg.Err)
		return nil
	}
	m.state.SetSeries(msg.Result)
	if msg.Result.Truncated {
		return notifyInfoCmd("Chart shows the first rows of the range only")
	}
	return nil
}

func (m *Model) updateActiveTab(msg tea.Msg) tea.Cmd {
	if int(m.activeTab) < len(m.tabs) && m.tabs[m.activeTab] != nil {
		var cmd tea.Cmd
		m.tabs[m.activeTab], cmd = m.tabs[m.activeTab].Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) updateTabSizes() {
	contentHeight := m.height - 5
	contentHeight = max(0, contentHeight)

	for _, tab := range m.tabs {
		if tab != nil {
			tab.SetSize(m.width, contentHeight)
		}
	}
}

func (m *Model) capturesInput() bool {
	if int(m.activeTab) >= len(m.tabs) || m.tabs[m.activeTab] == nil {
		return false
	}
	c, ok := m.tabs[m.activeTab].(InputCapturer)
	return ok && c.CapturesInput()
}

// handleKeyMsg handles keyboard input. handled reports whether the key
// must not reach the active tab.
func (m *Model) handleKeyMsg(msg tea.KeyMsg) (cmd tea.Cmd, handled bool) {
	if key.Matches(msg, m.keymap.ForceQuit) {
		return tea.Quit, true
	}

	if req, _ := m.state.PendingApply(); req != nil {
		return m.handleBackupDecision(msg), true
	}

	if m.capturesInput() {
		return nil, false
	}

	switch {
	case key.Matches(msg, m.keymap.Quit):
		return tea.Quit, true

	case key.Matches(msg, m.keymap.Help):
		m.showHelp = !m.showHelp
		return nil, true

	case key.Matches(msg, m.keymap.Tab1):
		m.switchTab(TabCorrect)
		return nil, true

	case key.Matches(msg, m.keymap.Tab2):
		m.switchTab(TabChart)
		return nil, true

	case key.Matches(msg, m.keymap.Tab3):
		m.switchTab(TabInfo)
		return nil, true

	case key.Matches(msg, m.keymap.NextTab):
		if !m.showHelp {
			m.switchTab(TabID((int(m.activeTab) + 1) % len(m.tabs)))
		}
		return nil, true

	case key.Matches(msg, m.keymap.PrevTab):
		if !m.showHelp {
			m.switchTab(TabID((int(m.activeTab) - 1 + len(m.tabs)) % len(m.tabs)))
		}
		return nil, true

	case key.Matches(msg, m.keymap.Escape):
		if m.showHelp {
			m.showHelp = false
			return nil, true
		}
	}

	return nil, false
}

func (m *Model) switchTab(id TabID) {
	m.activeTab = id
	m.updateTabSizes()
}

// handleBackupDecision resolves a parked apply after a failed backup.
func (m *Model) handleBackupDecision(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keymap.Confirm):
		req := m.state.TakePendingApply()
		req.ConfirmWithoutBackup = func(error) bool { return true }
		if m.ops == nil || !m.state.Begin(OpApply) {
			return notifyWarningCmd("Apply could not be restarted")
		}
		m.state.SetLoadingNotification("Applying offset without backup...")
		return applyCmd(m.ops, *req)

	case key.Matches(msg, m.keymap.Deny):
		m.state.TakePendingApply()
		return notifyInfoCmd("Aborted: no backup was made, no rows were changed")
	}
	return nil
}

func (m *Model) handleServiceEvent(event services.ServiceEvent) tea.Cmd {
	switch e := event.(type) {
	case services.DatabaseChangedEvent:
		m.state.MarkDatabaseChanged(e.Time)
		if time.Since(m.lastChangeWarning) < changeWarningInterval {
			return nil
		}
		m.lastChangeWarning = time.Now()
		return notifyWarningCmd("Database written by another process. Stop Home Assistant before applying.")

	case services.DatabaseRemovedEvent:
		return notifyErrorCmd(fmt.Sprintf("Database removed: %s", e.Path))

	case services.CorrectionAppliedEvent:
		logger.Debug("correction applied", "entity_id", e.EntityID)

	case services.ErrorEvent:
		return notifyErrorCmd(fmt.Sprintf("[%s] %v", e.Service, e.Error))
	}

	return nil
}

// View renders the application UI.
func (m *Model) View() string {
	var b strings.Builder

	if m.width > 0 {
		b.WriteString(m.renderNavbar())
		b.WriteString("\n")
	}

	if !m.ready {
		b.WriteString(m.styles.Content.Render(fmt.Sprintf("%s Loading...", m.spinner.View())))
		return b.String()
	}

	if int(m.activeTab) < len(m.tabs) && m.tabs[m.activeTab] != nil {
		b.WriteString(m.tabs[m.activeTab].View())
	} else {
		b.WriteString(m.renderPlaceholder())
	}

	mainView := b.String()

	if req, backupErr := m.state.PendingApply(); req != nil {
		mainView = m.overlayCentered(mainView, m.renderBackupConfirm(backupErr))
	} else if m.showHelp {
		mainView = m.overlayCentered(mainView, m.renderHelp())
	}

	notifications := m.renderNotifications()

	if len(notifications) > 0 {
		return m.overlayToasts(mainView, notifications)
	}

	return mainView
}

func (m *Model) overlayCentered(mainView string, overlay string) string {
	mainLines := strings.Split(mainView, "\n")
	overlayLines := strings.Split(overlay, "\n")

	overlayHeight := len(overlayLines)
	overlayWidth := lipgloss.Width(overlay)

	y := max((m.height-overlayHeight)/2, 0)
	x := max((m.width-overlayWidth)/2, 0)

	for len(mainLines) < y+overlayHeight {
		mainLines = append(mainLines, "")
	}

	for i, overlayLine := range overlayLines {
		mainY := y + i
		mainLine := mainLines[mainY]

		left := ansi.Truncate(mainLine, x, "")
		right := ansi.TruncateLeft(mainLine, x+overlayWidth, "")

		if lipgloss.Width(left) < x {
			left += strings.Repeat(" ", x-lipgloss.Width(left))
		}

		mainLines[mainY] = left + overlayLine + right
	}

	return strings.Join(mainLines, "\n")
}

func (m *Model) renderNavbar() string {
	var tabs []string

	for i, name := range m.tabNames {
		if TabID(i) == m.activeTab {
			tabs = append(tabs, m.styles.ActiveTab.Render(fmt.Sprintf("[%d] %s", i+1, name)))
		} else {
			tabs = append(tabs, m.styles.InactiveTab.Render(fmt.Sprintf(" %d  %s", i+1, name)))
		}
	}

	if changed := m.state.DatabaseChanged(); !changed.IsZero() {
		tabs = append(tabs, m.styles.Warning.Render(
			fmt.Sprintf("  database changed %s", changed.Format("15:04:05"))))
	}

	tabBar := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)

	return m.styles.TabBar.Width(m.width).Render(tabBar)
}

func (m *Model) renderNotifications() []string {
	notifications := m.state.GetNotifications()
	if len(notifications) == 0 {
		return nil
	}

	var toasts []string
	for _, n := range notifications {
		var style lipgloss.Style
		var prefix string

		switch n.Type {
		case NotificationSuccess:
			style = m.styles.NotificationSuccess
			prefix = "[OK]"
		case NotificationError:
			style = m.styles.NotificationError
			prefix = "[ERR]"
		case NotificationWarning:
			style = m.styles.NotificationWarning
			prefix = "[WARN]"
		case NotificationInfo:
			style = m.styles.NotificationInfo
			prefix = "[INFO]"
		case NotificationLoading:
			style = m.styles.NotificationInfo
			prefix = m.spinner.View()
		}

		content := style.Render(fmt.Sprintf("%s %s", prefix, n.Message))
		toasts = append(toasts, m.styles.Toast.Render(content))
	}

	return toasts
}

func (m *Model) overlayToasts(mainView string, toasts []string) string {
	if len(toasts) == 0 {
		return mainView
	}

	toastStack := lipgloss.JoinVertical(lipgloss.Right, toasts...)
	toastLines := strings.Split(toastStack, "\n")
	mainLines := strings.Split(mainView, "\n")

	toastWidth := lipgloss.Width(toastStack)
	startX := max(m.width-toastWidth-2, 0)

	startY := 2

	for i, toastLine := range toastLines {
		lineIdx := startY + i
		if lineIdx >= len(mainLines) {
			break
		}

		mainLine := mainLines[lineIdx]
		mainLineWidth := lipgloss.Width(mainLine)

		if mainLineWidth < startX {
			padding := strings.Repeat(" ", startX-mainLineWidth)
			mainLines[lineIdx] = mainLine + padding + toastLine
		} else {
			truncated := ansi.Truncate(mainLine, startX, "")
			mainLines[lineIdx] = truncated + toastLine
		}
	}

	return strings.Join(mainLines, "\n")
}

func (m *Model) renderBackupConfirm(backupErr error) string {
	lines := []string{
		m.styles.Error.Render("Backup failed"),
		"",
		fmt.Sprintf("%v", backupErr),
		"",
		"Continue WITHOUT a backup?",
		"There is no way back if the offset is wrong.",
		"",
		m.styles.Subtle.Render("y proceed  •  n/esc abort"),
	}
	return styles.ModalContentStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderHelp() string {
	var lines []string

	lines = append(lines, m.styles.Title.Render("Keyboard Shortcuts"))
	lines = append(lines, "")

	lines = append(lines, m.styles.Highlight.Render("Navigation"))
	lines = append(lines, "  1-3        Switch tabs")
	lines = append(lines, "  Tab        Next tab")
	lines = append(lines, "  Shift+Tab  Previous tab")
	lines = append(lines, "")

	lines = append(lines, m.styles.Highlight.Render("Actions"))
	lines = append(lines, "  ?          Toggle help")
	lines = append(lines, "  q/Ctrl+C   Quit")
	lines = append(lines, "")

	if int(m.activeTab) < len(m.tabs) && m.tabs[m.activeTab] != nil {
		tabHelp := m.tabs[m.activeTab].ShortHelp()
		if len(tabHelp) > 0 {
			lines = append(lines, m.styles.Highlight.Render(fmt.Sprintf("%s Tab", m.tabNames[m.activeTab])))
			for _, binding := range tabHelp {
				lines = append(lines, fmt.Sprintf("  %-10s %s", binding.Help().Key, binding.Help().Desc))
			}
		}
	}

	lines = append(lines, "")
	lines = append(lines, m.styles.Subtle.Render("Press ? or Esc to close"))

	return styles.HelpPanelStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderPlaceholder() string {
	content := fmt.Sprintf(
		"Tab %d: %s\n\n%s",
		m.activeTab+1,
		m.tabNames[m.activeTab],
		m.styles.Subtle.Render("This tab is not yet implemented."),
	)
	return m.styles.Content.Render(content)
}
