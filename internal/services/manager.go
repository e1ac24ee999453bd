// Package services provides service orchestration for the TUI.
package services

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"

	"github.com/j-veylop/ha-stats-fixer/internal/config"
	"github.com/j-veylop/ha-stats-fixer/internal/logger"
	"github.com/j-veylop/ha-stats-fixer/internal/models"
	"github.com/j-veylop/ha-stats-fixer/internal/services/fixer"
	"github.com/j-veylop/ha-stats-fixer/internal/services/watch"
)

// ownWriteGrace is how long watcher events are ignored after an operation
// closed its connection.
const ownWriteGrace = 3 * time.Second

type (
	// DatabaseChangedEvent is emitted when another process writes to the database.
	DatabaseChangedEvent struct {
		Path string
		Time time.Time
	}

	// DatabaseRemovedEvent is emitted when the watched database disappears.
	DatabaseRemovedEvent struct {
		Path string
	}

	// CorrectionAppliedEvent is emitted after a committed correction.
	CorrectionAppliedEvent struct {
		EntityID string
		Result   *fixer.ApplyResult
	}

	// ErrorEvent is emitted when an error occurs in any service.
	ErrorEvent struct {
		Service string
		Error   error
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (DatabaseChangedEvent) isServiceEvent()   {}
func (DatabaseRemovedEvent) isServiceEvent()   {}
func (CorrectionAppliedEvent) isServiceEvent() {}
func (ErrorEvent) isServiceEvent()             {}

// notify sends a desktop notification.
var notify = func(title, body string) error {
	return beeep.Notify(title, body, "")
}

// Manager orchestrates services and event routing.
type Manager struct {
	mu          sync.RWMutex
	cfg         *config.Config
	fixer       *fixer.Service
	watcher     *watch.Service
	watchStop   chan struct{}
	stopChan    chan struct{}
	closeOnce   sync.Once
	subscribers []chan ServiceEvent
}

// NewManager creates a new service manager. A database that cannot be watched
// is reported as an ErrorEvent, not as a failure.
func NewManager(cfg *config.Config, opts ...fixer.Option) *Manager {
	m := &Manager{
		cfg:      cfg,
		fixer:    fixer.New(opts...),
		stopChan: make(chan struct{}),
	}

	if cfg.DatabasePath != "" {
		if err := m.WatchDatabase(cfg.DatabasePath); err != nil {
			logger.Warn("failed to watch database", "path", cfg.DatabasePath, "error", err)
		}
	}

	return m
}

// Config returns the configuration the manager was created with.
func (m *Manager) Config() *config.Config {
	return m.cfg
}

// WatchDatabase replaces the watched database. It is a no-op when watching
// is disabled or path is already watched.
func (m *Manager) WatchDatabase(path string) error {
	if !m.cfg.WatchDatabase || path == "" {
		return nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.watcher != nil && m.watcher.Path() == abs {
		return nil
	}
	m.stopWatcherLocked()

	w, err := watch.New(abs)
	if err != nil {
		return err
	}
	m.watcher = w
	m.watchStop = make(chan struct{})
	go m.routeEvents(w, m.watchStop)

	logger.Info("watching database", "path", abs)
	return nil
}

func (m *Manager) stopWatcherLocked() {
	if m.watcher == nil {
		return
	}
	close(m.watchStop)
	if err := m.watcher.Close(); err != nil {
		logger.Error("failed to close watcher", "error", err)
	}
	m.watcher = nil
}

// routeEvents converts watcher events into service events.
func (m *Manager) routeEvents(w *watch.Service, stop <-chan struct{}) {
	for {
		select {
		case event := <-w.Events():
			m.handleWatchEvent(event)
		case <-stop:
			return
		case <-m.stopChan:
			return
		}
	}
}

func (m *Manager) handleWatchEvent(event watch.Event) {
	switch event.Type {
	case watch.EventWritten:
		logger.Warn("database written by another process", "path", event.Path)
		m.broadcast(DatabaseChangedEvent{Path: event.Path, Time: event.Time})
	case watch.EventRemoved:
		m.broadcast(DatabaseRemovedEvent{Path: event.Path})
	case watch.EventError:
		m.broadcast(ErrorEvent{Service: "watch", Error: event.Error})
	}
}

// quiet mutes the watcher while fn touches the database at path.
func (m *Manager) quiet(path string, fn func()) {
	m.mu.RLock()
	w := m.watcher
	m.mu.RUnlock()

	if w != nil {
		if abs, err := filepath.Abs(path); err == nil && abs == w.Path() {
			w.Pause()
			defer w.Resume(ownWriteGrace)
		}
	}
	fn()
}

// Preview runs a preview against the request's database.
func (m *Manager) Preview(req fixer.Request) (res *fixer.PreviewResult, err error) {
	m.quiet(req.DatabasePath, func() {
		res, err = m.fixer.Preview(req)
	})
	return res, err
}

// Diagnose runs a diagnosis against the request's database.
func (m *Manager) Diagnose(req fixer.Request) (res *fixer.DiagnoseResult, err error) {
	m.quiet(req.DatabasePath, func() {
		res, err = m.fixer.Diagnose(req)
	})
	return res, err
}

// Series loads the in-window rows for charting.
func (m *Manager) Series(req fixer.Request) (res *fixer.SeriesResult, err error) {
	m.quiet(req.DatabasePath, func() {
		res, err = m.fixer.Series(req)
	})
	return res, err
}

// Apply runs a correction and announces it when it was committed.
func (m *Manager) Apply(req fixer.ApplyRequest) (res *fixer.ApplyResult, err error) {
	m.quiet(req.DatabasePath, func() {
		res, err = m.fixer.Apply(req)
	})
	if err != nil || !res.Committed {
		return res, err
	}

	m.broadcast(CorrectionAppliedEvent{EntityID: req.EntityID, Result: res})
	if m.cfg.DesktopNotifications {
		m.notifyApplied(req, res)
	}
	return res, nil
}

func (m *Manager) notifyApplied(req fixer.ApplyRequest, res *fixer.ApplyResult) {
	title := fmt.Sprintf("Correction applied: %s", req.EntityID)
	body := fmt.Sprintf("Offset %s on %d row(s). Restart Home Assistant to see the change.",
		models.FormatOffset(res.Offset), totalRows(res))
	if err := notify(title, body); err != nil {
		logger.Debug("desktop notification failed", "error", err)
	}
}

func totalRows(res *fixer.ApplyResult) int64 {
	var n int64
	for _, c := range res.Updated {
		n += c.Rows
	}
	return n + res.ShortTermUpdated
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, waitForEvent(ch)
}

// waitForEvent returns a tea.Cmd that waits for the next event.
func waitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// WaitForEvent returns a tea.Cmd for the next event on a channel.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return waitForEvent(ch)
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// Close closes the manager and all its services.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		if m.stopChan != nil {
			close(m.stopChan)
		}

		m.mu.Lock()
		defer m.mu.Unlock()

		m.stopWatcherLocked()
		for _, sub := range m.subscribers {
			close(sub)
		}
		m.subscribers = nil
	})
	return nil
}
