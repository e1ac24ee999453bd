package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/ha-stats-fixer/internal/services"
	"github.com/j-veylop/ha-stats-fixer/internal/services/fixer"
)

const (
	// DefaultTickInterval is the default interval between ticks.
	DefaultTickInterval = 2 * time.Second

	// DefaultNotificationDuration is the default duration for notifications.
	DefaultNotificationDuration = 5 * time.Second

	// QuickNotificationDuration is for brief notifications.
	QuickNotificationDuration = 3 * time.Second

	// LongNotificationDuration is for important notifications.
	LongNotificationDuration = 10 * time.Second
)

// Operations is the part of the service manager the application drives.
type Operations interface {
	Preview(req fixer.Request) (*fixer.PreviewResult, error)
	Diagnose(req fixer.Request) (*fixer.DiagnoseResult, error)
	Series(req fixer.Request) (*fixer.SeriesResult, error)
	Apply(req fixer.ApplyRequest) (*fixer.ApplyResult, error)
}

// tickCmd returns a command that sends a TickMsg after the specified interval.
func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// defaultTickCmd returns a command that sends a TickMsg after the default interval.
func defaultTickCmd() tea.Cmd {
	return tickCmd(DefaultTickInterval)
}

func previewCmd(ops Operations, req fixer.Request) tea.Cmd {
	return func() tea.Msg {
		res, err := ops.Preview(req)
		return PreviewDoneMsg{Request: req, Result: res, Err: err}
	}
}

func diagnoseCmd(ops Operations, req fixer.Request) tea.Cmd {
	return func() tea.Msg {
		res, err := ops.Diagnose(req)
		return DiagnoseDoneMsg{Result: res, Err: err}
	}
}

func seriesCmd(ops Operations, req fixer.Request) tea.Cmd {
	return func() tea.Msg {
		res, err := ops.Series(req)
		return SeriesDoneMsg{Result: res, Err: err}
	}
}

func applyCmd(ops Operations, req fixer.ApplyRequest) tea.Cmd {
	return func() tea.Msg {
		res, err := ops.Apply(req)
		return ApplyDoneMsg{Request: req, Result: res, Err: err}
	}
}

// RunOperation returns a command that asks the model to run op.
func RunOperation(op Operation, req fixer.Request, offset string) tea.Cmd {
	return func() tea.Msg {
		return RunOperationMsg{Op: op, Request: req, Offset: offset}
	}
}

// subscribeToServicesCmd returns a command that subscribes to service events.
func subscribeToServicesCmd(mgr *services.Manager) tea.Cmd {
	ch, _ := mgr.Subscribe()
	return func() tea.Msg {
		return SubscriptionEventMsg{Channel: ch}
	}
}

// waitForServiceEventCmd returns a command that waits for the next service event.
func waitForServiceEventCmd(ch <-chan services.ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return ServiceEventMsg{Event: event}
	}
}

// clearNotificationCmd returns a command that removes a notification after a delay.
func clearNotificationCmd(id string, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return RemoveNotificationMsg{ID: id}
	})
}

// notifySuccessCmd returns a command that adds a success notification.
func notifySuccessCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationSuccess,
			Message:  message,
			Duration: DefaultNotificationDuration,
		}
	}
}

// notifyErrorCmd returns a command that adds an error notification.
func notifyErrorCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationError,
			Message:  message,
			Duration: LongNotificationDuration,
		}
	}
}

// notifyWarningCmd returns a command that adds a warning notification.
func notifyWarningCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationWarning,
			Message:  message,
			Duration: DefaultNotificationDuration,
		}
	}
}

// notifyInfoCmd returns a command that adds an info notification.
func notifyInfoCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationInfo,
			Message:  message,
			Duration: QuickNotificationDuration,
		}
	}
}
