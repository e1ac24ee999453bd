package app

import (
	"time"

	"github.com/j-veylop/ha-stats-fixer/internal/services"
	"github.com/j-veylop/ha-stats-fixer/internal/services/fixer"
)

// TickMsg is sent periodically to trigger state refresh.
type TickMsg struct {
	Time time.Time
}

// RunOperationMsg asks the model to run an operation. Offset is only used by OpApply.
type RunOperationMsg struct {
	Op      Operation
	Request fixer.Request
	Offset  string
}

// PreviewDoneMsg carries a finished preview.
type PreviewDoneMsg struct {
	Request fixer.Request
	Result  *fixer.PreviewResult
	Err     error
}

// DiagnoseDoneMsg carries a finished diagnosis.
type DiagnoseDoneMsg struct {
	Result *fixer.DiagnoseResult
	Err    error
}

// ApplyDoneMsg carries a finished apply together with the request that ran,
// so a failed backup can be retried.
type ApplyDoneMsg struct {
	Request fixer.ApplyRequest
	Result  *fixer.ApplyResult
	Err     error
}

// SeriesDoneMsg carries the rows loaded for the chart.
type SeriesDoneMsg struct {
	Result *fixer.SeriesResult
	Err    error
}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Type     NotificationType
	Message  string
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// SubscriptionEventMsg is the callback wrapper for service subscription.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

// ErrorMsg represents a general error.
type ErrorMsg struct {
	Error   error
	Context string
}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help display.
type ToggleHelpMsg struct{}

// ClearTranscriptMsg empties the transcript.
type ClearTranscriptMsg struct{}
