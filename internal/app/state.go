// Package app provides the main Bubble Tea application model and state management.
package app

import (
	"sync"
	"time"

	"github.com/j-veylop/ha-stats-fixer/internal/services/fixer"
)

// NotificationType defines the type of notification.
type NotificationType int

const (
	// NotificationSuccess represents a success notification.
	NotificationSuccess NotificationType = iota
	// NotificationError represents an error notification.
	NotificationError
	// NotificationWarning represents a warning notification.
	NotificationWarning
	// NotificationInfo represents an informational notification.
	NotificationInfo
	// NotificationLoading represents a loading notification with spinner.
	NotificationLoading
)

const (
	// LoadingNotificationID is the fixed ID for loading notifications.
	LoadingNotificationID = "__loading__"

	// maxTranscriptLines bounds the accumulated transcript.
	maxTranscriptLines = 2000
)

// String returns the string representation of a NotificationType.
func (n NotificationType) String() string {
	switch n {
	case NotificationSuccess:
		return "success"
	case NotificationError:
		return "error"
	case NotificationWarning:
		return "warning"
	case NotificationInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Notification represents a user-facing notification message.
type Notification struct {
	ID        string
	Type      NotificationType
	Message   string
	CreatedAt time.Time
	Duration  time.Duration
}

// IsExpired returns true if the notification has expired.
func (n *Notification) IsExpired() bool {
	if n.Duration <= 0 {
		return false
	}
	return time.Since(n.CreatedAt) > n.Duration
}

// Operation names one of the fixer operations.
type Operation int

const (
	// OpPreview counts and lists rows in the window.
	OpPreview Operation = iota
	// OpDiagnose summarizes rows around the window.
	OpDiagnose
	// OpApply adds the offset to rows in the window.
	OpApply
	// OpSeries loads the rows in the window for the chart.
	OpSeries
)

// String returns the lowercase operation name.
func (o Operation) String() string {
	switch o {
	case OpPreview:
		return "preview"
	case OpDiagnose:
		return "diagnose"
	case OpApply:
		return "apply"
	case OpSeries:
		return "series"
	default:
		return "unknown"
	}
}

// State is shared between the application model and its tabs.
type State struct {
	mu sync.RWMutex

	busy   bool
	active Operation

	transcript []string

	LastPreview  *fixer.PreviewResult
	LastDiagnose *fixer.DiagnoseResult
	LastApply    *fixer.ApplyResult
	Series       *fixer.SeriesResult

	// pendingApply is the apply waiting for a decision after a failed backup.
	pendingApply *fixer.ApplyRequest
	backupErr    error

	// databasePath is the database of the most recent operation.
	databasePath string
	// databaseChanged is when another process last wrote the database.
	databaseChanged time.Time

	LastUpdated time.Time

	notifications   []Notification
	notificationSeq int
}

// NewState creates an empty state.
func NewState() *State {
	return &State{
		notifications: make([]Notification, 0),
	}
}

// Begin marks op as running. It returns false if another operation is
// still running.
func (s *State) Begin(op Operation) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return false
	}
	s.busy = true
	s.active = op
	return true
}

// End clears the running operation.
func (s *State) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	s.LastUpdated = time.Now()
}

// Busy reports whether an operation is running, and which.
func (s *State) Busy() (Operation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active, s.busy
}

// AppendTranscript adds an operation's transcript under a header line.
func (s *State) AppendTranscript(op Operation, at time.Time, lines []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transcript = append(s.transcript, "", "── "+op.String()+" "+at.Format("15:04:05")+" ──")
	s.transcript = append(s.transcript, lines...)
	if len(s.transcript) > maxTranscriptLines {
		s.transcript = s.transcript[len(s.transcript)-maxTranscriptLines:]
	}
}

// Transcript returns a copy of the accumulated transcript.
func (s *State) Transcript() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lines := make([]string, len(s.transcript))
	copy(lines, s.transcript)
	return lines
}

// ClearTranscript empties the transcript.
func (s *State) ClearTranscript() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = nil
}

// SetPreview stores the last preview result.
func (s *State) SetPreview(res *fixer.PreviewResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastPreview = res
}

// GetPreview returns the last preview result.
func (s *State) GetPreview() *fixer.PreviewResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastPreview
}

// SetDiagnose stores the last diagnose result.
func (s *State) SetDiagnose(res *fixer.DiagnoseResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastDiagnose = res
}

// GetDiagnose returns the last diagnose result.
func (s *State) GetDiagnose() *fixer.DiagnoseResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastDiagnose
}

// SetApply stores the last apply result.
func (s *State) SetApply(res *fixer.ApplyResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastApply = res
}

// GetApply returns the last apply result.
func (s *State) GetApply() *fixer.ApplyResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastApply
}

// SetSeries stores the rows shown by the chart.
func (s *State) SetSeries(res *fixer.SeriesResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Series = res
}

// GetSeries returns the rows shown by the chart.
func (s *State) GetSeries() *fixer.SeriesResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Series
}

// SetPendingApply parks req until the user decides how to handle the failed backup.
func (s *State) SetPendingApply(req fixer.ApplyRequest, backupErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingApply = &req
	s.backupErr = backupErr
}

// PendingApply returns the parked apply request, if any.
func (s *State) PendingApply() (*fixer.ApplyRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pendingApply, s.backupErr
}

// TakePendingApply returns and clears the parked apply request.
func (s *State) TakePendingApply() *fixer.ApplyRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	req := s.pendingApply
	s.pendingApply = nil
	s.backupErr = nil
	return req
}

// SetDatabasePath records the database the last operation ran against.
func (s *State) SetDatabasePath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.databasePath = path
}

// DatabasePath returns the database the last operation ran against.
func (s *State) DatabasePath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.databasePath
}

// MarkDatabaseChanged records an outside write to the database.
func (s *State) MarkDatabaseChanged(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.databaseChanged = at
}

// DatabaseChanged returns when the database was last written by another process.
func (s *State) DatabaseChanged() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.databaseChanged
}

// AddNotification adds a new notification and returns its ID.
func (s *State) AddNotification(notifType NotificationType, message string, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notificationSeq++
	id := time.Now().Format("20060102150405") + "-" + string(rune('A'+s.notificationSeq%26))

	notification := Notification{
		ID:        id,
		Type:      notifType,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  duration,
	}

	s.notifications = append(s.notifications, notification)

	// Keep only the last 10 notifications
	if len(s.notifications) > 10 {
		s.notifications = s.notifications[len(s.notifications)-10:]
	}

	return id
}

// RemoveNotification removes a notification by ID.
func (s *State) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// ClearExpiredNotifications removes all expired notifications.
func (s *State) ClearExpiredNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	s.notifications = active
}

// GetNotifications returns a copy of all active notifications.
func (s *State) GetNotifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}

	return active
}

// SetLoadingNotification sets a loading notification message.
func (s *State) SetLoadingNotification(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications[i].Message = message
			return
		}
	}

	s.notifications = append(s.notifications, Notification{
		ID:        LoadingNotificationID,
		Type:      NotificationLoading,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  0,
	})
}

// ClearLoadingNotification removes the loading notification.
func (s *State) ClearLoadingNotification() {
	s.RemoveNotification(LoadingNotificationID)
}
