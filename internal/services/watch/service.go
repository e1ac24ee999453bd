// Package watch reports writes to a recorder database made by other processes.
package watch

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/j-veylop/ha-stats-fixer/internal/logger"
)

// EventType defines the type of watch event.
type EventType int

const (
	// EventWritten means the database or one of its sidecars changed.
	EventWritten EventType = iota
	// EventRemoved means the database file was removed or renamed.
	EventRemoved
	// EventError carries a watcher failure.
	EventError
)

// Event represents a database file event.
type Event struct {
	Type  EventType
	Path  string
	Time  time.Time
	Error error
}

// sidecars are the files SQLite writes next to the database.
var sidecars = []string{"", "-wal", "-journal", "-shm"}

// Service watches one database file and its sidecars.
type Service struct {
	mu            sync.Mutex
	path          string
	names         map[string]bool
	watcher       *fsnotify.Watcher
	eventChan     chan Event
	stopChan      chan struct{}
	closeOnce     sync.Once
	debounceTimer *time.Timer
	debounce      time.Duration
	paused        bool
	quietUntil    time.Time
}

// New starts watching the directory holding path.
func New(path string) (*Service, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	s := &Service{
		path:      abs,
		names:     make(map[string]bool, len(sidecars)),
		eventChan: make(chan Event, 16),
		stopChan:  make(chan struct{}),
		debounce:  250 * time.Millisecond,
	}
	for _, suffix := range sidecars {
		s.names[filepath.Base(abs)+suffix] = true
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	s.watcher = watcher

	// Watch the directory; SQLite recreates the sidecars.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	go s.watchLoop()
	return s, nil
}

// Path returns the watched database path.
func (s *Service) Path() string {
	return s.path
}

// Events returns the event channel.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

// Pause ignores events until Resume; used while this process writes.
func (s *Service) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
}

// Resume reports events again once grace has passed.
func (s *Service) Resume(grace time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
	s.quietUntil = time.Now().Add(grace)
}

func (s *Service) muted(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused || now.Before(s.quietUntil)
}

func (s *Service) watchLoop() {
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			s.handle(event)

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.sendEvent(Event{Type: EventError, Path: s.path, Time: time.Now(), Error: err})

		case <-s.stopChan:
			return
		}
	}
}

func (s *Service) handle(event fsnotify.Event) {
	name := filepath.Base(event.Name)
	if !s.names[name] || s.muted(time.Now()) {
		return
	}

	if name == filepath.Base(s.path) && event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		s.sendEvent(Event{Type: EventRemoved, Path: s.path, Time: time.Now()})
		return
	}

	// Removing an empty -journal or -wal is routine.
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 || strings.HasSuffix(name, "-shm") {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	s.debounceTimer = time.AfterFunc(s.debounce, func() {
		if s.muted(time.Now()) {
			return
		}
		s.sendEvent(Event{Type: EventWritten, Path: s.path, Time: time.Now()})
	})
}

// sendEvent sends an event to the event channel non-blocking.
func (s *Service) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
		// Channel full, drop oldest event
		select {
		case <-s.eventChan:
		default:
		}
		select {
		case s.eventChan <- event:
		default:
		}
	}
}

// Close stops the file watcher and cleans up resources.
func (s *Service) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.stopChan)

		s.mu.Lock()
		if s.debounceTimer != nil {
			s.debounceTimer.Stop()
		}
		s.mu.Unlock()

		err = s.watcher.Close()
	})
	return err
}
