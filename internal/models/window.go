package models

import (
	"strings"
	"time"
)

const (
	// LocalLayout is the only accepted format for user supplied wall-clock times.
	LocalLayout = "2006-01-02 15:04"

	// UTCTextLayout is the plain UTC text form compared against text timestamp columns.
	UTCTextLayout = "2006-01-02 15:04:05"

	// UTCOffsetSuffix is appended to the plain UTC form for display.
	UTCOffsetSuffix = "+00:00"
)

// Instant is one window boundary in every representation the queries need.
type Instant struct {
	Input  string
	Local  time.Time
	UTC    time.Time
	Epoch  int64
	Text   string
	TextTZ string
}

func newInstant(input string, local time.Time) Instant {
	utc := local.UTC()
	text := utc.Format(UTCTextLayout)
	return Instant{
		Input:  input,
		Local:  local,
		UTC:    utc,
		Epoch:  utc.Unix(),
		Text:   text,
		TextTZ: text + UTCOffsetSuffix,
	}
}

// Window is a half-open interval [Start, End). A nil End means unbounded above.
type Window struct {
	Timezone string
	Location *time.Location
	Start    Instant
	End      *Instant
}

// Bounded reports whether the window has an upper bound.
func (w Window) Bounded() bool {
	return w.End != nil
}

// Contains reports whether t falls inside [Start, End).
func (w Window) Contains(t time.Time) bool {
	if t.Before(w.Start.UTC) {
		return false
	}
	return w.End == nil || t.Before(w.End.UTC)
}

// String renders the window the way transcripts show it.
func (w Window) String() string {
	end := "∞"
	if w.End != nil {
		end = w.End.Input
	}
	return w.Start.Input + " → " + end + " (" + w.Timezone + ")"
}

// LoadTimezone resolves an IANA zone name. The empty name and "Local" are
// rejected so that results never depend on the process timezone.
func LoadTimezone(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "Local" {
		return nil, InvalidInputf("timezone must be an IANA zone name, got %q", name)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, InvalidInputf("unknown timezone %q", name)
	}
	return loc, nil
}

// ParseLocal parses a "YYYY-MM-DD HH:MM" wall-clock string in loc.
// A wall clock that occurs twice when clocks fall back resolves to the
// earlier instant; one skipped when clocks spring forward is read with the
// offset in effect before the change.
func ParseLocal(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	t, err := time.ParseInLocation(LocalLayout, value, loc)
	if err != nil {
		return time.Time{}, InvalidInputf("timestamp %q does not match YYYY-MM-DD HH:MM", value)
	}
	return resolveWallClock(value, t), nil
}

// resolveWallClock picks between the offsets in effect half a day before and
// after t. time.ParseInLocation leaves that choice to the zone's layout.
func resolveWallClock(wall string, t time.Time) time.Time {
	_, before := t.Add(-12 * time.Hour).Zone()
	_, after := t.Add(12 * time.Hour).Zone()
	if before == after {
		return t
	}

	asUTC, _ := time.ParseInLocation(LocalLayout, wall, time.UTC)
	first := asUTC.Add(-time.Duration(before) * time.Second).In(t.Location())
	second := asUTC.Add(-time.Duration(after) * time.Second).In(t.Location())

	firstOK := first.Format(LocalLayout) == wall
	secondOK := second.Format(LocalLayout) == wall
	switch {
	case firstOK && secondOK:
		if second.Before(first) {
			return second
		}
		return first
	case firstOK:
		return first
	case secondOK:
		return second
	default:
		// Skipped wall clock.
		return first
	}
}

// ResolveWindow turns local start/end strings into a UTC window.
// An empty end leaves the window open at the right.
func ResolveWindow(start, end, timezone string) (Window, error) {
	if strings.TrimSpace(start) == "" {
		return Window{}, InvalidInputf("start timestamp required")
	}

	loc, err := LoadTimezone(timezone)
	if err != nil {
		return Window{}, err
	}

	startLocal, err := ParseLocal(start, loc)
	if err != nil {
		return Window{}, err
	}

	w := Window{
		Timezone: loc.String(),
		Location: loc,
		Start:    newInstant(strings.TrimSpace(start), startLocal),
	}

	if strings.TrimSpace(end) == "" {
		return w, nil
	}

	endLocal, err := ParseLocal(end, loc)
	if err != nil {
		return Window{}, err
	}
	if !endLocal.After(startLocal) {
		return Window{}, InvalidInputf("end %q must be after start %q", end, start)
	}

	endInstant := newInstant(strings.TrimSpace(end), endLocal)
	w.End = &endInstant

	return w, nil
}
