package models

import (
	"fmt"
	"time"
)

// DayLayout is the calendar-date format used for the date index.
const DayLayout = "2006-01-02"

// Payload is the domain content of a record. The sync layer treats it as
// opaque apart from its kind and the calendar date it belongs to.
type Payload interface {
	Kind() Kind
	LogDate() string
}

// State is the sync lifecycle position of a record.
type State string

const (
	StateLocalUnsynced State = "local_unsynced"
	StateSynced        State = "synced"
	StateTombstoned    State = "tombstoned"
)

// Record is one cached entity.
//
// LocalID is assigned on creation and never changes. ServerID stays empty
// until the server acknowledges a write; once set it is never replaced.
type Record[T Payload] struct {
	LocalID   string
	ServerID  string
	OwnerID   string
	Date      string
	Payload   T
	IsSynced  bool
	IsDeleted bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r Record[T]) State() State {
	switch {
	case r.IsDeleted:
		return StateTombstoned
	case r.IsSynced:
		return StateSynced
	default:
		return StateLocalUnsynced
	}
}

// HasServerID reports whether the server has ever acknowledged the record.
func (r Record[T]) HasServerID() bool { return r.ServerID != "" }

// ValidateDate checks that s is a YYYY-MM-DD calendar date.
func ValidateDate(s string) error {
	if _, err := time.Parse(DayLayout, s); err != nil {
		return fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return nil
}

// Today formats t as a calendar date in its own location.
func Today(t time.Time) string { return t.Format(DayLayout) }
