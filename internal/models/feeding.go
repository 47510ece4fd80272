package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the calendar-date format used for feeding events.
const DateLayout = "2006-01-02"

// FeedingStatus is the lifecycle state of a feeding event.
type FeedingStatus string

const (
	FeedingScheduled FeedingStatus = "scheduled"
	FeedingPending   FeedingStatus = "pending"
	FeedingCompleted FeedingStatus = "completed"
)

func (s FeedingStatus) rank() int {
	switch s {
	case FeedingScheduled:
		return 0
	case FeedingPending:
		return 1
	case FeedingCompleted:
		return 2
	default:
		return -1
	}
}

// Valid reports whether s is a known status.
func (s FeedingStatus) Valid() bool {
	return s.rank() >= 0
}

// CanAdvanceTo reports whether moving from s to next is a forward transition.
func (s FeedingStatus) CanAdvanceTo(next FeedingStatus) bool {
	return s.Valid() && next.Valid() && next.rank() > s.rank()
}

// ParseFeedingStatus converts a stored status string.
func ParseFeedingStatus(v string) (FeedingStatus, error) {
	s := FeedingStatus(v)
	if !s.Valid() {
		return "", fmt.Errorf("unknown feeding status %q", v)
	}
	return s, nil
}

// FeedingID identifies a persisted feeding event.
type FeedingID uuid.UUID

// NewFeedingID returns a fresh random identity.
func NewFeedingID() FeedingID {
	return FeedingID(uuid.New())
}

// ParseFeedingID parses the textual form produced by String.
func ParseFeedingID(s string) (FeedingID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return FeedingID{}, err
	}
	return FeedingID(id), nil
}

func (id FeedingID) String() string {
	return uuid.UUID(id).String()
}

// FeedingEvent is one scheduled or executed feed delivery for a tank.
// CompletedAt is non-nil if and only if Status is FeedingCompleted.
type FeedingEvent struct {
	ID          FeedingID
	Date        string // YYYY-MM-DD
	Time        string // HH:MM
	AmountKg    float64
	Status      FeedingStatus
	CompletedAt *time.Time
	Tank        string
}

// Validate checks the completed_at invariant and field formats.
func (e FeedingEvent) Validate() error {
	if _, err := time.Parse(DateLayout, e.Date); err != nil {
		return fmt.Errorf("invalid feeding date %q: %w", e.Date, err)
	}
	if _, err := time.Parse("15:04", e.Time); err != nil {
		return fmt.Errorf("invalid feeding time %q: %w", e.Time, err)
	}
	if !e.Status.Valid() {
		return fmt.Errorf("invalid feeding status %q", e.Status)
	}
	if (e.Status == FeedingCompleted) != (e.CompletedAt != nil) {
		return fmt.Errorf("completed_at must be set only for completed feedings (status %s)", e.Status)
	}
	return nil
}

// AmountLabel renders the amount the way the feeding page shows it.
func (e FeedingEvent) AmountLabel() string {
	return fmt.Sprintf("%.1f kg", e.AmountKg)
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) string {
	return t.Format(DateLayout)
}
