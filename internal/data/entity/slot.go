package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidSlot = errors.New("slot end must be after slot start")

// Slot is a half-open interval [Start, End) on one resource.
type Slot struct {
	ResourceID uuid.UUID
	Start      time.Time
	End        time.Time
}

func NewSlot(resourceID uuid.UUID, start, end time.Time) (Slot, error) {
	s := Slot{ResourceID: resourceID, Start: start.UTC(), End: end.UTC()}
	if err := s.Validate(); err != nil {
		return Slot{}, err
	}
	return s, nil
}

func (s Slot) Validate() error {
	if !s.Start.Before(s.End) {
		return ErrInvalidSlot
	}
	return nil
}

// Overlaps reports whether both slots are on the same resource and their intervals intersect.
// Touching slots (one ends where the other starts) do not overlap.
func (s Slot) Overlaps(other Slot) bool {
	if s.ResourceID != other.ResourceID {
		return false
	}
	return s.Start.Before(other.End) && other.Start.Before(s.End)
}

func (s Slot) Duration() time.Duration {
	return s.End.Sub(s.Start)
}
