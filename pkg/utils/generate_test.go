package utils

import (
	"encoding/binary"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
)

var bookingReferencePattern = regexp.MustCompile(`^BOOK-\d{8}-\d{6}-[0-9A-F]{8}$`)

func TestGenerateBookingReference_Format(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 15, 30, 0, time.FixedZone("WIB", 7*3600))
	id := uuid.MustParse("0a1b2c3d-4e5f-4a6b-8c7d-9e0f1a2b3c4d")

	got := GenerateBookingReference(now, id)
	if got != "BOOK-20260302-021530-0A1B2C3D" {
		t.Fatalf("unexpected reference %q", got)
	}
	if !bookingReferencePattern.MatchString(got) {
		t.Fatalf("reference %q does not match format", got)
	}
}

func TestGenerateBookingReference_DistinctWithinSameSecond(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	seen := make(map[string]bool)
	for i := 0; i < 10000; i++ {
		id := uuid.New()
		binary.BigEndian.PutUint32(id[:4], uint32(i))
		ref := GenerateBookingReference(now, id)
		if seen[ref] {
			t.Fatalf("reference %q generated twice within one second after %d bookings", ref, i)
		}
		seen[ref] = true
	}
}
