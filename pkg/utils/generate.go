package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ==================== BOOKING REFERENCE ====================

// GenerateBookingReference returns a human readable code printed on confirmations.
// Format: BOOK-YYYYMMDD-HHMMSS-XXXXXXXX, the suffix being the first 8 hex digits of the booking ID.
func GenerateBookingReference(now time.Time, bookingID uuid.UUID) string {
	now = now.UTC()

	datePart := now.Format("20060102")
	timePart := now.Format("150405")
	idPart := strings.ToUpper(strings.ReplaceAll(bookingID.String(), "-", "")[:8])

	return fmt.Sprintf("BOOK-%s-%s-%s", datePart, timePart, idPart)
}

// ==================== SHARED TOKENS ====================

// HashToken hashes a shared secret for storage in configuration.
func HashToken(token string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckToken reports whether token matches the stored bcrypt hash.
func CheckToken(hash, token string) bool {
	if hash == "" || token == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)) == nil
}
