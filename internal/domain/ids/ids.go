package ids

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	eventIDRegex = regexp.MustCompile(`^evt_[\w-]+$`)

	ErrInvalidEventID = errors.New("invalid event id")
)

// randomSuffixBytes is the entropy appended to every minted event id.
// 4 bytes of hex keeps ids short while making collisions between events
// on the same day vanishingly unlikely.
const randomSuffixBytes = 4

// NewEventID mints an event id of the form evt_<YYYY-MM-DD>_<hex>,
// where the date part is the event's start date in its stored offset.
func NewEventID(start time.Time) (string, error) {
	suffix := make([]byte, randomSuffixBytes)
	if _, err := rand.Read(suffix); err != nil {
		return "", err
	}
	return fmt.Sprintf("evt_%s_%s", start.Format("2006-01-02"), hex.EncodeToString(suffix)), nil
}

// IsEventID returns true when value matches evt_ followed by word or
// hyphen characters only. The character class deliberately excludes
// dots and slashes so a validated id can never traverse a path.
func IsEventID(value string) bool {
	return eventIDRegex.MatchString(strings.TrimSpace(value))
}

// ValidateEventID validates an event id string.
func ValidateEventID(value string) error {
	if !IsEventID(value) {
		return ErrInvalidEventID
	}
	return nil
}
