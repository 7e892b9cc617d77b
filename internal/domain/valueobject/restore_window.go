package valueobject

import (
	"fmt"
	"math"
	"time"
)

// DefaultRestoreWindow: срок, в течение которого удалённое предложение можно восстановить.
const DefaultRestoreWindow = 15 * 24 * time.Hour

const (
	CountdownNoDate    = "no restore date"
	CountdownInvalid   = "invalid restore date"
	CountdownAvailable = "available for restoration"
)

// RestoreCountdown вычисляет строку «сколько осталось до конца окна восстановления».
// Значение не хранится и пересчитывается при каждом чтении.
func RestoreCountdown(restoreBy *time.Time, now time.Time) string {
	if restoreBy == nil {
		return CountdownNoDate
	}
	if restoreBy.IsZero() {
		return CountdownInvalid
	}

	days := int(math.Ceil(restoreBy.Sub(now).Hours() / 24))
	switch {
	case days <= 0:
		return CountdownAvailable
	case days == 1:
		return "1 day"
	default:
		return fmt.Sprintf("%d days", days)
	}
}

// RestoreCountdownFromString: вариант для дат, пришедших строкой (RFC3339 или YYYY-MM-DD).
func RestoreCountdownFromString(raw *string, now time.Time) string {
	if raw == nil || *raw == "" {
		return CountdownNoDate
	}
	parsed, err := ParseDate(*raw)
	if err != nil {
		return CountdownInvalid
	}
	return RestoreCountdown(&parsed, now)
}

// ParseDate принимает RFC3339 или дату без времени.
func ParseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, raw)
}
