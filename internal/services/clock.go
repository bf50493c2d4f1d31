package services

import (
	"time"

	"vibe-check-backend/internal/models"
)

// Clock supplies the current time
type Clock func() time.Time

// SystemClock reads the wall clock
func SystemClock() time.Time {
	return time.Now().UTC()
}

// FixedClock always returns t
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

// Today returns the current calendar day
func (c Clock) Today() models.Date {
	return models.DateOf(c())
}
