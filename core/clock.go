package core

import "time"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// SystemClock is the wall clock, in UTC.
var SystemClock Clock = systemClock{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
