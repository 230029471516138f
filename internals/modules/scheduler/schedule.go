package scheduler

import "time"

// intervalSchedule fires every fixed duration, first fire one full
// interval after registration.
type intervalSchedule struct {
	every time.Duration
}

func (s intervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.every)
}

// kickSchedule fires once at fireAt, then settles into the regular
// interval. Used when a monitor is created or updated so the first
// probe happens right away instead of a full interval later.
type kickSchedule struct {
	fireAt time.Time
	every  time.Duration
}

func (s kickSchedule) Next(t time.Time) time.Time {
	if t.Before(s.fireAt) {
		return s.fireAt
	}
	return t.Add(s.every)
}
