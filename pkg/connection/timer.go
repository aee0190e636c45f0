package connection

import "time"

// Timer is a handle to a scheduled retry.
type Timer interface {
	Stop() bool
}

// TimerFunc schedules f to run once after d.
type TimerFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
