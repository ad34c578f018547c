package fpl

import "time"

// Gameweek is one scheduling period as published by the bootstrap-static
// endpoint. Only the fields the summary needs are decoded.
type Gameweek struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	DeadlineTime time.Time `json:"deadline_time"`
	IsPrevious   bool      `json:"is_previous"`
	IsCurrent    bool      `json:"is_current"`
	IsNext       bool      `json:"is_next"`
	Finished     bool      `json:"finished"`
}

// Schedule pairs the current and the next gameweek. Either may be nil,
// e.g. before the season starts there is no current gameweek and after the
// final one there is no next.
type Schedule struct {
	Current *Gameweek `json:"current,omitempty"`
	Next    *Gameweek `json:"next,omitempty"`
}

// Empty reports whether neither gameweek is known.
func (s Schedule) Empty() bool {
	return s.Current == nil && s.Next == nil
}

// bootstrap mirrors the subset of /bootstrap-static/ we decode.
type bootstrap struct {
	Events []Gameweek `json:"events"`
}

// SelectGameweeks returns the first event flagged current and the first
// flagged next. The returned pointers do not alias the input slice.
func SelectGameweeks(events []Gameweek) Schedule {
	var s Schedule
	for i := range events {
		ev := events[i]
		if ev.IsCurrent && s.Current == nil {
			s.Current = &ev
		}
		if ev.IsNext && s.Next == nil {
			s.Next = &ev
		}
		if s.Current != nil && s.Next != nil {
			break
		}
	}
	return s
}
