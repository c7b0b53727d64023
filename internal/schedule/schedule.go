// Package schedule computes the wall-clock timetable that all clients of a
// session synchronize against.
package schedule

import "time"

// Buffer is the pause before every round, including the first.
const Buffer = 5000 * time.Millisecond

// Schedule is a session timetable in Unix milliseconds.
type Schedule struct {
	StartAt []int64 `json:"startAt"`
	EndTime int64   `json:"endTime"`
}

// Compute returns the timetable for rounds rounds of timePerRound seconds
// each, starting at t0.
//
//	startAt[i] = t0 + i·timePerRound + (i+1)·Buffer
//	endTime    = t0 + n·timePerRound + (n+1)·Buffer
func Compute(t0 time.Time, rounds, timePerRound int) Schedule {
	base := t0.UnixMilli()
	round := int64(timePerRound) * 1000
	buf := Buffer.Milliseconds()

	s := Schedule{StartAt: make([]int64, rounds)}
	for i := range rounds {
		s.StartAt[i] = base + int64(i)*round + int64(i+1)*buf
	}
	s.EndTime = base + int64(rounds)*round + int64(rounds+1)*buf
	return s
}

// RoundAt returns the 1-based round open at now, or 0 if now falls in a
// buffer before the first round or after the end.
func (s Schedule) RoundAt(now time.Time, timePerRound int) int {
	ms := now.UnixMilli()
	for i := len(s.StartAt) - 1; i >= 0; i-- {
		if ms >= s.StartAt[i] {
			if ms < s.StartAt[i]+int64(timePerRound)*1000 {
				return i + 1
			}
			return 0
		}
	}
	return 0
}
