package schedule

import (
	"testing"
	"time"
)

func TestCompute(t *testing.T) {
	t0 := time.UnixMilli(1_700_000_000_000)

	tests := []struct {
		name         string
		rounds, secs int
		wantStart    []int64
		wantEnd      int64
	}{
		{
			name:      "single round",
			rounds:    1,
			secs:      10,
			wantStart: []int64{1_700_000_005_000},
			wantEnd:   1_700_000_000_000 + 10_000 + 10_000,
		},
		{
			name:   "three rounds of thirty seconds",
			rounds: 3,
			secs:   30,
			wantStart: []int64{
				1_700_000_005_000,
				1_700_000_000_000 + 30_000 + 10_000,
				1_700_000_000_000 + 60_000 + 15_000,
			},
			wantEnd: 1_700_000_000_000 + 90_000 + 20_000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(t0, tt.rounds, tt.secs)
			if len(got.StartAt) != len(tt.wantStart) {
				t.Fatalf("len(StartAt) = %d, want %d", len(got.StartAt), len(tt.wantStart))
			}
			for i := range tt.wantStart {
				if got.StartAt[i] != tt.wantStart[i] {
					t.Errorf("StartAt[%d] = %d, want %d", i, got.StartAt[i], tt.wantStart[i])
				}
			}
			if got.EndTime != tt.wantEnd {
				t.Errorf("EndTime = %d, want %d", got.EndTime, tt.wantEnd)
			}
		})
	}
}

func TestRoundAt(t *testing.T) {
	t0 := time.UnixMilli(0)
	s := Compute(t0, 2, 10)
	// Round 1: [5s, 15s), buffer, round 2: [20s, 30s), end at 35s.

	tests := []struct {
		at   int64
		want int
	}{
		{0, 0},
		{4_999, 0},
		{5_000, 1},
		{14_999, 1},
		{15_000, 0},
		{20_000, 2},
		{29_999, 2},
		{30_000, 0},
		{40_000, 0},
	}
	for _, tt := range tests {
		if got := s.RoundAt(time.UnixMilli(tt.at), 10); got != tt.want {
			t.Errorf("RoundAt(%d) = %d, want %d", tt.at, got, tt.want)
		}
	}
}
