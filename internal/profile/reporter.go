package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/playperu/geoparty/internal/scoring"
)

// DefaultFlushInterval is how often queued round reports are written.
const DefaultFlushInterval = 30 * time.Second

// Minimum normalizer accepted for a standalone round, in kilometres.
const minRoundMaxDist = 10

// RoundReport is one standalone round to credit to an account.
type RoundReport struct {
	Secret    string
	XP        int
	RoundTime int
	Lat       float64
	Long      float64
}

// StandaloneRound is a single-player round submitted outside any session.
type StandaloneRound struct {
	Lat        float64 `json:"lat"`
	Long       float64 `json:"long"`
	ActualLat  float64 `json:"actualLat"`
	ActualLong float64 `json:"actualLong"`
	UsedHint   bool    `json:"usedHint"`
	Secret     string  `json:"secret"`
	RoundTime  int     `json:"roundTime"`
	MaxDist    float64 `json:"maxDist"`
}

// Score validates the round and returns its points and the report to
// queue for the submitting account.
func (r StandaloneRound) Score() (int, RoundReport, error) {
	switch {
	case r.Secret == "":
		return 0, RoundReport{}, fmt.Errorf("%w: secret is required", ErrInvalid)
	case r.RoundTime < 0:
		return 0, RoundReport{}, fmt.Errorf("%w: negative round time", ErrInvalid)
	case r.MaxDist < minRoundMaxDist:
		return 0, RoundReport{}, fmt.Errorf("%w: maxDist below %d", ErrInvalid, minRoundMaxDist)
	case r.Lat == r.ActualLat || r.Long == r.ActualLong:
		// Exact matches on either axis only come from forged requests.
		return 0, RoundReport{}, fmt.Errorf("%w: guess matches answer", ErrInvalid)
	}

	points, err := scoring.Score(r.ActualLat, r.ActualLong, r.Lat, r.Long, r.UsedHint, r.MaxDist)
	if err != nil {
		return 0, RoundReport{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return points, RoundReport{
		Secret:    r.Secret,
		XP:        XP(points),
		RoundTime: r.RoundTime,
		Lat:       r.ActualLat,
		Long:      r.ActualLong,
	}, nil
}

type roundWriter interface {
	AddRounds(ctx context.Context, secret string, rounds []RoundReport) error
}

// Reporter batches standalone round reports and writes them periodically,
// grouped by account.
type Reporter struct {
	store    roundWriter
	clock    clockwork.Clock
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	pending []RoundReport
}

func NewReporter(store roundWriter, clock clockwork.Clock, interval time.Duration, logger *slog.Logger) *Reporter {
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	return &Reporter{store: store, clock: clock, interval: interval, logger: logger}
}

// Report queues rep for the next flush. It never blocks on storage.
func (r *Reporter) Report(rep RoundReport) {
	r.mu.Lock()
	r.pending = append(r.pending, rep)
	r.mu.Unlock()
}

// Pending returns the number of queued reports.
func (r *Reporter) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Flush writes all queued reports and returns how many accounts were
// updated. Unknown or banned accounts are dropped.
func (r *Reporter) Flush(ctx context.Context) int {
	r.mu.Lock()
	batch := r.pending
	r.pending = nil
	r.mu.Unlock()

	if len(batch) == 0 {
		return 0
	}

	var order []string
	bySecret := make(map[string][]RoundReport)
	for _, rep := range batch {
		if _, ok := bySecret[rep.Secret]; !ok {
			order = append(order, rep.Secret)
		}
		bySecret[rep.Secret] = append(bySecret[rep.Secret], rep)
	}

	var updated int
	for _, secret := range order {
		err := r.store.AddRounds(ctx, secret, bySecret[secret])
		switch {
		case errors.Is(err, ErrNotFound):
			r.logger.Debug("dropping rounds for unknown account", "rounds", len(bySecret[secret]))
		case err != nil:
			r.logger.Error("flushing rounds failed", "rounds", len(bySecret[secret]), "error", err)
		default:
			updated++
		}
	}
	r.logger.Info("flushed round reports", "reports", len(batch), "accounts", updated)
	return updated
}

// Run flushes on every interval until ctx is done, then flushes once more.
func (r *Reporter) Run(ctx context.Context) error {
	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			r.Flush(ctx)
		case <-ctx.Done():
			r.Flush(context.WithoutCancel(ctx))
			return nil
		}
	}
}
