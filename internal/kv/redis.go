package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const (
	lockPrefix   = "lock:"
	lockPoll     = 25 * time.Millisecond
	scanBatch    = 100
	fetchWorkers = 4
)

// unlockScript deletes the lease only if it still holds our token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisOptions configures the Redis adapter.
type RedisOptions struct {
	Prefix string
	TTL    time.Duration

	// Capacity guard thresholds used by EnforceLimits.
	MaxClients int
	MaxKeys    int
	TrimTo     int
}

// Redis stores values under Prefix+id with an optional TTL.
type Redis struct {
	client *redis.Client
	opts   RedisOptions
	logger *slog.Logger
}

func NewRedis(client *redis.Client, logger *slog.Logger, opts RedisOptions) *Redis {
	return &Redis{client: client, opts: opts, logger: logger}
}

func (r *Redis) key(id string) string { return r.opts.Prefix + id }

func (r *Redis) Get(ctx context.Context, id string) ([]byte, error) {
	b, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", id, err)
	}
	return b, nil
}

func (r *Redis) Set(ctx context.Context, id string, value []byte) error {
	if err := r.client.Set(ctx, r.key(id), value, r.opts.TTL).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", id, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", id, err)
	}
	return nil
}

// Lock acquires a lease with SET NX PX, polling until ttl elapses.
func (r *Redis) Lock(ctx context.Context, id string, ttl time.Duration) (func(), error) {
	key := lockPrefix + r.key(id)
	token := uuid.NewString()
	deadline := time.Now().Add(ttl)

	for {
		ok, err := r.client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock %s: %w", id, err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, ErrLocked
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockPoll):
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := unlockScript.Run(ctx, r.client, []string{key}, token).Err(); err != nil {
				r.logger.Warn("releasing session lease failed", "session_id", id, "error", err)
			}
		})
	}, nil
}

// EnforceLimits is a coarse resource-exhaustion guard.
// It is best-effort: it kills the oldest foreign connection when too many
// clients are connected and trims the oldest sessions when too many keys
// are stored. Errors are logged, not returned, except context cancellation.
func (r *Redis) EnforceLimits(ctx context.Context) error {
	if r.opts.MaxClients > 0 {
		if err := r.trimClients(ctx); err != nil {
			r.logger.Warn("client limit check failed", "error", err)
		}
	}
	if r.opts.MaxKeys > 0 {
		if err := r.trimKeys(ctx); err != nil {
			r.logger.Warn("key limit check failed", "error", err)
		}
	}
	return ctx.Err()
}

func (r *Redis) trimClients(ctx context.Context) error {
	list, err := r.client.ClientList(ctx).Result()
	if err != nil {
		return fmt.Errorf("client list: %w", err)
	}
	ids := parseClientIDs(list)
	r.logger.Info("connected redis clients", "count", len(ids))
	if len(ids) <= r.opts.MaxClients {
		return nil
	}

	self, err := r.client.ClientID(ctx).Result()
	if err != nil {
		return fmt.Errorf("client id: %w", err)
	}
	for _, id := range ids {
		if id == self {
			continue
		}
		r.logger.Info("killing oldest redis client", "client_id", id)
		return r.client.ClientKillByFilter(ctx, "ID", strconv.FormatInt(id, 10)).Err()
	}
	return nil
}

// parseClientIDs extracts and sorts the id= fields of CLIENT LIST output.
func parseClientIDs(list string) []int64 {
	var ids []int64
	for _, line := range strings.Split(list, "\n") {
		for _, field := range strings.Fields(line) {
			v, ok := strings.CutPrefix(field, "id=")
			if !ok {
				continue
			}
			if id, err := strconv.ParseInt(v, 10, 64); err == nil {
				ids = append(ids, id)
			}
			break
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

type keyAge struct {
	key       string
	createdAt int64
}

func (r *Redis) trimKeys(ctx context.Context) error {
	size, err := r.client.DBSize(ctx).Result()
	if err != nil {
		return fmt.Errorf("dbsize: %w", err)
	}
	r.logger.Info("redis key count", "keys", size)
	if size <= int64(r.opts.MaxKeys) {
		return nil
	}

	var keys []string
	iter := r.client.Scan(ctx, 0, r.opts.Prefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	ages, err := r.fetchAges(ctx, keys)
	if err != nil {
		return err
	}

	excess := len(ages) - r.opts.TrimTo
	if excess <= 0 {
		return nil
	}
	sort.Slice(ages, func(i, j int) bool { return ages[i].createdAt < ages[j].createdAt })

	victims := make([]string, excess)
	for i := range victims {
		victims[i] = ages[i].key
	}
	r.logger.Info("trimming oldest sessions", "count", len(victims))
	return r.client.Del(ctx, victims...).Err()
}

// fetchAges reads the createdAt field of each value in parallel batches.
// Values that are missing or not JSON objects are skipped.
func (r *Redis) fetchAges(ctx context.Context, keys []string) ([]keyAge, error) {
	var (
		mu   sync.Mutex
		ages = make([]keyAge, 0, len(keys))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchWorkers)

	for start := 0; start < len(keys); start += scanBatch {
		batch := keys[start:min(start+scanBatch, len(keys))]
		g.Go(func() error {
			vals, err := r.client.MGet(gctx, batch...).Result()
			if err != nil {
				return fmt.Errorf("mget: %w", err)
			}
			local := make([]keyAge, 0, len(vals))
			for i, v := range vals {
				s, ok := v.(string)
				if !ok {
					continue
				}
				var envelope struct {
					CreatedAt int64 `json:"createdAt"`
				}
				if json.Unmarshal([]byte(s), &envelope) != nil {
					continue
				}
				local = append(local, keyAge{key: batch[i], createdAt: envelope.CreatedAt})
			}
			mu.Lock()
			ages = append(ages, local...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ages, nil
}

// Check pings the server.
func (r *Redis) Check(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// GuardLimits runs EnforceLimits now and then every interval until ctx is
// done.
func (r *Redis) GuardLimits(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := r.EnforceLimits(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
