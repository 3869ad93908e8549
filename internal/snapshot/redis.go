package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/roach88/tea/middleware"
)

var (
	// ErrEmptyConnectionURL is returned by Connect when no URL is configured.
	ErrEmptyConnectionURL = errors.New("snapshot: empty redis connection url")

	// ErrFailedToParseRedisConnString is returned by Connect for a malformed URL.
	ErrFailedToParseRedisConnString = errors.New("snapshot: failed to parse redis connection string")

	// ErrRedisNotReady is returned by Connect when PING keeps failing.
	ErrRedisNotReady = errors.New("snapshot: redis did not become ready")

	// ErrNotFound is returned by Latest when a run has no stored snapshot.
	ErrNotFound = errors.New("snapshot: not found")
)

// Config configures the Redis connection.
type Config struct {
	ConnectionURL  string        `env:"URL"`
	Prefix         string        `env:"PREFIX" envDefault:"tea:snapshot"`
	TTL            time.Duration `env:"TTL" envDefault:"0s"`
	RetryAttempts  int           `env:"RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"RETRY_INTERVAL" envDefault:"1s"`
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"10s"`
}

// Connect creates a Redis client and verifies it with PING, retrying with
// exponential backoff until RetryAttempts or ConnectTimeout is exhausted.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	if cfg.ConnectionURL == "" {
		return nil, ErrEmptyConnectionURL
	}

	opts, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseRedisConnString, err)
	}
	client := redis.NewClient(opts)

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	attempts := max(cfg.RetryAttempts, 1)
	interval := cfg.RetryInterval
	for i := 0; ; i++ {
		err = client.Ping(ctx).Err()
		if err == nil {
			return client, nil
		}
		if i+1 >= attempts {
			break
		}

		select {
		case <-ctx.Done():
			client.Close()
			return nil, errors.Join(ErrRedisNotReady, ctx.Err())
		case <-time.After(interval):
		}
		interval *= 2
	}

	client.Close()
	return nil, errors.Join(ErrRedisNotReady, err)
}

// record is the stored and published form of a snapshot.
type record struct {
	Run   string          `json:"run"`
	Seq   int64           `json:"seq"`
	Hash  string          `json:"hash"`
	State json.RawMessage `json:"state"`
	At    time.Time       `json:"at"`
}

// Redis writes snapshots to a Redis server.
//
// Thread-safety: safe for concurrent use; the underlying client is.
type Redis struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedis wraps an existing client. An empty prefix defaults to
// "tea:snapshot".
func NewRedis(client redis.UniversalClient, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = "tea:snapshot"
	}
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

// Key returns the key holding the latest snapshot of run.
func (r *Redis) Key(run string) string {
	return r.prefix + ":" + run
}

// Channel returns the channel snapshots of run are published on.
func (r *Redis) Channel(run string) string {
	return r.Key(run) + ":changes"
}

// writeAttempts bounds the optimistic retries of WriteSnapshot when another
// writer changes the key between WATCH and EXEC.
const writeAttempts = 10

// errStale aborts a write whose snapshot is older than the stored one.
var errStale = errors.New("snapshot: stale")

// WriteSnapshot stores s as the latest snapshot of its run and publishes
// it. Snapshots older than the stored one are ignored so a slow writer
// never moves the key backwards. The check and the write run in one
// WATCH/MULTI transaction, retried when a concurrent writer wins the race.
//
// Implements middleware.SnapshotWriter.
func (r *Redis) WriteSnapshot(ctx context.Context, s middleware.Snapshot) error {
	state := json.RawMessage(s.State)
	if len(state) == 0 {
		state = json.RawMessage("null")
	}
	data, err := json.Marshal(record{Run: s.Run, Seq: s.Seq, Hash: s.Hash, State: state, At: s.At})
	if err != nil {
		return fmt.Errorf("snapshot: encode: %w", err)
	}

	key := r.Key(s.Run)
	write := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			// An undecodable value is overwritten.
			if stored, err := decode(current); err == nil && stored.Seq > s.Seq {
				return errStale
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, r.ttl)
			pipe.Publish(ctx, r.Channel(s.Run), data)
			return nil
		})
		return err
	}

	for range writeAttempts {
		err = r.client.Watch(ctx, write, key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	switch {
	case err == nil, errors.Is(err, errStale):
		return nil
	default:
		return fmt.Errorf("snapshot: write %s: %w", key, err)
	}
}

// Latest returns the stored snapshot of run.
// Returns ErrNotFound if there is none.
func (r *Redis) Latest(ctx context.Context, run string) (middleware.Snapshot, error) {
	data, err := r.client.Get(ctx, r.Key(run)).Bytes()
	if errors.Is(err, redis.Nil) {
		return middleware.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return middleware.Snapshot{}, fmt.Errorf("snapshot: read %s: %w", r.Key(run), err)
	}
	return decode(data)
}

// Watch subscribes to the snapshots of run and calls fn for each one until
// ctx is done. Undecodable payloads are skipped.
func (r *Redis) Watch(ctx context.Context, run string, fn func(middleware.Snapshot)) error {
	sub := r.client.Subscribe(ctx, r.Channel(run))
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("snapshot: subscribe %s: %w", r.Channel(run), err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			snap, err := decode([]byte(msg.Payload))
			if err != nil {
				continue
			}
			fn(snap)
		}
	}
}

func decode(data []byte) (middleware.Snapshot, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return middleware.Snapshot{}, fmt.Errorf("snapshot: decode: %w", err)
	}
	return middleware.Snapshot{
		Run:   rec.Run,
		Seq:   rec.Seq,
		Hash:  rec.Hash,
		State: []byte(rec.State),
		At:    rec.At,
	}, nil
}
