package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/tea"
)

// Entry is one journaled message.
type Entry struct {
	// Run groups the entries of one program run.
	Run string

	// Seq is the 1-based position of the message in the run.
	Seq int64

	Kind    string
	Payload []byte
	At      time.Time
}

// MessageJournal stores journal entries. Implemented by store.Store.
type MessageJournal interface {
	AppendMessage(ctx context.Context, e Entry) error
}

// EncodeFunc turns a message into a kind and a JSON payload.
type EncodeFunc[M any] func(msg M) (kind string, payload []byte, err error)

// JournalConfig configures Journal.
type JournalConfig struct {
	// Run identifies the program run, usually the program ID.
	Run string

	// Start is the number of messages already journaled for Run. The first
	// entry gets Seq Start+1. Set it when a run is resumed.
	Start int64

	// Logger receives failures. Defaults to slog.Default().
	Logger *slog.Logger

	// Timeout bounds each append. Zero means no timeout.
	Timeout time.Duration

	// Clock stamps entries. Defaults to time.Now.
	Clock func() time.Time
}

func (c *JournalConfig) parse() {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
}

// Journal appends every message that reaches it to j once the rest of the
// chain has returned. Install it after any middleware that suppresses
// messages so the journal holds exactly the messages the handler saw.
//
// Encoding and append failures are logged and the message is skipped; its
// sequence number is still consumed, so a gap in Seq marks a lost message.
func Journal[E, S, M any](j MessageJournal, encode EncodeFunc[M], cfg JournalConfig) tea.Middleware[E, S, M] {
	cfg.parse()

	return func(_ E, _ func() S, next tea.Dispatch[M]) tea.Dispatch[M] {
		seq := cfg.Start
		return func(msg M) {
			next(msg)
			seq++

			kind, payload, err := encode(msg)
			if err != nil {
				cfg.Logger.Error("journal: encode failed",
					"run", cfg.Run,
					"seq", seq,
					"error", err,
				)
				return
			}

			ctx, cancel := withTimeout(cfg.Timeout)
			defer cancel()

			entry := Entry{Run: cfg.Run, Seq: seq, Kind: kind, Payload: payload, At: cfg.Clock()}
			if err := j.AppendMessage(ctx, entry); err != nil {
				cfg.Logger.Error("journal: append failed",
					"run", cfg.Run,
					"seq", seq,
					"kind", kind,
					"error", err,
				)
			}
		}
	}
}

func withTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), d)
}
