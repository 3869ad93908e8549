package tea

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
)

// Option configures a Program.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	exec       Executor
	idGen      IDGenerator
	middleware []any
}

// WithLogger sets the logger used for lifecycle and per-message logs.
// Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMiddleware appends middlewares to the dispatch chain. Across all
// WithMiddleware options, the first middleware given is the outermost
// wrapper and sees every message first.
//
// The type parameters must match the Program's; New returns an error
// otherwise.
func WithMiddleware[E, S, M any](mws ...Middleware[E, S, M]) Option {
	return func(o *options) {
		for _, mw := range mws {
			o.middleware = append(o.middleware, mw)
		}
	}
}

// WithExecutor sets the executor that runs command effects. The executor
// must outlive the Program. Default: one goroutine per effect, owned by the
// Program and awaited by Close.
func WithExecutor(exec Executor) Option {
	return func(o *options) {
		o.exec = exec
	}
}

// WithIDGenerator sets the generator for the program ID.
// Default: UUIDv7Generator.
func WithIDGenerator(gen IDGenerator) Option {
	return func(o *options) {
		o.idGen = gen
	}
}

// envelope carries a message through the update mailbox. reply is set for
// Send and receives the state right after the message left the chain.
type envelope[S, M any] struct {
	msg   M
	reply chan S
}

// Program owns a state value and serializes every change to it.
//
// Three execution contexts cooperate:
//   - the update loop: one goroutine drains the mailbox and runs the
//     middleware chain and handler for each message (single writer)
//   - the executor: runs command effects, decoupled from the update loop so
//     long effects never delay later dispatches
//   - the notifier: one goroutine delivers committed states to subscribers
//
// Thread-safety model:
//   - Dispatch(), Send(), Read(), Subscribe(), Execute(): safe from any goroutine
//   - Close(): safe from any goroutine, idempotent
//
// INVARIANTS:
//   - state is written only by the update loop
//   - version increases by exactly one per committed update
//   - subscribers observe committed states in version order
type Program[E, S, M any] struct {
	id      string
	env     E
	handler MessageHandler[E, S, M]
	logger  *slog.Logger

	mu      sync.RWMutex
	state   S
	version uint64

	dispatcher Dispatch[M]
	inbox      *mailbox[envelope[S, M]]
	exec       Executor
	group      *taskGroup
	notifier   *notifier[S]
	idle       idleTracker

	loopDone  chan struct{}
	closeOnce sync.Once
}

// New creates a Program and starts its update loop.
//
// Returns ErrEmptyHandler if handler is the zero value, and a *ConfigError
// if a middleware given with WithMiddleware has different type parameters.
func New[E, S, M any](
	initial S,
	env E,
	handler MessageHandler[E, S, M],
	opts ...Option,
) (*Program[E, S, M], error) {
	if handler.Len() == 0 {
		return nil, ErrEmptyHandler
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	mws := make([]Middleware[E, S, M], 0, len(o.middleware))
	for _, raw := range o.middleware {
		mw, ok := raw.(Middleware[E, S, M])
		if !ok {
			return nil, &ConfigError{
				Op:   "install middleware",
				Want: reflect.TypeFor[Middleware[E, S, M]]().String(),
				Got:  fmt.Sprintf("%T", raw),
			}
		}
		mws = append(mws, mw)
	}

	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.idGen == nil {
		o.idGen = UUIDv7Generator{}
	}

	p := &Program[E, S, M]{
		id:       o.idGen.Generate(),
		env:      env,
		handler:  handler,
		logger:   o.logger,
		state:    initial,
		inbox:    newMailbox[envelope[S, M]](),
		exec:     o.exec,
		notifier: newNotifier[S](),
		loopDone: make(chan struct{}),
	}
	if p.exec == nil {
		p.group = &taskGroup{}
		p.exec = p.group
	}

	p.dispatcher = Chain(p.env, p.Read, p.commit, mws...)

	p.logger.Info("program starting",
		"program", p.id,
		"handlers", handler.Len(),
		"middleware", len(mws),
	)

	go p.loop()

	return p, nil
}

// MustNew is like New but panics on error.
func MustNew[E, S, M any](
	initial S,
	env E,
	handler MessageHandler[E, S, M],
	opts ...Option,
) *Program[E, S, M] {
	p, err := New(initial, env, handler, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// ID returns the program identifier.
func (p *Program[E, S, M]) ID() string {
	return p.id
}

// Dispatch enqueues msg and returns immediately. A Read right after
// Dispatch is not guaranteed to observe msg.
//
// Concurrent dispatches are fully serialized; messages are applied in the
// order they reach the mailbox. There is no ordering between dispatches
// issued concurrently by uncoordinated callers.
//
// Returns false if the program is closed.
func (p *Program[E, S, M]) Dispatch(msg M) bool {
	return p.enqueue(envelope[S, M]{msg: msg})
}

// Send dispatches msg and waits until it has passed through the whole
// middleware chain, returning the state at that point.
func (p *Program[E, S, M]) Send(ctx context.Context, msg M) (S, error) {
	reply := make(chan S, 1)
	if !p.enqueue(envelope[S, M]{msg: msg, reply: reply}) {
		var zero S
		return zero, ErrClosed
	}

	select {
	case state := <-reply:
		return state, nil
	case <-ctx.Done():
		var zero S
		return zero, ctx.Err()
	}
}

// Read returns the current state. It takes a read lock rather than going
// through the mailbox, so it is never starved by a busy update loop.
func (p *Program[E, S, M]) Read() S {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Version returns the number of updates committed so far.
func (p *Program[E, S, M]) Version() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.version
}

// Snapshot returns the current state together with its version.
func (p *Program[E, S, M]) Snapshot() (S, uint64) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state, p.version
}

// Execute runs cmd on the executor. Each effect of a batch is submitted as
// its own task. Effects publish through Dispatch.
//
// An effect refused by the executor (a Pool closed by its owner) is dropped
// and logged, and does not count as outstanding work.
func (p *Program[E, S, M]) Execute(cmd Command[E, M]) {
	for _, effect := range cmd.effects {
		p.idle.add(1)
		task := func() {
			defer p.idle.add(-1)
			effect(p.env, p.publish)
		}

		rej, ok := p.exec.(rejectingExecutor)
		if !ok {
			p.exec.Go(task)
			continue
		}
		if !rej.TryGo(task) {
			p.idle.add(-1)
			p.logger.Warn("effect dropped: executor closed", "program", p.id)
		}
	}
}

// Subscribe registers listener. It is called promptly with the current
// state, then once per committed update in commit order, on the notifier
// goroutine. Listeners should return quickly; a slow listener delays other
// listeners but never dispatch or effects.
func (p *Program[E, S, M]) Subscribe(listener func(S)) *Subscription {
	// Holding the read lock keeps commits out while the subscriber's
	// starting version and initial delivery are queued.
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.notifier.add(listener, p.state, p.version)
}

// Subscribers returns the number of active subscriptions.
func (p *Program[E, S, M]) Subscribers() int {
	return p.notifier.count()
}

// Pending returns the amount of outstanding work: queued messages, the
// message being dispatched, and running effects.
func (p *Program[E, S, M]) Pending() int {
	return p.idle.outstanding()
}

// Settle blocks until the program is idle: no queued or in-flight messages
// and no running effects. Effects that publish keep the program busy, so
// Settle returns only once follow-up messages have been applied too.
func (p *Program[E, S, M]) Settle(ctx context.Context) error {
	return p.idle.wait(ctx)
}

// Close stops the program. New dispatches are rejected, queued messages are
// applied, running effects are awaited (their publishes are dropped), and
// pending notifications are delivered. Call Settle first to let follow-up
// messages land. Close is idempotent. It must not be called from inside an
// effect or a listener, since it waits for both to finish.
func (p *Program[E, S, M]) Close() {
	p.closeOnce.Do(func() {
		p.inbox.Close()
		<-p.loopDone

		if p.group != nil {
			p.group.Wait()
		}

		p.notifier.close()

		p.logger.Info("program stopped",
			"program", p.id,
			"version", p.Version(),
		)
	})
}

func (p *Program[E, S, M]) enqueue(env envelope[S, M]) bool {
	p.idle.add(1)
	if !p.inbox.Enqueue(env) {
		p.idle.add(-1)
		p.logger.Debug("message dropped: program closed", "program", p.id)
		return false
	}
	return true
}

func (p *Program[E, S, M]) publish(msg M) {
	p.Dispatch(msg)
}

// loop is the update-serialization context.
// CRITICAL: the only goroutine that writes p.state.
func (p *Program[E, S, M]) loop() {
	defer close(p.loopDone)

	for {
		env, ok := p.inbox.Dequeue()
		if !ok {
			return
		}

		p.dispatcher(env.msg)
		state := p.state
		p.idle.add(-1)

		if env.reply != nil {
			env.reply <- state
		}
	}
}

// commit is the innermost dispatcher: run the handler, publish the new
// state, then hand the command to the executor.
// CRITICAL: called only from loop, through the middleware chain.
func (p *Program[E, S, M]) commit(msg M) {
	// The loop goroutine is the only writer, so it can read p.state
	// without the lock while the handler runs.
	next, cmd := p.handler.Run(p.state, msg)

	p.mu.Lock()
	p.state = next
	p.version++
	version := p.version
	p.notifier.publish(next, version)
	p.mu.Unlock()

	p.logger.Debug("message applied",
		"program", p.id,
		"version", version,
		"effects", cmd.Len(),
	)

	p.Execute(cmd)
}
