package tea

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Subscription is returned by Program.Subscribe.
type Subscription struct {
	id     string
	cancel func()
	once   sync.Once
}

// ID returns the subscription key.
func (s *Subscription) ID() string {
	return s.id
}

// Unsubscribe stops future notifications, including any already queued for
// delivery. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(s.cancel)
}

// subscriber is the notifier-side record of a Subscription.
type subscriber[S any] struct {
	listener func(S)
	// since is the version already covered by the initial delivery;
	// broadcasts at or below it are skipped for this subscriber.
	since  uint64
	active atomic.Bool
}

type notification[S any] struct {
	state   S
	version uint64
	// target restricts delivery to one subscriber (initial delivery).
	target *subscriber[S]
}

// notifier fans committed states out to subscribers on its own goroutine so
// slow listeners never hold up dispatch or effects.
type notifier[S any] struct {
	mu    sync.RWMutex
	subs  map[string]*subscriber[S]
	order []string

	queue *mailbox[notification[S]]
	done  chan struct{}
}

func newNotifier[S any]() *notifier[S] {
	n := &notifier[S]{
		subs:  make(map[string]*subscriber[S]),
		queue: newMailbox[notification[S]](),
		done:  make(chan struct{}),
	}
	go n.run()
	return n
}

// add registers listener. The caller must hold the program's state lock so
// that since and the initial delivery line up with committed versions.
func (n *notifier[S]) add(listener func(S), state S, version uint64) *Subscription {
	sub := &subscriber[S]{listener: listener, since: version}
	sub.active.Store(true)

	key := uuid.Must(uuid.NewV7()).String()

	n.mu.Lock()
	n.subs[key] = sub
	n.order = append(n.order, key)
	n.mu.Unlock()

	n.queue.Enqueue(notification[S]{state: state, version: version, target: sub})

	return &Subscription{
		id: key,
		cancel: func() {
			sub.active.Store(false)
			n.remove(key)
		},
	}
}

func (n *notifier[S]) remove(key string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.subs[key]; !ok {
		return
	}
	delete(n.subs, key)
	for i, k := range n.order {
		if k == key {
			n.order = append(n.order[:i], n.order[i+1:]...)
			break
		}
	}
}

// publish queues a broadcast. Called with the program's state lock held so
// queue order matches commit order.
func (n *notifier[S]) publish(state S, version uint64) {
	n.queue.Enqueue(notification[S]{state: state, version: version})
}

// count returns the number of registered subscribers.
func (n *notifier[S]) count() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs)
}

// snapshot returns subscribers in registration order.
func (n *notifier[S]) snapshot() []*subscriber[S] {
	n.mu.RLock()
	defer n.mu.RUnlock()

	subs := make([]*subscriber[S], 0, len(n.order))
	for _, key := range n.order {
		subs = append(subs, n.subs[key])
	}
	return subs
}

func (n *notifier[S]) run() {
	defer close(n.done)

	for {
		note, ok := n.queue.Dequeue()
		if !ok {
			return
		}

		if note.target != nil {
			if note.target.active.Load() {
				note.target.listener(note.state)
			}
			continue
		}

		for _, sub := range n.snapshot() {
			if !sub.active.Load() || note.version <= sub.since {
				continue
			}
			sub.listener(note.state)
		}
	}
}

// close delivers everything already queued and stops the goroutine.
func (n *notifier[S]) close() {
	n.queue.Close()
	<-n.done
}
