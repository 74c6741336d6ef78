package store

import (
	"context"
	"sync"

	"godrive/logger"
)

// Lister is the one-shot query a subscription re-runs on every change
// notification.
type Lister func(ctx context.Context, q Query) (Snapshot, error)

// Subscription delivers ordered snapshots for one query. Deliveries for a
// single subscription never reorder; when the consumer lags, intermediate
// snapshots are coalesced and the latest one wins.
type Subscription struct {
	query      Query
	list       Lister
	kick       chan struct{}
	out        chan Snapshot
	done       chan struct{}
	cancelOnce sync.Once
	unregister func()
}

// NewSubscription starts a subscription over the given lister. Client
// implementations call Notify on every change that may affect the query;
// the initial snapshot is delivered without one.
func NewSubscription(q Query, list Lister, unregister func()) *Subscription {
	s := &Subscription{
		query:      q,
		list:       list,
		kick:       make(chan struct{}, 1),
		out:        make(chan Snapshot, 1),
		done:       make(chan struct{}),
		unregister: unregister,
	}
	// initial snapshot is delivered without waiting for a change
	s.kick <- struct{}{}
	go s.run()
	return s
}

// Updates returns the delivery channel. It is closed after Cancel; a snapshot
// already buffered at cancel time may still be received, so consumers that
// tear down must check their own liveness before applying one.
func (s *Subscription) Updates() <-chan Snapshot {
	return s.out
}

// Cancel stops delivery. Safe to call multiple times.
func (s *Subscription) Cancel() {
	s.cancelOnce.Do(func() {
		close(s.done)
		if s.unregister != nil {
			s.unregister()
		}
	})
}

// Notify schedules a re-query. Multiple pending notifications collapse into
// one, which is sound because every delivery is a full snapshot.
func (s *Subscription) Notify() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

func (s *Subscription) run() {
	defer close(s.out)
	for {
		select {
		case <-s.done:
			return
		case <-s.kick:
		}

		snap, err := s.list(context.Background(), s.query)
		if err != nil {
			// keep the previous snapshot rather than clearing the view
			logger.Errorf("subscription re-query failed, keeping last snapshot: %v", err)
			continue
		}

		s.deliver(snap)
	}
}

func (s *Subscription) deliver(snap Snapshot) {
	for {
		select {
		case <-s.done:
			return
		case s.out <- snap:
			return
		default:
		}
		// consumer lagging: replace the stale pending snapshot
		select {
		case <-s.out:
		default:
		}
	}
}
