package escrow

import (
	"errors"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gammazero/deque"
	"github.com/google/uuid"
	"github.com/tokenseikyu/escrow-node/internal/interfaces"
	"go.uber.org/atomic"
)

const subscriptionBuffer = 64

// Feed fans successful transitions out to subscribers and keeps a bounded
// history ring for late readers. Publishers never block: a subscriber that
// cannot keep up is dropped with an error on its Err channel.
type Feed struct {
	mutex   sync.Mutex
	history *deque.Deque[Log]
	cap     int
	seq     *atomic.Uint64
	subs    map[string]*Subscription

	log interfaces.ILogger
}

func NewFeed(historyCap int, log interfaces.ILogger) *Feed {
	return &Feed{
		history: deque.New[Log](historyCap, historyCap),
		cap:     historyCap,
		seq:     atomic.NewUint64(0),
		subs:    make(map[string]*Subscription),
		log:     log,
	}
}

type Subscription struct {
	id     string
	events chan Log
	err    chan error
	once   sync.Once
	feed   *Feed
}

func (s *Subscription) Events() <-chan Log {
	return s.events
}

func (s *Subscription) Err() <-chan error {
	return s.err
}

func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.feed.remove(s.id)
		close(s.events)
	})
}

func (f *Feed) Subscribe() *Subscription {
	sub := &Subscription{
		id:     uuid.NewString(),
		events: make(chan Log, subscriptionBuffer),
		err:    make(chan error, 1),
		feed:   f,
	}

	f.mutex.Lock()
	f.subs[sub.id] = sub
	f.mutex.Unlock()

	return sub
}

func (f *Feed) remove(id string) {
	f.mutex.Lock()
	delete(f.subs, id)
	f.mutex.Unlock()
}

func (f *Feed) Publish(emitter common.Address, event interface{}, now time.Time) {
	f.publish(Log{
		Seq:       f.seq.Inc(),
		Address:   emitter,
		Topic:     topicOf(event),
		Timestamp: now,
		Event:     event,
	})
}

func (f *Feed) publish(log Log) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.history.Len() >= f.cap {
		f.history.PopFront()
	}
	f.history.PushBack(log)

	for id, sub := range f.subs {
		select {
		case sub.events <- log:
		default:
			delete(f.subs, id)
			sub.err <- ErrSubscriberSlow
			f.log.Warnf("dropping slow feed subscriber %s", id)
		}
	}
}

// History returns logs emitted by the given address, oldest first. A zero
// address returns everything still in the ring.
func (f *Feed) History(emitter common.Address) []Log {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	logs := make([]Log, 0, f.history.Len())
	for i := 0; i < f.history.Len(); i++ {
		l := f.history.At(i)
		if emitter == (common.Address{}) || l.Address == emitter {
			logs = append(logs, l)
		}
	}
	return logs
}

var ErrSubscriberSlow = errors.New("feed subscriber too slow")
