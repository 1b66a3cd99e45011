package notify

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Conn is one live client connection. Send must not wait on the network:
// it queues the payload or fails, and a failed Send drops the connection.
type Conn interface {
	Send(ctx context.Context, payload []byte) error
	Close() error
}

// Relay carries notifications between server instances.
type Relay interface {
	Publish(ctx context.Context, n Notification) error
	Subscribe(ctx context.Context, handle func(Notification)) error
}

type bucket struct {
	mu    sync.Mutex
	conns []Conn
	dead  bool
}

// Dispatcher owns the table of live connections per user and a queue of
// notifications drained by Run.
type Dispatcher struct {
	log   *logrus.Logger
	relay Relay
	queue chan Notification

	mu      sync.RWMutex
	buckets map[uuid.UUID]*bucket
}

type Option func(*Dispatcher)

// WithRelay routes published notifications through r so every instance
// delivers them to its own connections.
func WithRelay(r Relay) Option {
	return func(d *Dispatcher) { d.relay = r }
}

func NewDispatcher(log *logrus.Logger, queueSize int, opts ...Option) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	d := &Dispatcher{
		log:     log,
		queue:   make(chan Notification, queueSize),
		buckets: make(map[uuid.UUID]*bucket),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Connect registers conn for userID.
func (d *Dispatcher) Connect(userID uuid.UUID, conn Conn) {
	for {
		d.mu.Lock()
		b, ok := d.buckets[userID]
		if !ok {
			b = &bucket{}
			d.buckets[userID] = b
		}
		d.mu.Unlock()

		b.mu.Lock()
		if b.dead {
			// Бакет удалили между двумя блокировками, берем новый
			b.mu.Unlock()
			continue
		}
		b.conns = append(b.conns, conn)
		b.mu.Unlock()
		d.log.WithField("user_id", userID).Debug("notification connection registered")
		return
	}
}

// Disconnect drops conn from userID's connections. Unknown pairs are ignored.
func (d *Dispatcher) Disconnect(userID uuid.UUID, conn Conn) {
	d.removeConn(userID, conn)
}

func (d *Dispatcher) removeConn(userID uuid.UUID, conn Conn) bool {
	b := d.bucket(userID)
	if b == nil {
		return false
	}

	b.mu.Lock()
	removed := b.remove(conn)
	empty := removed && len(b.conns) == 0
	if empty {
		b.dead = true
	}
	b.mu.Unlock()

	if empty {
		d.mu.Lock()
		if d.buckets[userID] == b {
			delete(d.buckets, userID)
		}
		d.mu.Unlock()
	}
	return removed
}

func (b *bucket) remove(conn Conn) bool {
	for i, c := range b.conns {
		if c == conn {
			b.conns = append(b.conns[:i], b.conns[i+1:]...)
			return true
		}
	}
	return false
}

func (d *Dispatcher) bucket(userID uuid.UUID) *bucket {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.buckets[userID]
}

// Connections returns how many live connections userID has.
func (d *Dispatcher) Connections(userID uuid.UUID) int {
	b := d.bucket(userID)
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.conns)
}

// SendToUser writes payload to every connection of userID. An offline user is
// not an error. A connection whose write fails is closed and forgotten.
func (d *Dispatcher) SendToUser(ctx context.Context, userID uuid.UUID, payload []byte) {
	b := d.bucket(userID)
	if b == nil {
		return
	}

	b.mu.Lock()
	conns := append([]Conn(nil), b.conns...)
	b.mu.Unlock()

	var failed []Conn
	for _, conn := range conns {
		if err := conn.Send(ctx, payload); err != nil {
			d.log.WithError(err).WithField("user_id", userID).Warn("notification write failed, dropping connection")
			failed = append(failed, conn)
		}
	}

	for _, conn := range failed {
		if d.removeConn(userID, conn) {
			_ = conn.Close()
		}
	}
}

// BroadcastToUsers calls SendToUser for each id in order.
func (d *Dispatcher) BroadcastToUsers(ctx context.Context, userIDs []uuid.UUID, payload []byte) {
	for _, id := range userIDs {
		if ctx.Err() != nil {
			return
		}
		d.SendToUser(ctx, id, payload)
	}
}

// Publish queues n for delivery and never blocks. When the queue is full the
// notification is dropped.
func (d *Dispatcher) Publish(n Notification) {
	if len(n.Recipients) == 0 {
		return
	}
	select {
	case d.queue <- n:
	default:
		d.log.WithFields(logrus.Fields{
			"type":    n.Event.Type,
			"task_id": n.Event.TaskID,
		}).Warn("notification queue full, event dropped")
	}
}

// Run drains the queue until ctx is done. A single worker keeps delivery FIFO
// per user.
func (d *Dispatcher) Run(ctx context.Context) {
	if d.relay != nil {
		go func() {
			if err := d.relay.Subscribe(ctx, d.deliver(ctx)); err != nil && ctx.Err() == nil {
				d.log.WithError(err).Error("notification relay subscription stopped")
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case n := <-d.queue:
			if d.relay != nil {
				err := d.relay.Publish(ctx, n)
				if err == nil {
					continue
				}
				d.log.WithError(err).Warn("relay publish failed, delivering locally")
			}
			d.deliver(ctx)(n)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context) func(Notification) {
	return func(n Notification) {
		payload, err := n.Event.Payload()
		if err != nil {
			d.log.WithError(err).Error("encode notification")
			return
		}
		d.BroadcastToUsers(ctx, n.Recipients, payload)
	}
}

// Close closes every registered connection.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	buckets := d.buckets
	d.buckets = make(map[uuid.UUID]*bucket)
	d.mu.Unlock()

	for _, b := range buckets {
		b.mu.Lock()
		for _, conn := range b.conns {
			_ = conn.Close()
		}
		b.conns = nil
		b.dead = true
		b.mu.Unlock()
	}
}
