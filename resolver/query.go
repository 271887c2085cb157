package resolver

import (
	"errors"
	"sync"

	"github.com/srvdns/srvdns-go/srv"
	"go.uber.org/zap"
	"golang.org/x/net/dns/dnsmessage"
)

// ErrNotTerminated is returned by [Query.Result] while the query is
// still in flight.
var ErrNotTerminated = errors.New("query has not reached a terminal state")

// State is the lifecycle state of a [Query].
type State uint8

const (
	// StatePending means the query has been dispatched and no records
	// have arrived yet.
	StatePending State = iota

	// StateCollecting means at least one record has been delivered.
	StateCollecting

	// StateFinalizing means the backend has signaled completion and the
	// accepted records are being ordered.
	StateFinalizing

	// StateCompleted is the terminal success state. The result may
	// carry zero records.
	StateCompleted

	// StateFailed is the terminal failure state.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateCollecting:
		return "collecting"
	case StateFinalizing:
		return "finalizing"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "invalid"
	}
}

// Backend dispatches queries to an upstream source of answer records.
type Backend interface {
	// Resolve starts resolving q asynchronously and returns without
	// waiting for completion. The backend delivers answer records with
	// [Query.AddRecord] and terminates the query with exactly one call
	// to [Query.Complete] or [Query.Fail].
	Resolve(q *Query) error

	// Cancel requests cancellation of q's in-flight work. A backend
	// that can no longer cancel the query must return an error rather
	// than silently ignoring the request.
	Cancel(q *Query) error
}

// Query is a single in-flight resolution session. It accumulates
// validated records delivered by the backend and, on completion, arranges
// them into the final failover order.
//
// The backend's delivery path is the only writer of the accumulated
// record set; ordering runs synchronously inside Complete, after which
// the records belong to the waiting caller.
type Query struct {
	name   string
	qtype  dnsmessage.Type
	qclass dnsmessage.Class
	logger *zap.Logger

	mu      sync.Mutex
	state   State
	records []srv.Record
	dropped int
	minTTL  uint32
	result  Result
	err     error
	done    chan struct{}
}

// NewQuery returns a new SRV/IN resolution session for name.
// Sessions are normally created by [Resolver.Resolve]; backends only
// need to create them directly in tests.
func NewQuery(name string, logger *zap.Logger) *Query {
	return &Query{
		name:   name,
		qtype:  dnsmessage.TypeSRV,
		qclass: dnsmessage.ClassINET,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Name returns the service name being resolved.
func (q *Query) Name() string {
	return q.name
}

// Type returns the queried record type.
func (q *Query) Type() dnsmessage.Type {
	return q.qtype
}

// Class returns the queried record class.
func (q *Query) Class() dnsmessage.Class {
	return q.qclass
}

// State returns the query's current state.
func (q *Query) State() State {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// Done returns a channel that is closed when the query reaches a
// terminal state.
func (q *Query) Done() <-chan struct{} {
	return q.done
}

// Result returns the committed result. It returns the backend's error
// if the query failed, or [ErrNotTerminated] if it is still in flight.
func (q *Query) Result() (Result, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	switch q.state {
	case StateCompleted:
		return q.result, nil
	case StateFailed:
		return Result{}, q.err
	default:
		return Result{}, ErrNotTerminated
	}
}

// AddRecord delivers one raw answer record to the query. The record's
// RDATA is the n bytes at msg[off:]; name compression resolves against
// msg. Records of other types or classes are ignored, and records that
// fail validation are dropped without failing the query.
//
// AddRecord has no effect on a query that has already terminated.
func (q *Query) AddRecord(typ dnsmessage.Type, class dnsmessage.Class, ttl uint32, msg []byte, off, n int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.state >= StateFinalizing {
		return
	}
	q.state = StateCollecting

	if typ != q.qtype || class != q.qclass {
		return
	}

	record, err := srv.ParseRecord(msg, off, n)
	if err != nil {
		q.dropped++
		if ce := q.logger.Check(zap.DebugLevel, "Dropped invalid SRV record"); ce != nil {
			ce.Write(
				zap.String("name", q.name),
				zap.Int("rdlength", n),
				zap.Error(err),
			)
		}
		return
	}

	if len(q.records) == 0 || ttl < q.minTTL {
		q.minTTL = ttl
	}
	q.records = append(q.records, record)

	if ce := q.logger.Check(zap.DebugLevel, "Accepted SRV record"); ce != nil {
		ce.Write(
			zap.String("name", q.name),
			zap.Stringer("record", record),
			zap.Uint32("ttl", ttl),
		)
	}
}

// Complete signals that the backend has delivered all answer records.
// The accepted records are arranged into their final order and the
// result is committed and handed to the waiting caller.
//
// Completing an already-terminated query has no effect.
func (q *Query) Complete(rcode dnsmessage.RCode, canonicalName string, msg []byte) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.state >= StateFinalizing {
		return
	}
	q.state = StateFinalizing

	records := srv.Arrange(q.records)
	q.records = nil

	q.result = Result{
		CanonicalName: canonicalName,
		RCode:         rcode,
		Records:       records,
		MinTTL:        q.minTTL,
		Dropped:       q.dropped,
		Answer:        msg,
	}
	q.state = StateCompleted
	close(q.done)
}

// Fail terminates the query with a backend failure. No records are
// delivered. Failing an already-terminated query has no effect.
func (q *Query) Fail(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.state >= StateFinalizing {
		return
	}
	q.state = StateFailed
	q.err = err
	close(q.done)
}
