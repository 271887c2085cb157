// Package resolver coordinates SRV resolution sessions: it dispatches
// queries to a backend, collects and validates the delivered records,
// and hands the caller the final priority/weight-ordered target list.
package resolver

import (
	"context"
	"sync"
	"time"

	"github.com/srvdns/srvdns-go/cache"
	"github.com/srvdns/srvdns-go/srv"
	"go.uber.org/zap"
	"golang.org/x/net/dns/dnsmessage"
)

// Result is the outcome of a successful resolution.
//
// A Result with zero records is still a success: every candidate record
// was either absent or invalid. Backend failures are reported as errors
// from [Resolver.Resolve] instead.
type Result struct {
	// CanonicalName is the resolved canonical name of the query.
	CanonicalName string

	// RCode is the response code reported by the backend.
	RCode dnsmessage.RCode

	// Records are the validated records in final failover order:
	// ascending priority, weighted-shuffled within equal priority.
	Records []srv.Record

	// MinTTL is the smallest TTL among the accepted records, in
	// seconds. It is 0 if no records were accepted.
	MinTTL uint32

	// Dropped is the number of records that failed validation.
	Dropped int

	// Answer is the backend's raw encoded answer, if it has one,
	// for out-of-band inspection.
	Answer []byte
}

// Resolver resolves service names through a [Backend] and caches
// completed results until their TTL expires.
type Resolver struct {
	// name stores the resolver's name to make its log messages more useful.
	name string

	// backend is the upstream source of answer records.
	backend Backend

	// mu protects the result cache.
	mu sync.Mutex

	// cache maps service names to completed results.
	cache *cache.TTLCache[string, Result]

	// logger is the shared logger instance.
	logger *zap.Logger
}

// New returns a new resolver using the given backend.
// If cacheSize is negative, result caching is disabled.
func New(name string, backend Backend, cacheSize int, logger *zap.Logger) *Resolver {
	var c *cache.TTLCache[string, Result]
	if cacheSize >= 0 {
		c = cache.New[string, Result](cacheSize)
	}
	return &Resolver{
		name:    name,
		backend: backend,
		cache:   c,
		logger:  logger,
	}
}

// Resolve resolves the SRV record set for name and returns the targets
// in final failover order. It blocks until the session terminates or
// ctx is canceled.
//
// If ctx is canceled while the backend can no longer abandon the query,
// Resolve waits for the committed result instead.
func (r *Resolver) Resolve(ctx context.Context, name string) (Result, error) {
	if result, ok := r.cachedResult(name); ok {
		if ce := r.logger.Check(zap.DebugLevel, "SRV lookup got result from cache"); ce != nil {
			ce.Write(
				zap.String("resolver", r.name),
				zap.String("name", name),
				zap.Int("records", len(result.Records)),
			)
		}
		return result, nil
	}

	q := NewQuery(name, r.logger)
	if err := r.backend.Resolve(q); err != nil {
		return Result{}, err
	}

	select {
	case <-q.done:
	case <-ctx.Done():
		if err := r.backend.Cancel(q); err != nil {
			// The answer is already committed or about to be;
			// wait for it.
			<-q.done
		} else {
			q.Fail(ctx.Err())
		}
	}

	result, err := q.Result()
	if err != nil {
		r.logger.Warn("SRV lookup failed",
			zap.String("resolver", r.name),
			zap.String("name", name),
			zap.Error(err),
		)
		return Result{}, err
	}

	if result.RCode == dnsmessage.RCodeSuccess && result.MinTTL != 0 {
		r.storeResult(name, result)
	}

	return result, nil
}

func (r *Resolver) cachedResult(name string) (Result, bool) {
	if r.cache == nil {
		return Result{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.Get(name, time.Now())
}

func (r *Resolver) storeResult(name string, result Result) {
	if r.cache == nil {
		return
	}
	expireAt := time.Now().Add(time.Duration(result.MinTTL) * time.Second)
	r.mu.Lock()
	r.cache.Set(name, result, expireAt)
	r.mu.Unlock()
}
