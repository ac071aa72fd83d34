// Package nativesearch queries the operating system's file index (Windows
// Search or Spotlight) and returns matching files as SearchRecords.
//
// Exactly one native backend is compiled per target. Every call is
// synchronous and owns its native resources from construction to teardown.
package nativesearch

import (
	"context"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"

	"native_find/internal/logger"
)

// backend compiles and runs a query against one platform's index.
type backend interface {
	build(spec QuerySpec) (string, error)
	execute(ctx context.Context, query string) (resultSet, error)
}

// resultSet is an executed query. close releases every native resource the
// query still holds and must be called exactly once.
type resultSet interface {
	materialize(ctx context.Context, maxRows int) ([]SearchRecord, error)
	close()
}

// Searcher runs index queries with a fixed filter policy.
type Searcher struct {
	filters Filters
	backend backend
	log     *zap.Logger
}

type Option func(*Searcher)

// WithLogger sets the logger used when the call context carries none.
func WithLogger(l *zap.Logger) Option {
	return func(s *Searcher) { s.log = l }
}

func withBackend(b backend) Option {
	return func(s *Searcher) { s.backend = b }
}

func New(filters Filters, opts ...Option) *Searcher {
	s := &Searcher{filters: filters, log: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	if s.backend == nil {
		s.backend = newPlatformBackend(s.log)
	}
	return s
}

// Filters returns the filter policy compiled into every query.
func (s *Searcher) Filters() Filters { return s.filters }

// Search runs fragment against the native index. An empty fragment matches
// every file allowed by the filters.
//
// Records are in the provider's order. When some rows could not be read the
// readable rows are returned together with a *PartialError; see IsPartial.
// Build and execution failures return no records.
//
// ctx bounds the wait for the index; a context without deadline waits as long
// as the index takes.
func (s *Searcher) Search(ctx context.Context, fragment string) ([]SearchRecord, error) {
	log := s.log
	if l, ok := logger.Lookup(ctx); ok {
		log = l
	}
	spec := QuerySpec{Fragment: fragment, Filters: s.filters}

	native, err := s.backend.build(spec)
	if err != nil {
		return nil, err
	}
	log.Debug("query built", zap.String("query", native))

	// COM apartments and run loops are per OS thread
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	start := time.Now()
	rs, err := s.backend.execute(ctx, native)
	if err != nil {
		log.Debug("query execution failed", zap.Error(err))
		return nil, err
	}
	defer rs.close()

	recs, err := rs.materialize(ctx, spec.MaxResults)
	if err != nil {
		log.Warn("query returned partial results", zap.Int("records", len(recs)), zap.Error(err))
	}
	log.Debug("query finished", zap.Int("records", len(recs)), zap.Duration("took", time.Since(start)))
	return recs, err
}

var defaultSearcher = sync.OnceValue(func() *Searcher {
	return New(DefaultFilters())
})

// Search runs fragment with DefaultFilters.
func Search(ctx context.Context, fragment string) ([]SearchRecord, error) {
	return defaultSearcher().Search(ctx, fragment)
}

// SearchLocalFilesByQuery is Search without a deadline.
func SearchLocalFilesByQuery(fragment string) ([]SearchRecord, error) {
	return Search(context.Background(), fragment)
}
