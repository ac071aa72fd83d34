package nativesearch

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// metadataAPI is the native surface of the notification protocol
// (NSMetadataQuery + run loop).
type metadataAPI interface {
	newQuery(predicate string) (metadataQuery, error)
}

type metadataQuery interface {
	// observe registers onFinish for the query's gathering-finished
	// notification and returns the function that unregisters it.
	observe(onFinish func()) (func(), error)
	start() error
	// stop halts gathering. Called only by the thread that started the query.
	stop()
	// wake interrupts wait from any thread.
	wake()
	// wait pumps the calling thread's run loop until done is closed or ctx ends.
	wait(ctx context.Context, done <-chan struct{}) error
	count() int
	item(i int) (SearchRecord, error)
	release()
}

// executeMetadata runs one notification query to completion. The returned
// result set owns the query; every native resource acquired here is released
// by its close, or before returning on error.
func executeMetadata(ctx context.Context, api metadataAPI, reg *Registry, predicate string, log *zap.Logger) (resultSet, error) {
	sc := &scope{onError: func(err error) { log.Warn("teardown failed", zap.Error(err)) }}
	ok := false
	defer func() {
		if !ok {
			sc.close()
		}
	}()

	q, err := api.newQuery(predicate)
	if err != nil {
		return nil, stageError(StageBind, "create metadata query", err)
	}
	sc.add(func() error { q.release(); return nil })

	lq := newLiveQuery(q.wake)
	unobserve, err := q.observe(func() { reg.Finish(lq) })
	if err != nil {
		return nil, stageError(StageExecute, "observe gathering", err)
	}
	sc.add(func() error { unobserve(); return nil })

	if prev := reg.ReplaceAndStop(lq); prev != nil {
		log.Debug("preempted previous metadata query")
	}
	sc.add(func() error { reg.Finish(lq); return nil })

	if err := q.start(); err != nil {
		return nil, stageError(StageExecute, "start query", err)
	}
	stopQuery := sync.OnceFunc(q.stop)
	sc.add(func() error { stopQuery(); return nil })

	log.Debug("waiting for metadata query to finish gathering")
	if err := q.wait(ctx, lq.Done()); err != nil {
		return nil, wrapError(StageExecute, "wait", err)
	}
	if lq.Preempted() {
		return nil, &Error{Stage: StageExecute, Op: "wait", Msg: ErrPreempted.Error(), Err: ErrPreempted}
	}
	// stop gathering before reading, live updates would shift indices
	stopQuery()

	ok = true
	return &metadataResults{q: q, sc: sc}, nil
}

type metadataResults struct {
	q  metadataQuery
	sc *scope
}

func (r *metadataResults) materialize(ctx context.Context, maxRows int) ([]SearchRecord, error) {
	n := min(r.q.count(), maxRows)
	out := make([]SearchRecord, 0, n)
	warn := &PartialError{}
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			warn.add(wrapError(StageExtract, "read item", err))
			break
		}
		rec, err := r.q.item(i)
		if err != nil {
			warn.add(stageError(StageExtract, fmt.Sprintf("read item %d", i), err))
			continue
		}
		out = append(out, rec)
	}
	return out, warn.orNil()
}

func (r *metadataResults) close() { r.sc.close() }
