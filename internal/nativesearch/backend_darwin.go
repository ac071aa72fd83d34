//go:build darwin && cgo

package nativesearch

/*
#cgo LDFLAGS: -framework Foundation -framework CoreFoundation
#include "spotlight_darwin.h"
*/
import "C"

import (
	"context"
	"errors"
	"runtime/cgo"
	"time"
	"unsafe"

	"go.uber.org/zap"
)

// liveQueries holds the Spotlight query currently pumping a run loop.
var liveQueries = &Registry{}

const runLoopSlice = 250 * time.Millisecond

//export nfindGatheringFinished
func nfindGatheringFinished(token C.uintptr_t) {
	if fn, ok := cgo.Handle(token).Value().(func()); ok {
		fn()
	}
}

type spotlightBackend struct {
	log *zap.Logger
}

func newPlatformBackend(log *zap.Logger) backend {
	return &spotlightBackend{log: log}
}

func (b *spotlightBackend) build(spec QuerySpec) (string, error) {
	return BuildPredicate(spec)
}

func (b *spotlightBackend) execute(ctx context.Context, predicate string) (resultSet, error) {
	return executeMetadata(ctx, spotlightAPI{}, liveQueries, predicate, b.log)
}

type spotlightAPI struct{}

func (spotlightAPI) newQuery(predicate string) (metadataQuery, error) {
	cs := C.CString(predicate)
	defer C.free(unsafe.Pointer(cs))

	var cerr *C.char
	q := C.nfind_query_new(cs, &cerr)
	if q == nil {
		msg := "NSMetadataQuery allocation failed"
		if cerr != nil {
			msg = C.GoString(cerr)
			C.free(unsafe.Pointer(cerr))
		}
		return nil, newError(StageBind, "NSPredicate predicateFromMetadataQueryString", msg)
	}
	return &spotlightQuery{q: q}, nil
}

// spotlightQuery owns one NSMetadataQuery and the observer attached to it.
type spotlightQuery struct {
	q *C.nfind_query
}

func (s *spotlightQuery) observe(onFinish func()) (func(), error) {
	h := cgo.NewHandle(onFinish)
	if C.nfind_query_observe(s.q, C.uintptr_t(h)) == 0 {
		h.Delete()
		return nil, newError(StageExecute, "NSNotificationCenter addObserverForName", "observer registration failed")
	}
	return func() {
		C.nfind_query_unobserve(s.q)
		h.Delete()
	}, nil
}

func (s *spotlightQuery) start() error {
	if C.nfind_query_start(s.q) == 0 {
		return newError(StageExecute, "NSMetadataQuery startQuery", "query refused to start")
	}
	return nil
}

func (s *spotlightQuery) stop() { C.nfind_query_stop(s.q) }

func (s *spotlightQuery) wake() { C.nfind_query_wake(s.q) }

func (s *spotlightQuery) wait(ctx context.Context, done <-chan struct{}) error {
	for {
		select {
		case <-done:
			return nil
		default:
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if C.nfind_run_loop_slice(C.double(runLoopSlice.Seconds())) == C.NFIND_RUNLOOP_FINISHED {
			// no sources attached yet, don't spin
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func (s *spotlightQuery) count() int { return int(C.nfind_query_count(s.q)) }

var errItemUnreadable = errors.New("metadata item lacks name or path")

func (s *spotlightQuery) item(i int) (SearchRecord, error) {
	var name, path, attr *C.char
	if C.nfind_query_item(s.q, C.long(i), &name, &path, &attr) == 0 {
		return SearchRecord{}, errItemUnreadable
	}
	defer C.free(unsafe.Pointer(name))
	defer C.free(unsafe.Pointer(path))
	defer C.free(unsafe.Pointer(attr))
	return SearchRecord{
		Name:      C.GoString(name),
		Location:  C.GoString(path),
		Attribute: C.GoString(attr),
	}, nil
}

func (s *spotlightQuery) release() {
	C.nfind_query_release(s.q)
	s.q = nil
}
