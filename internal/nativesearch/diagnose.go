package nativesearch

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"
)

const diagnoseTimeout = 15 * time.Second

type diagReport struct {
	b strings.Builder
}

func (r *diagReport) addf(format string, args ...any) {
	fmt.Fprintf(&r.b, format, args...)
	r.b.WriteByte('\n')
}

// Diagnose checks that the platform index is installed and answers a trial
// query. The report is meant for humans.
func Diagnose() string {
	r := &diagReport{}
	r.addf("platform: %s/%s", runtime.GOOS, runtime.GOARCH)
	platformChecks(r)
	trialQuery(r, New(DefaultFilters()))
	return r.b.String()
}

func trialQuery(r *diagReport, s *Searcher) {
	ctx, cancel := context.WithTimeout(context.Background(), diagnoseTimeout)
	defer cancel()

	start := time.Now()
	recs, err := s.Search(ctx, "")
	took := time.Since(start).Round(time.Millisecond)
	switch {
	case err == nil:
		r.addf("trial query: ok, %d records in %s", len(recs), took)
	case IsPartial(err):
		r.addf("trial query: partial, %d records in %s: %v", len(recs), took, err)
	default:
		r.addf("trial query: failed after %s: %v", took, err)
	}
	if len(recs) > 0 {
		r.addf("first record: %s (%s)", recs[0].Name, recs[0].Path())
	}
}
