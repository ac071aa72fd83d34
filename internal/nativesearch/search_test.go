package nativesearch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"native_find/internal/logger"
)

type fakeBackend struct {
	cursor     *fakeCursor
	execErr    error
	built      []string
	executions int
	closed     int
}

func (b *fakeBackend) build(spec QuerySpec) (string, error) {
	q, err := BuildSQL(spec)
	if err == nil {
		b.built = append(b.built, q)
	}
	return q, err
}

func (b *fakeBackend) execute(context.Context, string) (resultSet, error) {
	b.executions++
	if b.execErr != nil {
		return nil, b.execErr
	}
	return &fakeResults{b: b}, nil
}

type fakeResults struct{ b *fakeBackend }

func (r *fakeResults) materialize(ctx context.Context, maxRows int) ([]SearchRecord, error) {
	return materializeRows(ctx, r.b.cursor, maxRows, zap.NewNop())
}

func (r *fakeResults) close() { r.b.closed++ }

func TestSearcher_Search(t *testing.T) {
	b := &fakeBackend{cursor: newFakeCursor(3)}
	s := New(DefaultFilters(), withBackend(b))

	recs, err := s.Search(context.Background(), "a")
	require.NoError(t, err)
	assert.Len(t, recs, 3)
	require.Len(t, b.built, 1)
	assert.Contains(t, b.built[0], "LIKE '%a%'")
	assert.Equal(t, 1, b.closed)
}

func TestSearcher_BuildFailureSkipsExecution(t *testing.T) {
	b := &fakeBackend{cursor: newFakeCursor(3)}
	s := New(DefaultFilters(), withBackend(b))

	recs, err := s.Search(context.Background(), "bad\x00")
	assert.Nil(t, recs)
	assert.ErrorIs(t, err, ErrQueryConstruction)
	assert.Zero(t, b.executions)
	assert.Zero(t, b.closed)
}

func TestSearcher_ExecutionFailure(t *testing.T) {
	b := &fakeBackend{execErr: hresultError(StageSession, "IDBCreateSession::CreateSession", 0x80004005)}
	s := New(DefaultFilters(), withBackend(b))

	recs, err := s.Search(context.Background(), "a")
	assert.Nil(t, recs)
	assert.ErrorIs(t, err, ErrQueryExecution)
	assert.Contains(t, err.Error(), "HRESULT 0x80004005")
	assert.Zero(t, b.closed)
}

func TestSearcher_RespectsMaxResults(t *testing.T) {
	f := DefaultFilters()
	f.MaxResults = 5
	b := &fakeBackend{cursor: newFakeCursor(20)}

	recs, err := New(f, withBackend(b)).Search(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, recs, 5)
	assert.Contains(t, b.built[0], "SELECT TOP 5 ")
}

func TestSearcher_PartialResultsAreLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	b := &fakeBackend{cursor: newFakeCursor(2)}
	b.cursor.failRelease = true

	ctx := logger.WithContext(context.Background(), zap.New(core))
	recs, err := New(DefaultFilters(), withBackend(b)).Search(ctx, "")
	assert.Len(t, recs, 2)
	assert.True(t, IsPartial(err))
	assert.Equal(t, 1, logs.FilterMessage("query returned partial results").Len())
}

func TestSearcher_Filters(t *testing.T) {
	f := DefaultFilters()
	f.Extensions = []string{".docx"}
	s := New(f, withBackend(&fakeBackend{}))
	assert.Equal(t, []string{".docx"}, s.Filters().Extensions)
}

func TestError_Format(t *testing.T) {
	err := hresultError(StageDataSource, "IDBInitialize::Initialize", 0x80040E73)
	assert.Equal(t, "nativesearch datasource: IDBInitialize::Initialize: HRESULT 0x80040E73", err.Error())
	assert.True(t, errors.Is(err, ErrQueryExecution))
	assert.False(t, errors.Is(err, ErrQueryConstruction))

	rel := hresultError(StageRelease, "IRowset::ReleaseRows", 1)
	assert.False(t, errors.Is(rel, ErrQueryExecution))
}

func TestSearchRecord_Path(t *testing.T) {
	cases := []struct {
		loc  string
		want string
	}{
		{"file:C:/Users/me/a.pdf", "C:/Users/me/a.pdf"},
		{"FILE:C:/Users/me/100%.pdf", "C:/Users/me/100%.pdf"},
		{"file:///C:/Users/me/my%20doc.pdf", "C:/Users/me/my doc.pdf"},
		{"file://server/share/a.pdf", "//server/share/a.pdf"},
		{"file:///Users/me/a.pdf", "/Users/me/a.pdf"},
		{"/Users/me/scan.pdf", "/Users/me/scan.pdf"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SearchRecord{Location: tc.loc}.Path(), tc.loc)
	}
}
