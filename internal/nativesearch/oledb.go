package nativesearch

import (
	"context"

	"go.uber.org/zap"
)

const collatorInitString = `provider=Search.CollatorDSO.1;EXTENDED PROPERTIES="Application=Windows"`

// oledbAPI is the native surface of the cursor protocol's setup chain
// (COM + OLE DB). Every object a method returns carries one reference that
// the caller releases. Codes are HRESULTs: negative when read as int32 means
// failure.
type oledbAPI interface {
	// oleInitialize reports changedMode when the thread already lives in an
	// apartment of another kind. That call must not be balanced.
	oleInitialize() (changedMode bool, hr uint32)
	oleUninitialize()
	newDataInitialize() (oledbDataInit, uint32)
}

type comObject interface {
	release()
}

type oledbDataInit interface {
	comObject
	getDataSource(initString string) (oledbDataSource, uint32)
}

type oledbDataSource interface {
	comObject
	initialize() uint32
	uninitialize() uint32
	sessionFactory() (oledbSessionFactory, uint32)
}

type oledbSessionFactory interface {
	comObject
	createSession() (oledbSession, uint32)
}

type oledbSession interface {
	comObject
	createCommand() (oledbCommand, uint32)
}

type oledbCommand interface {
	comObject
	setCommandText(sql string) uint32
	// execute may return a nil rowset with a success code when nothing matched.
	execute() (oledbRowset, uint32)
}

type oledbRowset interface {
	comObject
	accessor() (oledbAccessor, uint32)
}

// oledbAccessor reads rows of the rowset it was obtained from.
type oledbAccessor interface {
	comObject
	rowCursor
}

func hresultFailed(hr uint32) bool { return int32(hr) < 0 }

func releaseOf(o comObject) func() error {
	return func() error { o.release(); return nil }
}

// executeOLEDB builds the whole provider chain for one query and executes
// it. The returned result set owns the chain; on error everything acquired
// so far is released before returning.
func executeOLEDB(ctx context.Context, api oledbAPI, query string, log *zap.Logger) (resultSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapError(StageInitialize, "context", err)
	}

	sc := &scope{onError: func(err error) { log.Warn("teardown failed", zap.Error(err)) }}
	ok := false
	defer func() {
		if !ok {
			sc.close()
		}
	}()

	// S_FALSE means this thread already had an apartment; it still needs a
	// balancing uninit.
	changedMode, hr := api.oleInitialize()
	switch {
	case changedMode:
		log.Debug("thread already in a multi-threaded apartment")
	case hresultFailed(hr):
		return nil, hresultError(StageInitialize, "OleInitialize", hr)
	default:
		sc.add(func() error { api.oleUninitialize(); return nil })
	}

	dataInit, hr := api.newDataInitialize()
	if hresultFailed(hr) || dataInit == nil {
		return nil, hresultError(StageDataSource, "CoCreateInstance(MSDAINITIALIZE)", hr)
	}
	sc.add(releaseOf(dataInit))

	dbInit, hr := dataInit.getDataSource(collatorInitString)
	if hresultFailed(hr) || dbInit == nil {
		return nil, hresultError(StageDataSource, "IDataInitialize::GetDataSource", hr)
	}
	sc.add(releaseOf(dbInit))

	if hr := dbInit.initialize(); hresultFailed(hr) {
		return nil, hresultError(StageDataSource, "IDBInitialize::Initialize", hr)
	}
	sc.add(func() error {
		if hr := dbInit.uninitialize(); hresultFailed(hr) {
			return hresultError(StageRelease, "IDBInitialize::Uninitialize", hr)
		}
		return nil
	})

	factory, hr := dbInit.sessionFactory()
	if hresultFailed(hr) || factory == nil {
		return nil, hresultError(StageSession, "QueryInterface(IDBCreateSession)", hr)
	}
	sc.add(releaseOf(factory))

	session, hr := factory.createSession()
	if hresultFailed(hr) || session == nil {
		return nil, hresultError(StageSession, "IDBCreateSession::CreateSession", hr)
	}
	sc.add(releaseOf(session))

	cmd, hr := session.createCommand()
	if hresultFailed(hr) || cmd == nil {
		return nil, hresultError(StageCommand, "IDBCreateCommand::CreateCommand", hr)
	}
	sc.add(releaseOf(cmd))

	if hr := cmd.setCommandText(query); hresultFailed(hr) {
		return nil, hresultError(StageBind, "ICommandText::SetCommandText", hr)
	}

	if err := ctx.Err(); err != nil {
		return nil, wrapError(StageExecute, "context", err)
	}
	rowset, hr := cmd.execute()
	if hresultFailed(hr) {
		return nil, hresultError(StageExecute, "ICommand::Execute", hr)
	}
	if rowset == nil {
		log.Debug("provider returned no rowset")
		ok = true
		return &oledbResults{sc: sc, log: log}, nil
	}
	sc.add(releaseOf(rowset))

	acc, hr := rowset.accessor()
	if hresultFailed(hr) || acc == nil {
		return nil, hresultError(StageExecute, "QueryInterface(IAccessor)", hr)
	}
	sc.add(releaseOf(acc))

	ok = true
	return &oledbResults{cursor: acc, sc: sc, log: log}, nil
}

type oledbResults struct {
	// cursor is nil when the provider produced no rowset.
	cursor rowCursor
	sc     *scope
	log    *zap.Logger
}

func (r *oledbResults) materialize(ctx context.Context, maxRows int) ([]SearchRecord, error) {
	if r.cursor == nil {
		return []SearchRecord{}, nil
	}
	return materializeRows(ctx, r.cursor, maxRows, r.log)
}

func (r *oledbResults) close() { r.sc.close() }
