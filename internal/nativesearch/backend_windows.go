//go:build windows

package nativesearch

import (
	"context"
	"fmt"
	"unsafe"

	"github.com/lxn/win"
	"go.uber.org/zap"
)

// oledbBackend runs Windows Search SQL through the CollatorDSO OLE DB
// provider. Each execute call builds the whole chain from scratch and tears
// it down when the result set closes.
type oledbBackend struct {
	log *zap.Logger
}

func newPlatformBackend(log *zap.Logger) backend {
	return &oledbBackend{log: log}
}

func (b *oledbBackend) build(spec QuerySpec) (string, error) {
	return BuildSQL(spec)
}

func (b *oledbBackend) execute(ctx context.Context, query string) (resultSet, error) {
	return executeOLEDB(ctx, comOLEDB{}, query, b.log)
}

// rowsetCursor adapts IRowset + IAccessor to rowCursor. It holds the
// accessor's reference; the rowset's belongs to the chain.
type rowsetCursor struct {
	rowset   *iRowset
	accessor *iAccessor
}

func (c *rowsetCursor) release() { comRelease(unsafe.Pointer(c.accessor)) }

func (c *rowsetCursor) nextRow() (uintptr, bool, error) {
	rows, obtained, hr := c.rowset.getNextRows()
	if rows != nil {
		defer win.CoTaskMemFree(uintptr(unsafe.Pointer(rows)))
	}
	if failed(hr) {
		return 0, false, hresultError(StageExtract, "IRowset::GetNextRows", uint32(hr))
	}
	// end of rowset (S_OK or DB_S_ENDOFROWSET) shows up as zero rows obtained
	if obtained == 0 || rows == nil {
		return 0, false, nil
	}
	return *rows, true, nil
}

func (c *rowsetCursor) createAccessor(ordinal int) (uintptr, error) {
	hacc, hr := c.accessor.createAccessor(ordinal, columnBufferChars*2)
	if failed(hr) {
		return 0, hresultError(StageExtract, fmt.Sprintf("IAccessor::CreateAccessor(%d)", ordinal), uint32(hr))
	}
	return hacc, nil
}

func (c *rowsetCursor) getData(hrow, hacc uintptr, buf []uint16) error {
	if hr := c.rowset.getData(hrow, hacc, buf); failed(hr) {
		return hresultError(StageExtract, "IRowset::GetData", uint32(hr))
	}
	// the provider fills at most cbMaxLen bytes; keep a terminator regardless
	buf[len(buf)-1] = 0
	return nil
}

func (c *rowsetCursor) releaseAccessor(hacc uintptr) error {
	if hr := c.accessor.releaseAccessor(hacc); failed(hr) {
		return hresultError(StageRelease, "IAccessor::ReleaseAccessor", uint32(hr))
	}
	return nil
}

func (c *rowsetCursor) releaseRow(hrow uintptr) error {
	if hr := c.rowset.releaseRows(hrow); failed(hr) {
		return hresultError(StageRelease, "IRowset::ReleaseRows", uint32(hr))
	}
	return nil
}
