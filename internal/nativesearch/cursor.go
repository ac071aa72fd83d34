package nativesearch

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// columnBufferChars is the size of the client buffer bound per column.
const columnBufferChars = 512

// rowCursor is the native surface of the cursor protocol (IRowset + IAccessor).
type rowCursor interface {
	// nextRow fetches one row handle. ok is false once the rowset is exhausted.
	nextRow() (hrow uintptr, ok bool, err error)
	createAccessor(ordinal int) (uintptr, error)
	getData(hrow, hacc uintptr, buf []uint16) error
	releaseAccessor(hacc uintptr) error
	releaseRow(hrow uintptr) error
}

// materializeRows copies up to maxRows rows of (name, location, attribute)
// out of c. Extract and release failures are collected into a PartialError
// returned along with the rows that were read completely.
func materializeRows(ctx context.Context, c rowCursor, maxRows int, log *zap.Logger) ([]SearchRecord, error) {
	out := make([]SearchRecord, 0, min(maxRows, 32))
	warn := &PartialError{}
	buf := make([]uint16, columnBufferChars)

	for row := 0; row < maxRows; row++ {
		if err := ctx.Err(); err != nil {
			warn.add(wrapError(StageExtract, "fetch row", err))
			break
		}
		hrow, ok, err := c.nextRow()
		if err != nil {
			// providers report the end of a rowset in several ways
			log.Debug("row fetch ended the result set", zap.Int("row", row), zap.Error(err))
			break
		}
		if !ok {
			break
		}

		var fields [3]string
		complete := true
		for col := range fields {
			v, ok := readColumn(c, hrow, col+1, buf, warn)
			if !ok {
				complete = false
				break
			}
			fields[col] = v
		}
		if complete {
			out = append(out, SearchRecord{Name: fields[0], Location: fields[1], Attribute: fields[2]})
		} else {
			log.Warn("skipping row with unreadable column", zap.Int("row", row))
		}

		if err := c.releaseRow(hrow); err != nil {
			warn.add(stageError(StageRelease, "release row", err))
		}
	}
	return out, warn.orNil()
}

// readColumn binds one accessor for ordinal, reads the column and releases
// the accessor again whether or not the read succeeded.
func readColumn(c rowCursor, hrow uintptr, ordinal int, buf []uint16, warn *PartialError) (string, bool) {
	hacc, err := c.createAccessor(ordinal)
	if err != nil {
		warn.add(stageError(StageExtract, "create accessor", err))
		return "", false
	}
	defer func() {
		if err := c.releaseAccessor(hacc); err != nil {
			warn.add(stageError(StageRelease, "release accessor", err))
		}
	}()

	clear(buf)
	if err := c.getData(hrow, hacc, buf); err != nil {
		warn.add(stageError(StageExtract, "get data", err))
		return "", false
	}
	return DecodeUTF16Buffer(buf), true
}

// stageError keeps an existing *Error as is and tags anything else.
func stageError(stage Stage, op string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return wrapError(stage, op, err)
}
