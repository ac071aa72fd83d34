//go:build windows

package app

import (
	"github.com/lxn/walk"

	"native_find/internal/nativesearch"
)

type ResultRow struct {
	Record    nativesearch.SearchRecord
	Path      string
	Attribute string
}

func newResultRow(rec nativesearch.SearchRecord) ResultRow {
	return ResultRow{Record: rec, Path: rec.Path(), Attribute: DisplayAttribute(rec.Attribute)}
}

type ResultsModel struct {
	walk.TableModelBase
	rows []ResultRow
}

func NewResultsModel() *ResultsModel {
	return &ResultsModel{rows: make([]ResultRow, 0, nativesearch.MaxResultsCeiling)}
}

func (m *ResultsModel) RowCount() int {
	return len(m.rows)
}

func (m *ResultsModel) Value(row, col int) interface{} {
	if row < 0 || row >= len(m.rows) {
		return ""
	}
	r := m.rows[row]
	switch col {
	case 0:
		return row + 1
	case 1:
		return r.Record.Name
	case 2:
		return r.Path
	case 3:
		return r.Attribute
	default:
		return ""
	}
}

func (m *ResultsModel) Reset() {
	m.rows = nil
	m.PublishRowsReset()
}

// SetRows replaces the table contents with one search's results.
func (m *ResultsModel) SetRows(recs []nativesearch.SearchRecord) {
	rows := make([]ResultRow, len(recs))
	for i, rec := range recs {
		rows[i] = newResultRow(rec)
	}
	m.rows = rows
	m.PublishRowsReset()
}

func (m *ResultsModel) Row(row int) (ResultRow, bool) {
	if row < 0 || row >= len(m.rows) {
		return ResultRow{}, false
	}
	return m.rows[row], true
}
