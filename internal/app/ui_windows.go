//go:build windows

package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lxn/walk"
	"github.com/lxn/walk/declarative"
	"go.uber.org/zap"

	"native_find/internal/logger"
	"native_find/internal/nativesearch"
)

const debounceDelay = 400 * time.Millisecond

// RunUI shows the search window and blocks until it is closed.
func RunUI(ctx context.Context, env Env) error {
	log := logger.FromContext(ctx)

	var (
		mw          *walk.MainWindow
		queryEdit   *walk.LineEdit
		status      *walk.Label
		tableView   *walk.TableView
		previewEdit *walk.TextEdit

		mu        sync.Mutex
		debounceT *time.Timer
		gen       uint64
		cancelRun context.CancelFunc

		model = NewResultsModel()
	)

	setStatus := func(msg string) {
		if status != nil {
			status.SetText(msg)
		}
	}

	// cancelPending stops the debounce timer and any running search and
	// returns the generation for the next one.
	cancelPending := func() uint64 {
		mu.Lock()
		defer mu.Unlock()
		if debounceT != nil {
			debounceT.Stop()
			debounceT = nil
		}
		if cancelRun != nil {
			cancelRun()
			cancelRun = nil
		}
		gen++
		return gen
	}

	isCurrent := func(g uint64) bool {
		mu.Lock()
		defer mu.Unlock()
		return g == gen
	}

	startSearchNow := func(q string) {
		q = strings.TrimSpace(q)
		myGen := cancelPending()
		model.Reset()
		previewEdit.SetText("")
		if q == "" {
			setStatus("Ready")
			return
		}

		var (
			runCtx context.Context
			cancel context.CancelFunc
		)
		if env.Timeout > 0 {
			runCtx, cancel = context.WithTimeout(ctx, env.Timeout)
		} else {
			runCtx, cancel = context.WithCancel(ctx)
		}
		mu.Lock()
		cancelRun = cancel
		mu.Unlock()

		setStatus("Searching...")
		start := time.Now()
		go func() {
			defer cancel()
			recs, err := env.Searcher.Search(runCtx, q)
			took := time.Since(start).Round(time.Millisecond)
			mw.Synchronize(func() {
				if !isCurrent(myGen) {
					return
				}
				switch {
				case err == nil:
					model.SetRows(recs)
					setStatus(fmt.Sprintf("Done. Matches: %d (%s)", len(recs), took))
				case nativesearch.IsPartial(err):
					model.SetRows(recs)
					setStatus(fmt.Sprintf("Done. Matches: %d, %d unreadable (%s)", len(recs), len(partialWarnings(err)), took))
				case errors.Is(err, context.Canceled):
				case errors.Is(err, context.DeadlineExceeded):
					setStatus("Search timed out")
				default:
					log.Warn("search failed", zap.String("query", q), zap.Error(err))
					setStatus("Search failed: " + err.Error())
				}
			})
		}()
	}

	scheduleSearch := func() {
		q := queryEdit.Text()
		if strings.TrimSpace(q) != "" && !queryIsSearchable(q) {
			cancelPending()
			setStatus("Type at least 2 characters to search")
			return
		}
		mu.Lock()
		if debounceT != nil {
			debounceT.Stop()
		}
		debounceT = time.AfterFunc(debounceDelay, func() {
			mw.Synchronize(func() { startSearchNow(queryEdit.Text()) })
		})
		mu.Unlock()
	}

	revealSelected := func() {
		row, ok := model.Row(tableView.CurrentIndex())
		if !ok || env.Reveal == nil {
			return
		}
		if err := env.Reveal(row.Path); err != nil {
			setStatus("Reveal failed: " + err.Error())
		}
	}

	showPreview := func() {
		previewEdit.SetText("")
		row, ok := model.Row(tableView.CurrentIndex())
		if !ok || env.Previewer == nil {
			return
		}
		myGen := func() uint64 { mu.Lock(); defer mu.Unlock(); return gen }()
		idx := tableView.CurrentIndex()
		term := strings.Trim(strings.TrimSpace(queryEdit.Text()), "*?")
		go func() {
			snip := previewOf(ctx, env.Previewer, row.Record, term)
			if snip == "" {
				snip = previewOf(ctx, env.Previewer, row.Record, "")
			}
			mw.Synchronize(func() {
				if isCurrent(myGen) && tableView.CurrentIndex() == idx {
					previewEdit.SetText(snip)
				}
			})
		}()
	}

	exportCSV := func() {
		if model.RowCount() == 0 {
			walk.MsgBox(mw, "Export", "No results to export", walk.MsgBoxIconInformation)
			return
		}
		dlg := new(walk.FileDialog)
		dlg.Filter = "CSV Files (*.csv)|*.csv"
		dlg.Title = "Export results"
		if ok, _ := dlg.ShowSave(mw); !ok {
			return
		}
		if err := writeCSV(dlg.FilePath, model.rows); err != nil {
			walk.MsgBox(mw, "Export", err.Error(), walk.MsgBoxIconError)
			return
		}
		setStatus("Exported " + strconv.Itoa(model.RowCount()) + " rows")
	}

	mwDecl := declarative.MainWindow{
		AssignTo: &mw,
		Title:    "nfind",
		MinSize:  declarative.Size{Width: 820, Height: 520},
		Layout:   declarative.VBox{},
		Children: []declarative.Widget{
			declarative.Composite{
				Layout: declarative.Grid{Columns: 4},
				Children: []declarative.Widget{
					declarative.Label{Text: "File name"},
					declarative.LineEdit{
						AssignTo: &queryEdit,
						OnKeyDown: func(key walk.Key) {
							if key == walk.KeyReturn {
								startSearchNow(queryEdit.Text())
							}
						},
					},
					declarative.PushButton{Text: "Search", OnClicked: func() { startSearchNow(queryEdit.Text()) }},
					declarative.PushButton{Text: "Export...", OnClicked: exportCSV},
				},
			},
			declarative.Label{AssignTo: &status, Text: "Ready"},
			declarative.TableView{
				AssignTo:       &tableView,
				Model:          model,
				ColumnsSizable: true,
				Columns: []declarative.TableViewColumn{
					{Title: "#", Width: 35},
					{Title: "Name", Width: 200},
					{Title: "Location", Width: 380},
					{Title: "Attribute", Width: 120, Alignment: declarative.AlignFar},
				},
				OnItemActivated:       revealSelected,
				OnCurrentIndexChanged: showPreview,
			},
			declarative.TextEdit{AssignTo: &previewEdit, ReadOnly: true, VScroll: true, MaxSize: declarative.Size{Height: 90}},
			declarative.Label{Text: "Searches the system file index. * and ? are wildcards. Double-click a result to show it in Explorer."},
		},
	}

	if err := mwDecl.Create(); err != nil {
		return err
	}

	mw.Closing().Attach(func(canceled *bool, reason walk.CloseReason) {
		cancelPending()
	})
	queryEdit.TextChanged().Attach(scheduleSearch)

	_ = mw.Run()
	return nil
}

func partialWarnings(err error) []error {
	var p *nativesearch.PartialError
	if errors.As(err, &p) {
		return p.Warnings()
	}
	return nil
}

func writeCSV(path string, rows []ResultRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteString("\xEF\xBB\xBF"); err != nil { // BOM
		return err
	}
	w := csv.NewWriter(f)
	_ = w.Write([]string{"#", "Name", "Path", "Attribute"})
	for i, r := range rows {
		_ = w.Write([]string{strconv.Itoa(i + 1), r.Record.Name, r.Path, r.Record.Attribute})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
