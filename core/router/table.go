package router

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/searchktools/json-server/core/dispatchmap"
	"github.com/searchktools/json-server/core/http"
	"github.com/searchktools/json-server/core/observability"
)

// Handler is the logic registered for a path. A returned error is reported
// to the client as a 500 carrying the error text.
type Handler func(args http.Args) (http.Result, error)

// Func adapts a handler that cannot fail.
func Func(fn func(args http.Args) http.Result) Handler {
	return func(args http.Args) (http.Result, error) {
		return fn(args), nil
	}
}

// Recorder receives one call per dispatch.
type Recorder interface {
	RecordRequest(route string, code int, duration time.Duration, isError bool)
}

type route struct {
	path    string
	handler Handler
}

// Table maps exact paths to handlers. Registration happens before serving
// starts; afterwards the table is only read, so it needs no locking.
type Table struct {
	routes   *dispatchmap.Map[route]
	logger   *slog.Logger
	recorder Recorder
}

// NewTable creates an empty route table.
func NewTable(logger *slog.Logger) *Table {
	return &Table{
		routes: dispatchmap.New[route](16),
		logger: logger,
	}
}

// SetRecorder installs a metrics recorder. Call before serving.
func (t *Table) SetRecorder(r Recorder) {
	t.recorder = r
}

// Register binds handler to path. It returns false and leaves the table
// unchanged if path is already registered.
func (t *Table) Register(path string, handler Handler) bool {
	return t.routes.InsertIfAbsent(path, route{path: path, handler: handler})
}

// Len returns the number of registered paths.
func (t *Table) Len() int {
	return t.routes.Len()
}

// Dispatch runs the handler registered for path.
func (t *Table) Dispatch(path string, args http.Args) http.Result {
	r, ok := t.routes.Find(path)
	if !ok {
		return t.notFound(path)
	}
	return t.invoke(r, args)
}

// DispatchBytes is Dispatch for a path view borrowed from a read buffer.
func (t *Table) DispatchBytes(path []byte, args http.Args) http.Result {
	r, ok := t.routes.FindBytes(path)
	if !ok {
		return t.notFound(string(path))
	}
	return t.invoke(r, args)
}

func (t *Table) notFound(path string) http.Result {
	t.logger.Warn("path not found", "path", path)
	t.record(observability.UnmatchedRoute, http.StatusNotFound, 0, false)
	return http.Text("resource not found", http.StatusNotFound)
}

// invoke calls the handler inside a failure boundary: errors and panics
// become 500 results and never reach the caller.
func (t *Table) invoke(r *route, args http.Args) (result http.Result) {
	start := time.Now()

	defer func() {
		if p := recover(); p != nil {
			desc := panicDescription(p)
			t.logger.Error("logic error", "path", r.path, "error", desc, "panic", true)
			result = http.Text(desc, http.StatusInternalServerError)
			t.record(r.path, http.StatusInternalServerError, time.Since(start), true)
		}
	}()

	t.logger.Debug("processing logic for path", "path", r.path)

	result, err := r.handler(args)
	if err != nil {
		t.logger.Error("logic error", "path", r.path, "error", err)
		result = http.Text(err.Error(), http.StatusInternalServerError)
		t.record(r.path, http.StatusInternalServerError, time.Since(start), true)
		return result
	}

	t.record(r.path, result.StatusCode(), time.Since(start), false)
	return result
}

func (t *Table) record(path string, code http.StatusCode, d time.Duration, isError bool) {
	if t.recorder != nil {
		t.recorder.RecordRequest(path, int(code), d, isError)
	}
}

func panicDescription(p any) string {
	if err, ok := p.(error); ok {
		return err.Error()
	}
	return fmt.Sprint(p)
}
