/*
Package jsonserver is a minimal single-goroutine HTTP server that speaks
JSON bodies over HTTP/1.1 and closes every connection after one response.

One reactor goroutine multiplexes all connections with epoll (Linux) or
kqueue (macOS). Each connection is a Session stepping through
Start, Reading, Parsing, Dispatching, Writing and Closing; sessions whose
request head is complete wait in a FIFO run queue, so route handlers run
one at a time and never concurrently.

Quick Start

	package main

	import (
	    "context"
	    "os"

	    "github.com/searchktools/json-server/app"
	    "github.com/searchktools/json-server/config"
	    "github.com/searchktools/json-server/core/http"
	    "github.com/searchktools/json-server/core/logging"
	    "github.com/searchktools/json-server/core/router"
	)

	func main() {
	    cfg := config.Default()
	    application := app.New(cfg, logging.New(cfg.Logging, os.Stderr))

	    application.Routes().Register("/api/echo", router.Func(func(args http.Args) http.Result {
	        return http.OK(args.Body)
	    }))

	    application.Run(context.Background())
	}

Routes match the request path exactly; the query string is ignored and
the method is passed to the handler rather than used for matching.
Unknown paths answer 404, bodies that are not valid JSON answer 400 without
reaching the handler, and handler errors or panics answer 500 with the
error text.

Modules

  - app: wiring and lifecycle (signals, errgroup supervision)
  - config: defaults, L2Q_* environment, YAML file and flags
  - core: the reactor engine and per-connection sessions
  - core/dispatchmap: hash map with allocation-free lookup by byte view
  - core/router: exact-path route table with a failure boundary
  - core/http: request parsing, method and status model, response encoding
  - core/codec: JSON codec for structured values
  - core/poller: epoll/kqueue and non-blocking socket helpers
  - core/pools: byte buffer and session pools
  - core/observability: Prometheus metrics
  - core/admin: /ping and /metrics over HTTP/1.1 and h2c
  - core/compress: gzip helpers
  - core/logging: slog construction and the CRITICAL level
*/
package jsonserver
