package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/eapache/queue"

	"github.com/searchktools/json-server/core/codec"
	"github.com/searchktools/json-server/core/logging"
	"github.com/searchktools/json-server/core/observability"
	"github.com/searchktools/json-server/core/poller"
	"github.com/searchktools/json-server/core/pools"
	"github.com/searchktools/json-server/core/router"
)

// Config configures an Engine. Zero fields take the package defaults.
type Config struct {
	Port           int
	ReadBufferSize int
	PollTimeout    time.Duration

	Logger  *slog.Logger
	Monitor *observability.Monitor
	Codec   codec.Codec
}

// Engine is a single-goroutine reactor serving one request per connection
// over epoll/kqueue. Every session step, including handler invocation, runs
// on the goroutine that called Serve, so handlers never run concurrently.
type Engine struct {
	routes  *router.Table
	codec   codec.Codec
	logger  *slog.Logger
	monitor *observability.Monitor

	port           int
	readBufferSize int
	pollTimeout    time.Duration

	poller   poller.Poller
	lfd      int
	sessions map[int]*Session

	// ready holds sessions whose request head is complete, in arrival order.
	ready *queue.Queue

	bytePool    *pools.BytePool
	sessionPool *pools.ObjectPool[Session, *Session]
}

// NewEngine creates an engine dispatching to routes.
func NewEngine(cfg Config, routes *router.Table) *Engine {
	e := &Engine{
		routes:         routes,
		codec:          cfg.Codec,
		logger:         cfg.Logger,
		monitor:        cfg.Monitor,
		port:           cfg.Port,
		readBufferSize: cfg.ReadBufferSize,
		pollTimeout:    cfg.PollTimeout,
		lfd:            -1,
		sessions:       make(map[int]*Session, 1024),
		ready:          queue.New(),
		bytePool:       pools.NewBytePool(),
		sessionPool:    pools.NewObjectPool[Session](),
	}

	if e.codec == nil {
		e.codec = codec.NewJSON()
	}
	if e.logger == nil {
		e.logger = logging.Nop()
	}
	if e.readBufferSize <= 0 {
		e.readBufferSize = DefaultReadBufferSize
	}
	if e.pollTimeout <= 0 {
		e.pollTimeout = DefaultPollTimeout
	}

	return e
}

// Listen binds the listening socket and registers it with a new poller.
// Port 0 binds an ephemeral port; Port reports the one chosen.
func (e *Engine) Listen() error {
	if e.poller != nil {
		return ErrAlreadyListening
	}

	lfd, err := poller.Listen(e.port)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrListen, err)
	}

	port, err := poller.LocalPort(lfd)
	if err != nil {
		poller.Close(lfd)
		return fmt.Errorf("%w: %w", ErrListen, err)
	}

	p, err := poller.NewPoller()
	if err != nil {
		poller.Close(lfd)
		return fmt.Errorf("%w: %w", ErrListen, err)
	}

	if err := p.AddRead(lfd); err != nil {
		p.Close()
		poller.Close(lfd)
		return fmt.Errorf("%w: %w", ErrListen, err)
	}

	e.lfd = lfd
	e.port = port
	e.poller = p

	e.logger.Info("server started listening on port", "port", port)
	return nil
}

// Port returns the bound port once Listen has succeeded, or the configured
// port before that.
func (e *Engine) Port() int {
	return e.port
}

// Addr returns the loopback address of the listener, for clients and tests.
func (e *Engine) Addr() string {
	return fmt.Sprintf("127.0.0.1:%d", e.port)
}

// Run listens and serves until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.Listen(); err != nil {
		return err
	}
	return e.Serve(ctx)
}

// Serve runs the reactor loop until ctx is done or the poller fails. All
// open sessions are closed before it returns.
func (e *Engine) Serve(ctx context.Context) error {
	if e.poller == nil {
		return ErrNotListening
	}
	defer e.shutdown()

	timeout := int(e.pollTimeout / time.Millisecond)

	for {
		if ctx.Err() != nil {
			e.logger.Info("server stopping", "reason", context.Cause(ctx))
			return nil
		}

		events, err := e.poller.Wait(timeout)
		if err != nil {
			return fmt.Errorf("poller wait: %w", err)
		}

		for _, ev := range events {
			if ev.Fd == e.lfd {
				e.acceptConnections()
				continue
			}
			e.handleEvent(ev)
		}

		e.drainReady()
	}
}

// acceptConnections accepts every pending connection
func (e *Engine) acceptConnections() {
	for {
		nfd, remote, err := poller.Accept(e.lfd)
		if err != nil {
			if poller.IsWouldBlock(err) {
				return
			}
			if poller.IsTransientAccept(err) {
				continue
			}
			e.logger.Error("accept failed", "error", err)
			e.monitor.TransportError(observability.OpAccept)
			return
		}

		e.startSession(nfd, remote)
	}
}

// handleEvent advances the session owning ev.Fd. Events for fds that were
// closed earlier in the same batch are ignored.
func (e *Engine) handleEvent(ev poller.Event) {
	s, ok := e.sessions[ev.Fd]
	if !ok {
		return
	}

	switch s.state {
	case stateReading:
		if ev.Hangup && !ev.Readable {
			s.logger.Debug("peer hung up before request completed", "bytes", s.n)
			e.closeSession(s)
			return
		}
		e.step(s, e.onReadable)
	case stateWriting:
		if ev.Hangup && !ev.Writable {
			s.logger.Error("peer hung up before response was sent", "written", s.written)
			e.monitor.TransportError(observability.OpWrite)
			e.closeSession(s)
			return
		}
		e.step(s, e.onWritable)
	}
}

// drainReady processes queued sessions in FIFO order.
func (e *Engine) drainReady() {
	for e.ready.Length() > 0 {
		s := e.ready.Remove().(*Session)
		if s.state != stateParsing {
			continue
		}
		e.step(s, e.process)
	}
}

// step runs fn for s, closing the session if fn panics.
func (e *Engine) step(s *Session, fn func(*Session)) {
	defer func() {
		if p := recover(); p != nil {
			// A released session has fd -1 and may already serve another connection.
			if s.fd < 0 || s.state == stateClosing {
				e.logger.Error("session step panicked after close", "panic", p)
				return
			}
			s.logger.Error("session step panicked", "state", s.state.String(), "panic", p)
			e.closeSession(s)
		}
	}()
	fn(s)
}

// Close releases the listener and poller of an engine that is not serving.
// Serve releases them itself when it returns.
func (e *Engine) Close() error {
	if e.poller == nil {
		return nil
	}
	return e.closeListener()
}

func (e *Engine) closeListener() error {
	err := errors.Join(poller.Close(e.lfd), e.poller.Close())
	e.lfd = -1
	e.poller = nil
	if err != nil {
		return fmt.Errorf("closing listener: %w", err)
	}
	return nil
}

func (e *Engine) shutdown() {
	for _, s := range e.sessions {
		e.closeSession(s)
	}
	for e.ready.Length() > 0 {
		e.ready.Remove()
	}

	if err := e.closeListener(); err != nil {
		e.logger.Warn("shutdown incomplete", "error", err)
	}

	e.logger.Info("server stopped", "pools", e.PoolStats())
}
