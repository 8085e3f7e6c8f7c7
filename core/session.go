package core

import (
	"bytes"
	"log/slog"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/searchktools/json-server/core/http"
	"github.com/searchktools/json-server/core/observability"
	"github.com/searchktools/json-server/core/poller"
)

// sessionState is the lifecycle position of a connection
type sessionState uint8

const (
	stateStart sessionState = iota
	stateReading
	stateParsing
	stateDispatching
	stateWriting
	stateClosing
)

func (s sessionState) String() string {
	switch s {
	case stateStart:
		return "start"
	case stateReading:
		return "reading"
	case stateParsing:
		return "parsing"
	case stateDispatching:
		return "dispatching"
	case stateWriting:
		return "writing"
	case stateClosing:
		return "closing"
	}
	return "unknown"
}

// Session is one accepted connection. It serves exactly one request and is
// owned by the engine's goroutine for its whole life.
type Session struct {
	id     string
	fd     int
	remote string
	state  sessionState
	logger *slog.Logger

	buf     []byte
	n       int
	scanned int
	request http.Request

	out          []byte
	written      int
	waitingWrite bool
}

// Reset implements pools.Resettable
func (s *Session) Reset() {
	s.id = ""
	s.fd = -1
	s.remote = ""
	s.state = stateStart
	s.logger = nil
	s.buf = nil
	s.n = 0
	s.scanned = 0
	s.request.Reset()
	s.out = nil
	s.written = 0
	s.waitingWrite = false
}

// headComplete reports whether the header terminator has arrived. Bytes
// already searched are not searched again.
func (s *Session) headComplete() bool {
	from := s.scanned - len(http.HeaderTerminator) + 1
	if from < 0 {
		from = 0
	}
	s.scanned = s.n
	return bytes.Contains(s.buf[from:s.n], http.HeaderTerminator)
}

func (e *Engine) startSession(fd int, remote string) {
	s := e.sessionPool.Get()
	s.fd = fd
	s.id = uuid.NewString()
	s.remote = remote
	s.state = stateStart
	s.logger = e.logger.With("session_id", s.id, "remote", remote)

	if err := e.poller.AddRead(fd); err != nil {
		s.logger.Error("registering connection failed", "error", err)
		poller.Close(fd)
		e.sessionPool.Put(s)
		return
	}

	s.buf = e.bytePool.Get(e.readBufferSize)
	s.state = stateReading
	e.sessions[fd] = s
	e.monitor.SessionOpened()

	s.logger.Debug("new connection")
}

// onReadable reads until the socket would block, the peer closes or the
// request head is complete.
func (e *Engine) onReadable(s *Session) {
	for {
		if s.n == len(s.buf) {
			s.buf = e.bytePool.Grow(s.buf)
		}

		n, err := poller.Read(s.fd, s.buf[s.n:])
		if err != nil {
			if poller.IsWouldBlock(err) {
				return
			}
			s.logger.Error("read failed", "error", err)
			e.monitor.TransportError(observability.OpRead)
			e.closeSession(s)
			return
		}

		if n == 0 {
			s.logger.Debug("connection closed before request completed", "bytes", s.n)
			e.closeSession(s)
			return
		}

		s.n += n
		if s.headComplete() {
			s.state = stateParsing
			e.ready.Add(s)
			return
		}
	}
}

// process parses the request, dispatches it and starts writing the response.
func (e *Engine) process(s *Session) {
	result := e.dispatch(s)

	body, err := e.codec.Encode(result.Data)
	if err != nil {
		s.logger.Error("encoding response failed", "error", err)
		result = http.Text(err.Error(), http.StatusInternalServerError)
		body, _ = e.codec.Encode(result.Data)
	}

	s.out = http.AppendResponse(e.bytePool.Get(len(body) + responseHeaderReserve)[:0], result.StatusCode(), body)
	s.state = stateWriting
	e.onWritable(s)
}

func (e *Engine) dispatch(s *Session) http.Result {
	if err := http.ParseRequest(s.buf[:s.n], &s.request); err != nil {
		// Not reached: a session only leaves Reading once the terminator is in buf.
		return http.Text("invalid request", http.StatusBadRequest)
	}

	body := structpb.NewNullValue()
	if len(s.request.Body) > 0 {
		v, err := e.codec.Decode(s.request.Body)
		if err != nil {
			s.logger.Debug("rejecting request body", "path", string(s.request.Path), "error", err)
			return http.Text("invalid json format", http.StatusBadRequest)
		}
		body = v
	}

	s.state = stateDispatching
	return e.routes.DispatchBytes(s.request.Path, http.Args{Method: s.request.Method, Body: body})
}

// onWritable writes as much of the response as the socket accepts. The
// session switches to write interest the first time a write would block and
// closes once the whole response is out.
func (e *Engine) onWritable(s *Session) {
	for s.written < len(s.out) {
		n, err := poller.Write(s.fd, s.out[s.written:])
		if err != nil {
			if poller.IsWouldBlock(err) {
				if !s.waitingWrite {
					if err := e.poller.ModWrite(s.fd); err != nil {
						s.logger.Error("switching to write interest failed", "error", err)
						e.closeSession(s)
						return
					}
					s.waitingWrite = true
				}
				return
			}
			s.logger.Error("write failed", "error", err)
			e.monitor.TransportError(observability.OpWrite)
			e.closeSession(s)
			return
		}
		s.written += n
	}

	s.logger.Debug("response sent", "bytes", s.written)
	e.closeSession(s)
}

// closeSession releases every resource the session holds. The session must
// not be used afterwards.
func (e *Engine) closeSession(s *Session) {
	s.state = stateClosing

	if err := e.poller.Remove(s.fd); err != nil {
		s.logger.Debug("removing from poller failed", "error", err)
	}
	if err := poller.Shutdown(s.fd); err != nil {
		s.logger.Debug("shutdown failed", "error", err)
	}
	if err := poller.Close(s.fd); err != nil {
		s.logger.Debug("close failed", "error", err)
	}

	delete(e.sessions, s.fd)
	e.bytePool.Put(s.buf)
	if s.out != nil {
		e.bytePool.Put(s.out)
	}
	e.monitor.SessionClosed()
	e.sessionPool.Put(s)
}
