package http

import (
	"bytes"
	"errors"
)

// HeaderTerminator ends the header region of a request.
var HeaderTerminator = []byte("\r\n\r\n")

var (
	ErrInvalidRequest = errors.New("invalid HTTP request")
)

// ParseRequest splits data at the header terminator and reads the request
// line. Header lines are skipped. A request line with missing tokens is not
// an error: the missing fields are left empty, so an empty path simply fails
// to match any route. The only failure is a missing terminator.
//
// The body is exactly the bytes after the terminator; Content-Length is not
// consulted, so a body that had not arrived yet is truncated.
func ParseRequest(data []byte, req *Request) error {
	headerEnd := bytes.Index(data, HeaderTerminator)
	if headerEnd == -1 {
		return ErrInvalidRequest
	}

	head := data[:headerEnd]
	line := head
	if lineEnd := bytes.IndexByte(head, '\n'); lineEnd != -1 {
		line = head[:lineEnd]
	}

	var tokens [3][]byte
	rest := line
	for i := range tokens {
		tokens[i], rest = nextToken(rest)
	}

	req.MethodToken = tokens[0]
	req.Method = ParseMethod(tokens[0])
	req.Path = tokens[1]
	req.RawQuery = nil
	req.Proto = tokens[2]

	if idx := bytes.IndexByte(req.Path, '?'); idx != -1 {
		req.RawQuery = req.Path[idx+1:]
		req.Path = req.Path[:idx]
	}

	req.Body = data[headerEnd+len(HeaderTerminator):]
	return nil
}

// nextToken returns the next whitespace-delimited token and the remainder.
func nextToken(b []byte) (token, rest []byte) {
	start := 0
	for start < len(b) && isSpace(b[start]) {
		start++
	}
	end := start
	for end < len(b) && !isSpace(b[end]) {
		end++
	}
	return b[start:end], b[end:]
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\v', '\f':
		return true
	}
	return false
}
