package http

// Request is the server-observed view of an inbound request. Every slice
// points into the session's read buffer and is only valid until the session
// releases it.
type Request struct {
	Method Method

	// MethodToken is the raw first token of the request line.
	MethodToken []byte
	Path        []byte
	RawQuery    []byte
	Proto       []byte

	// Body holds whatever followed the header terminator in the bytes read so far.
	Body []byte
}

// Reset clears the request for reuse.
func (r *Request) Reset() {
	r.Method = MethodUnknown
	r.MethodToken = nil
	r.Path = nil
	r.RawQuery = nil
	r.Proto = nil
	r.Body = nil
}
