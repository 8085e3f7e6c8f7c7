package http

// HTTP header names used in responses.
const (
	HeaderContentType   = "Content-Type"
	HeaderContentLength = "Content-Length"
	HeaderConnection    = "Connection"
)

// AppendResponse appends the full wire response for code and the serialized
// body to dst. Every response closes the connection.
func AppendResponse(dst []byte, code StatusCode, body []byte) []byte {
	dst = append(dst, "HTTP/1.1 "...)
	dst = append(dst, code.StatusLine()...)
	dst = append(dst, "\r\n"+HeaderContentType+": application/json\r\n"+HeaderContentLength+": "...)
	dst = appendInt(dst, len(body))
	dst = append(dst, "\r\n"+HeaderConnection+": close\r\n\r\n"...)
	dst = append(dst, body...)
	return dst
}

// appendInt appends a non-negative integer to a byte slice
func appendInt(b []byte, i int) []byte {
	if i == 0 {
		return append(b, '0')
	}

	var digits [20]byte
	n := 0
	for i > 0 {
		digits[n] = byte('0' + i%10)
		i /= 10
		n++
	}

	for n > 0 {
		n--
		b = append(b, digits[n])
	}

	return b
}
