package http

import (
	"strconv"

	"google.golang.org/protobuf/types/known/structpb"
)

// Method is the request method.
type Method uint8

const (
	MethodGet Method = iota
	MethodPost
	MethodPut
	MethodDelete
	MethodHead
	MethodOptions
	MethodPatch
	MethodUnknown
)

var methodNames = [...]string{
	MethodGet:     "GET",
	MethodPost:    "POST",
	MethodPut:     "PUT",
	MethodDelete:  "DELETE",
	MethodHead:    "HEAD",
	MethodOptions: "OPTIONS",
	MethodPatch:   "PATCH",
	MethodUnknown: "UNKNOWN",
}

func (m Method) String() string {
	if int(m) < len(methodNames) {
		return methodNames[m]
	}
	return methodNames[MethodUnknown]
}

// ParseMethod maps a request-line token to a Method. Matching is exact and
// case-sensitive; anything unrecognised is MethodUnknown.
func ParseMethod(token []byte) Method {
	switch string(token) {
	case "GET":
		return MethodGet
	case "POST":
		return MethodPost
	case "PUT":
		return MethodPut
	case "DELETE":
		return MethodDelete
	case "HEAD":
		return MethodHead
	case "OPTIONS":
		return MethodOptions
	case "PATCH":
		return MethodPatch
	default:
		return MethodUnknown
	}
}

// StatusCode is the subset of HTTP status codes a handler may produce.
type StatusCode uint16

const (
	StatusOK                  StatusCode = 200
	StatusBadRequest          StatusCode = 400
	StatusUnauthorized        StatusCode = 401
	StatusForbidden           StatusCode = 403
	StatusNotFound            StatusCode = 404
	StatusMethodNotAllowed    StatusCode = 405
	StatusNotAcceptable       StatusCode = 406
	StatusInternalServerError StatusCode = 500
)

// StatusLine returns the text placed after "HTTP/1.1 " in the response.
// Only 200 and 404 carry a reason phrase.
func (c StatusCode) StatusLine() string {
	switch c {
	case StatusOK:
		return "200 OK"
	case StatusNotFound:
		return "404 Not Found"
	default:
		return strconv.Itoa(int(c)) + " Error"
	}
}

// Args is what a handler receives: the parsed method and the decoded body.
// Body is a null value when the request carried no body.
type Args struct {
	Method Method
	Body   *structpb.Value
}

// Result is what a handler returns. The zero Result is a 200 with a null body.
type Result struct {
	Data *structpb.Value
	Code StatusCode
}

// StatusCode returns the response code, treating the zero code as 200.
func (r Result) StatusCode() StatusCode {
	if r.Code == 0 {
		return StatusOK
	}
	return r.Code
}

// OK wraps v in a 200 result.
func OK(v *structpb.Value) Result {
	return Result{Data: v, Code: StatusOK}
}

// NewResult builds a result with an explicit code.
func NewResult(v *structpb.Value, code StatusCode) Result {
	return Result{Data: v, Code: code}
}

// Text builds a result whose body is the JSON string s.
func Text(s string, code StatusCode) Result {
	return Result{Data: structpb.NewStringValue(s), Code: code}
}
