// Package response holds the fixed wire responses written by ingress.
// Every response is a complete HTTP/1.1 message built once at init.
package response

import (
	"strconv"
)

var (
	InvalidContentLength = fixed(400, "Bad Request", `{"error":"invalid_request","message":"missing Content-Length"}`)
	MissingBody          = fixed(400, "Bad Request", `{"error":"invalid_request","message":"missing body"}`)
	InvalidSchema        = fixed(400, "Bad Request", `{"error":"invalid_request","message":"invalid schema"}`)
	PayloadTooLarge      = fixed(413, "Payload Too Large", `{"error":"payload_too_large","message":"exceeds 65536 bytes"}`)
	Authorized           = fixed(200, "OK", `{"status":"AUTHORIZED"}`)
	Impossible           = fixed(200, "OK", `{"status":"IMPOSSIBLE"}`)
)

// Response is an immutable status line, header block and body.
type Response struct {
	Status int
	Body   string
	wire   []byte
}

// Bytes returns the full message. Callers must not modify it.
func (r Response) Bytes() []byte {
	return r.wire
}

func fixed(status int, reason, body string) Response {
	wire := "HTTP/1.1 " + strconv.Itoa(status) + " " + reason + "\r\n" +
		"Content-Type: application/json\r\n" +
		"Content-Length: " + strconv.Itoa(len(body)) + "\r\n" +
		"Connection: close\r\n" +
		"\r\n" + body
	return Response{Status: status, Body: body, wire: []byte(wire)}
}
