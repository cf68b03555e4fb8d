package protocol

// Wire limits shared by the ingress stages.
const (
	// ReadBufferSize bounds the single read performed per connection.
	ReadBufferSize = 16384
	// HeaderMargin is reserved out of ReadBufferSize for request line and headers.
	HeaderMargin = 512
	// MaxBodyLen is the largest Content-Length accepted.
	MaxBodyLen = ReadBufferSize - HeaderMargin
	// MaxPayloadLen is the largest decoded payload handed to the decision engine.
	MaxPayloadLen = 65536
)
