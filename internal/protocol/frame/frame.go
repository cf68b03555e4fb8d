package frame

import (
	"bytes"
	"errors"
	"io"

	"github.com/danmuck/slime/internal/protocol"
)

var (
	ErrEmptyRead        = errors.New("frame: empty read")
	ErrContentLength    = errors.New("frame: missing or invalid content-length")
	ErrContentLengthCap = errors.New("frame: content-length exceeds limit")
	ErrMissingBody      = errors.New("frame: missing body")
)

var (
	headerTerminator = []byte("\r\n\r\n")
	contentLengthKey = []byte("content-length")
)

// Limits constrains the single read and the declared body size.
type Limits struct {
	BufferSize int
	MaxBodyLen int
}

func DefaultLimits() Limits {
	return Limits{
		BufferSize: protocol.ReadBufferSize,
		MaxBodyLen: protocol.MaxBodyLen,
	}
}

// Request is one terminated message. Header and Body alias the read buffer.
type Request struct {
	Header        []byte
	Body          []byte
	ContentLength int
}

// ReadOnce performs exactly one Read into buf. A read that yields no bytes
// is reported as ErrEmptyRead or the underlying error; bytes that arrive
// together with an error are kept.
func ReadOnce(r io.Reader, buf []byte) (int, error) {
	n, err := r.Read(buf)
	if n > 0 {
		return n, nil
	}
	if err != nil {
		return 0, err
	}
	return 0, ErrEmptyRead
}

// Parse terminates raw into a single message. Content-Length is checked
// before the header terminator; trailing bytes past the declared length
// are ignored.
func Parse(raw []byte, limits Limits) (Request, error) {
	headerEnd := bytes.Index(raw, headerTerminator)
	head := raw
	if headerEnd >= 0 {
		head = raw[:headerEnd]
	}

	cl, err := contentLength(head)
	if err != nil {
		return Request{}, err
	}
	if cl > uint64(limits.MaxBodyLen) {
		return Request{}, ErrContentLengthCap
	}

	if headerEnd < 0 {
		return Request{}, ErrMissingBody
	}
	start := headerEnd + len(headerTerminator)
	end := start + int(cl)
	if end > len(raw) {
		return Request{}, ErrMissingBody
	}

	return Request{
		Header:        head,
		Body:          raw[start:end],
		ContentLength: int(cl),
	}, nil
}

// contentLength scans header lines after the request line. Duplicate
// headers are rejected even when their values agree.
func contentLength(head []byte) (uint64, error) {
	var (
		value uint64
		found bool
	)
	lines := bytes.Split(head, []byte("\n"))
	for i, line := range lines {
		if i == 0 {
			continue
		}
		line = bytes.TrimSuffix(line, []byte("\r"))
		colon := bytes.IndexByte(line, ':')
		if colon <= 0 {
			continue
		}
		if !bytes.EqualFold(line[:colon], contentLengthKey) {
			continue
		}
		if found {
			return 0, ErrContentLength
		}
		v, ok := parseDigits(bytes.Trim(line[colon+1:], " \t"))
		if !ok {
			return 0, ErrContentLength
		}
		value = v
		found = true
	}
	if !found {
		return 0, ErrContentLength
	}
	return value, nil
}

func parseDigits(b []byte) (uint64, bool) {
	if len(b) == 0 {
		return 0, false
	}
	var v uint64
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, false
		}
		d := uint64(c - '0')
		if v > (^uint64(0)-d)/10 {
			return 0, false
		}
		v = v*10 + d
	}
	return v, true
}
