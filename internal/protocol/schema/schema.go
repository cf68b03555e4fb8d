package schema

import "errors"

// ErrMismatch is the single parse failure outcome.
var ErrMismatch = errors.New("schema: body does not match request shape")

// Literal anchors of the only accepted body:
//
//	{"domain":"<D>","magnitude":<M>,"payload":"<P>"}
var (
	anchorOpen      = []byte(`{"domain":"`)
	anchorMagnitude = []byte(`","magnitude":`)
	anchorPayload   = []byte(`,"payload":"`)
	anchorClose     = []byte(`"}`)
)

// Parsed is a full match. Domain and Payload alias the body.
type Parsed struct {
	Domain    []byte
	Magnitude uint64
	Payload   []byte
}

// Parse scans body forward through the fixed anchors. Any deviation,
// including whitespace, reordering, extra fields or trailing bytes, is
// ErrMismatch.
func Parse(body []byte) (Parsed, error) {
	c := cursor{buf: body}

	if !c.expect(anchorOpen) {
		return Parsed{}, ErrMismatch
	}
	domain, ok := c.until('"')
	if !ok || !ValidDomain(domain) {
		return Parsed{}, ErrMismatch
	}

	if !c.expect(anchorMagnitude) {
		return Parsed{}, ErrMismatch
	}
	digits, ok := c.until(',')
	if !ok {
		return Parsed{}, ErrMismatch
	}
	magnitude, ok := parseUint64(digits)
	if !ok {
		return Parsed{}, ErrMismatch
	}

	if !c.expect(anchorPayload) {
		return Parsed{}, ErrMismatch
	}
	payload, ok := c.until('"')
	if !ok {
		return Parsed{}, ErrMismatch
	}

	if !c.expect(anchorClose) || !c.done() {
		return Parsed{}, ErrMismatch
	}

	return Parsed{Domain: domain, Magnitude: magnitude, Payload: payload}, nil
}

type cursor struct {
	buf []byte
	pos int
}

func (c *cursor) expect(lit []byte) bool {
	if len(c.buf)-c.pos < len(lit) {
		return false
	}
	for i := range lit {
		if c.buf[c.pos+i] != lit[i] {
			return false
		}
	}
	c.pos += len(lit)
	return true
}

// until returns the bytes before the next stop byte and leaves the cursor on it.
func (c *cursor) until(stop byte) ([]byte, bool) {
	for i := c.pos; i < len(c.buf); i++ {
		if c.buf[i] == stop {
			tok := c.buf[c.pos:i]
			c.pos = i
			return tok, true
		}
	}
	return nil, false
}

func (c *cursor) done() bool {
	return c.pos == len(c.buf)
}

// ValidDomain reports whether b is a non-empty ASCII token of letters,
// digits, underscore and hyphen.
func ValidDomain(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	for _, ch := range b {
		isLower := ch >= 'a' && ch <= 'z'
		isUpper := ch >= 'A' && ch <= 'Z'
		isDigit := ch >= '0' && ch <= '9'
		if !(isLower || isUpper || isDigit || ch == '_' || ch == '-') {
			return false
		}
	}
	return true
}

func parseUint64(b []byte) (uint64, bool) {
	if len(b) == 0 {
		return 0, false
	}
	var v uint64
	for _, ch := range b {
		if ch < '0' || ch > '9' {
			return 0, false
		}
		d := uint64(ch - '0')
		if v > (^uint64(0)-d)/10 {
			return 0, false
		}
		v = v*10 + d
	}
	return v, true
}
