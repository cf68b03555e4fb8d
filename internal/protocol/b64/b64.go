// Package b64 is a strict RFC 4648 standard-alphabet base64 decoder.
//
// encoding/base64 skips embedded CR/LF and tolerates them anywhere in the
// input; this decoder accepts only the canonical padded form.
package b64

import "errors"

var (
	ErrLength         = errors.New("b64: length not a multiple of 4")
	ErrPadding        = errors.New("b64: invalid padding")
	ErrAlphabet       = errors.New("b64: invalid character")
	ErrLengthMismatch = errors.New("b64: decoded length mismatch")
	ErrTooLarge       = errors.New("b64: decoded length exceeds limit")
)

const (
	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"
	invalid  = 0xFF
	pad      = '='
)

var decodeMap = func() [256]byte {
	var m [256]byte
	for i := range m {
		m[i] = invalid
	}
	for i := 0; i < len(alphabet); i++ {
		m[alphabet[i]] = byte(i)
	}
	return m
}()

// DecodedLen is the output length implied by an encoded length and pad count.
func DecodedLen(n, padding int) int {
	return n/4*3 - padding
}

// Decode decodes src, refusing any output longer than limit bytes. The size
// check happens before any output is allocated, so a rejected input costs
// no memory beyond src.
func Decode(src []byte, limit int) ([]byte, error) {
	if len(src)%4 != 0 {
		return nil, ErrLength
	}
	if len(src) == 0 {
		return []byte{}, nil
	}

	padding := 0
	for i := len(src) - 1; i >= 0 && src[i] == pad; i-- {
		padding++
	}
	if padding > 2 {
		return nil, ErrPadding
	}

	want := DecodedLen(len(src), padding)
	if want > limit {
		return nil, ErrTooLarge
	}

	out := make([]byte, 0, want)
	var (
		acc  uint32
		bits uint
	)
	for _, c := range src[:len(src)-padding] {
		if c == pad {
			return nil, ErrPadding
		}
		v := decodeMap[c]
		if v == invalid {
			return nil, ErrAlphabet
		}
		acc = acc<<6 | uint32(v)
		bits += 6
		if bits >= 8 {
			bits -= 8
			out = append(out, byte(acc>>bits))
		}
	}

	if len(out) != want {
		return nil, ErrLengthMismatch
	}
	return out, nil
}
