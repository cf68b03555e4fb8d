package abi

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
)

// EffectLen is the encoded size of an AuthorizedEffect.
const EffectLen = 32

const (
	FlagImpossible uint8 = 0
	FlagAuthorized uint8 = 1
)

var ErrShortEffect = errors.New("abi: short effect record")

// HashDomain is the 64-bit FNV-1a hash of a domain token.
func HashDomain(domain []byte) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(domain)
	return h.Sum64()
}

// DomainID masks HashDomain to its low 32 bits. Distinct domains may
// collide; nothing here guarantees uniqueness.
func DomainID(domain []byte) uint32 {
	return uint32(HashDomain(domain) & 0xFFFF_FFFF)
}

// ActionRequest is the normalized value passed to a Resolver. Payload is a
// read-only view of the decoded bytes; resolvers must not retain it.
type ActionRequest struct {
	DomainID  uint64
	Magnitude uint64
	Payload   []byte
}

// NewActionRequest builds the request exactly as the boundary expects it,
// without re-validating parts the parser and decoder already checked.
func NewActionRequest(domain []byte, magnitude uint64, payload []byte) ActionRequest {
	return ActionRequest{
		DomainID:  uint64(DomainID(domain)),
		Magnitude: magnitude,
		Payload:   payload,
	}
}

// Token is an opaque 128-bit actuation token minted by the engine.
type Token struct {
	Lo uint64
	Hi uint64
}

func (t Token) String() string {
	return fmt.Sprintf("%016x%016x", t.Hi, t.Lo)
}

// AuthorizedEffect is the instruction forwarded to the actuator.
type AuthorizedEffect struct {
	DomainID  uint64
	Magnitude uint64
	Token     Token
}

// Encode lays the effect out little-endian: domain_id, magnitude, token.
func (e AuthorizedEffect) Encode() [EffectLen]byte {
	var b [EffectLen]byte
	binary.LittleEndian.PutUint64(b[0:8], e.DomainID)
	binary.LittleEndian.PutUint64(b[8:16], e.Magnitude)
	binary.LittleEndian.PutUint64(b[16:24], e.Token.Lo)
	binary.LittleEndian.PutUint64(b[24:32], e.Token.Hi)
	return b
}

func DecodeEffect(b [EffectLen]byte) AuthorizedEffect {
	return AuthorizedEffect{
		DomainID:  binary.LittleEndian.Uint64(b[0:8]),
		Magnitude: binary.LittleEndian.Uint64(b[8:16]),
		Token: Token{
			Lo: binary.LittleEndian.Uint64(b[16:24]),
			Hi: binary.LittleEndian.Uint64(b[24:32]),
		},
	}
}

// ReadEffect reads one fixed-size record. A clean end of stream is io.EOF;
// a partial record is ErrShortEffect.
func ReadEffect(r io.Reader) (AuthorizedEffect, error) {
	var b [EffectLen]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return AuthorizedEffect{}, ErrShortEffect
		}
		return AuthorizedEffect{}, err
	}
	return DecodeEffect(b), nil
}

// Verdict is the engine's answer. Payload is meaningful only when Flag is
// FlagAuthorized.
type Verdict struct {
	Flag    uint8
	_       [7]byte
	Payload [EffectLen]byte
}

func Authorize(e AuthorizedEffect) Verdict {
	return Verdict{Flag: FlagAuthorized, Payload: e.Encode()}
}

func Impossible() Verdict {
	return Verdict{Flag: FlagImpossible}
}

func (v Verdict) Authorized() bool {
	return v.Flag != FlagImpossible
}

// Effect materializes the payload region only for an authorized verdict.
// An unauthorized verdict's payload is never inspected.
func (v Verdict) Effect() (AuthorizedEffect, bool) {
	if !v.Authorized() {
		return AuthorizedEffect{}, false
	}
	return DecodeEffect(v.Payload), true
}

// Resolver is the single entry point of a decision engine.
type Resolver interface {
	Resolve(req ActionRequest) Verdict
}

type ResolverFunc func(req ActionRequest) Verdict

func (f ResolverFunc) Resolve(req ActionRequest) Verdict {
	return f(req)
}
