// Package enginetest provides stand-in resolvers for exercising the
// ingress and egress plumbing without a real decision engine.
package enginetest

import (
	"sync"

	"github.com/danmuck/slime/internal/abi"
)

// FixedToken is the token minted by AlwaysAuthorize.
var FixedToken = abi.Token{Hi: 0xABCDEF0123456789, Lo: 0xABCDEF0123456789}

// AlwaysAuthorize authorizes every request with FixedToken.
var AlwaysAuthorize = abi.ResolverFunc(func(req abi.ActionRequest) abi.Verdict {
	return abi.Authorize(abi.AuthorizedEffect{
		DomainID:  req.DomainID,
		Magnitude: req.Magnitude,
		Token:     FixedToken,
	})
})

// PoisonedImpossible declines every request and fills the payload region
// with bytes that would decode to a plausible effect.
var PoisonedImpossible = abi.ResolverFunc(func(abi.ActionRequest) abi.Verdict {
	v := abi.Verdict{Flag: abi.FlagImpossible}
	for i := range v.Payload {
		v.Payload[i] = 0xA5
	}
	return v
})

// Recorder wraps a Resolver and keeps a copy of every request it sees.
type Recorder struct {
	Next abi.Resolver

	mu   sync.Mutex
	reqs []abi.ActionRequest
}

func (r *Recorder) Resolve(req abi.ActionRequest) abi.Verdict {
	cp := req
	cp.Payload = append([]byte(nil), req.Payload...)
	r.mu.Lock()
	r.reqs = append(r.reqs, cp)
	r.mu.Unlock()
	return r.Next.Resolve(req)
}

func (r *Recorder) Requests() []abi.ActionRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]abi.ActionRequest, len(r.reqs))
	copy(out, r.reqs)
	return out
}
