package ingress

import (
	"errors"

	"github.com/danmuck/slime/internal/abi"
	"github.com/danmuck/slime/internal/logging"
	"github.com/danmuck/slime/internal/protocol"
	"github.com/danmuck/slime/internal/protocol/b64"
	"github.com/danmuck/slime/internal/protocol/frame"
	"github.com/danmuck/slime/internal/protocol/response"
	"github.com/danmuck/slime/internal/protocol/schema"
	"github.com/rs/zerolog"
)

// Outcome is the non-semantic result of one connection. It is safe to log
// and to use as a metric label.
type Outcome string

const (
	OutcomeAbandoned            Outcome = "abandoned"
	OutcomeInvalidContentLength Outcome = "invalid_content_length"
	OutcomeMissingBody          Outcome = "missing_body"
	OutcomeInvalidSchema        Outcome = "invalid_schema"
	OutcomeInvalidPayload       Outcome = "invalid_payload"
	OutcomePayloadTooLarge      Outcome = "payload_too_large"
	OutcomeAuthorized           Outcome = "authorized"
	OutcomeImpossible           Outcome = "impossible"
)

func (o Outcome) event() string {
	switch o {
	case OutcomeInvalidContentLength, OutcomeMissingBody:
		return "frame_rejected"
	case OutcomeInvalidSchema:
		return "schema_rejected"
	case OutcomeInvalidPayload, OutcomePayloadTooLarge:
		return "payload_rejected"
	default:
		return string(o)
	}
}

// Forwarder receives authorized effects. Its result never changes the
// response already decided by the verdict.
type Forwarder interface {
	Apply(effect abi.AuthorizedEffect) bool
}

// Pipeline runs frame, schema, decode, decide and forward for one message.
// It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	resolver   abi.Resolver
	forwarder  Forwarder
	limits     frame.Limits
	maxPayload int
	logger     zerolog.Logger
}

func NewPipeline(resolver abi.Resolver, forwarder Forwarder) *Pipeline {
	return &Pipeline{
		resolver:   resolver,
		forwarder:  forwarder,
		limits:     frame.DefaultLimits(),
		maxPayload: protocol.MaxPayloadLen,
		logger:     logging.Component("ingress"),
	}
}

// HandleRaw handles the bytes of one read.
func (p *Pipeline) HandleRaw(raw []byte) (Outcome, response.Response) {
	req, err := frame.Parse(raw, p.limits)
	if err != nil {
		if errors.Is(err, frame.ErrMissingBody) {
			return p.finish(OutcomeMissingBody, response.MissingBody)
		}
		return p.finish(OutcomeInvalidContentLength, response.InvalidContentLength)
	}
	return p.HandleBody(req.Body)
}

// HandleBody handles an already framed body.
func (p *Pipeline) HandleBody(body []byte) (Outcome, response.Response) {
	parsed, err := schema.Parse(body)
	if err != nil {
		return p.finish(OutcomeInvalidSchema, response.InvalidSchema)
	}
	payload, err := b64.Decode(parsed.Payload, p.maxPayload)
	if err != nil {
		if errors.Is(err, b64.ErrTooLarge) {
			return p.finish(OutcomePayloadTooLarge, response.PayloadTooLarge)
		}
		return p.finish(OutcomeInvalidPayload, response.InvalidSchema)
	}

	verdict := p.resolver.Resolve(abi.NewActionRequest(parsed.Domain, parsed.Magnitude, payload))
	effect, ok := verdict.Effect()
	if !ok {
		return p.finish(OutcomeImpossible, response.Impossible)
	}
	p.forwarder.Apply(effect)
	return p.finish(OutcomeAuthorized, response.Authorized)
}

func (p *Pipeline) finish(o Outcome, r response.Response) (Outcome, response.Response) {
	p.logger.Debug().Str("outcome", string(o)).Msg(o.event())
	return o, r
}
