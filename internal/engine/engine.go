// Package engine is the reference decision engine linked into slime.
//
// The policy is a CEL expression embedded at build time; which expression
// and which token key get linked is decided by build tags (default
// enterprise, -tags agent). Nothing is read from disk or environment when
// an Engine is constructed.
package engine

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/danmuck/slime/internal/abi"
	"github.com/google/cel-go/cel"
	"github.com/rs/zerolog/log"
	"github.com/zeebo/blake3"
)

var (
	ErrEmptyRule   = errors.New("engine: empty rule")
	ErrRuleNotBool = errors.New("engine: rule does not evaluate to bool")
)

// TokenKey is the 32-byte BLAKE3 key used to mint actuation tokens.
type TokenKey [32]byte

// Engine evaluates one compiled rule per request and mints a token for
// every authorized action.
type Engine struct {
	variant     string
	rule        string
	fingerprint string
	key         TokenKey
	prg         cel.Program
}

var _ abi.Resolver = (*Engine)(nil)

// New builds the engine from the rule and key linked into this binary.
func New() (*Engine, error) {
	return NewWithRule(Variant, linkedRule, linkedKey)
}

// NewWithRule compiles rule against the request variables domain_id,
// magnitude and payload_len (all uint).
func NewWithRule(variant, rule string, key TokenKey) (*Engine, error) {
	rule = strings.TrimSpace(rule)
	if rule == "" {
		return nil, ErrEmptyRule
	}

	env, err := cel.NewEnv(
		cel.Variable("domain_id", cel.UintType),
		cel.Variable("magnitude", cel.UintType),
		cel.Variable("payload_len", cel.UintType),
	)
	if err != nil {
		return nil, fmt.Errorf("engine: cel environment: %w", err)
	}
	ast, issues := env.Compile(rule)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("engine: compile %s rule: %w", variant, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, ErrRuleNotBool
	}
	prg, err := env.Program(ast,
		cel.InterruptCheckFrequency(100),
		cel.CostLimit(10000),
	)
	if err != nil {
		return nil, fmt.Errorf("engine: program: %w", err)
	}

	sum := blake3.Sum256([]byte(rule))
	e := &Engine{
		variant:     variant,
		rule:        rule,
		fingerprint: hex.EncodeToString(sum[:8]),
		key:         key,
		prg:         prg,
	}
	log.Debug().
		Str("variant", variant).
		Str("fingerprint", e.fingerprint).
		Msg("engine.NewWithRule compiled")
	return e, nil
}

func (e *Engine) Variant() string {
	return e.variant
}

// Fingerprint identifies the compiled rule text.
func (e *Engine) Fingerprint() string {
	return e.fingerprint
}

func (e *Engine) Rule() string {
	return e.rule
}

// Resolve is fail-closed: evaluation errors and non-bool results are
// Impossible.
func (e *Engine) Resolve(req abi.ActionRequest) abi.Verdict {
	out, _, err := e.prg.Eval(map[string]any{
		"domain_id":   req.DomainID,
		"magnitude":   req.Magnitude,
		"payload_len": uint64(len(req.Payload)),
	})
	if err != nil {
		return abi.Impossible()
	}
	allowed, ok := out.Value().(bool)
	if !ok || !allowed {
		return abi.Impossible()
	}

	token, err := e.mint(req)
	if err != nil {
		return abi.Impossible()
	}
	return abi.Authorize(abi.AuthorizedEffect{
		DomainID:  req.DomainID,
		Magnitude: req.Magnitude,
		Token:     token,
	})
}

// mint derives the token as the low 16 bytes of
// BLAKE3-keyed(LE64(domain_id) || LE64(magnitude) || payload).
func (e *Engine) mint(req abi.ActionRequest) (abi.Token, error) {
	h, err := blake3.NewKeyed(e.key[:])
	if err != nil {
		return abi.Token{}, err
	}
	var head [16]byte
	binary.LittleEndian.PutUint64(head[0:8], req.DomainID)
	binary.LittleEndian.PutUint64(head[8:16], req.Magnitude)
	_, _ = h.Write(head[:])
	_, _ = h.Write(req.Payload)
	sum := h.Sum(nil)
	return abi.Token{
		Lo: binary.LittleEndian.Uint64(sum[0:8]),
		Hi: binary.LittleEndian.Uint64(sum[8:16]),
	}, nil
}
