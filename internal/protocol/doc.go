// Package protocol owns the ingress wire contract.
//
// Ownership boundary:
// - frame: single-shot HTTP message termination
// - schema: exact request body shape
// - b64: strict payload decoding
// - response: fixed response literals
//
// The 32-byte egress record lives in internal/abi next to the effect it
// encodes. Everything below this package touches attacker-controlled
// bytes, and nothing here allocates in proportion to input beyond the
// documented caps.
package protocol
