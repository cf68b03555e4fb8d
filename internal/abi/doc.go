// Package abi is the fixed-layout contract between the ingress pipeline and
// the compiled-in decision engine.
//
// The caller builds an ActionRequest from already validated parts and hands
// it to a Resolver. The Resolver answers with a Verdict whose payload region
// holds an encoded AuthorizedEffect only when its flag is set. Layout sizes
// and field order are part of the compatibility surface:
//
//	ActionRequest  { domain_id u64 (u32 value), magnitude u64, payload view }
//	Verdict        { flag u8, pad [7]u8, payload [32]u8 }           40 bytes
//	AuthorizedEffect { domain_id u64, magnitude u64, token u128 }   32 bytes LE
package abi
