// Package cborstream is a low-level codec for the CBOR binary format
// (RFC 7049). It turns a byte stream into a flat, depth-first sequence of
// per-item events and back, without building any document tree: every data
// item is surfaced as a single DataEvent carrying its header, its raw
// unsigned 64-bit argument and, for definite-length strings, its payload.
//
// The three pieces fit together like this:
//
//   - Header and DataEvent are the immutable value types of the wire
//     format. Factories always pick the canonical (shortest) encoding, and
//     every event that fits in a single byte is a shared singleton.
//   - Parser pulls events from an io.Reader with exactly one event of
//     lookahead. Typed readers never consume the current event on a type
//     mismatch, so callers can retry a different interpretation.
//   - Generator pushes events to an io.Writer; it performs no nesting
//     validation, mirroring the parser's "untrusted until validated"
//     posture.
//
// Diagnose and WriteDiagnostic rebuild nesting from the flat event
// sequence and render it as CBOR diagnostic notation.
package cborstream
