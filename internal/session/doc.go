// Package session drives one producer connection: it reassembles frames
// from the transport, maintains the connection's string table and
// descriptor registry, and writes decoded entries to a types.Sink.
//
// A Session is single-threaded. The only blocking point is the transport
// read inside Run; Step runs one state transition against whatever bytes
// are already buffered and never blocks.
//
// Error policy:
//   - insufficient data is backpressure: Step returns ActionAwait.
//   - malformed frames are skipped whole and scanning resumes at a header.
//   - protocol, transport and sink failures end the session.
package session
