// Package daemon connects decoder sessions to real transports.
//
// Client dials one producer and reconnects with exponential backoff after
// the connection or its session fails. Server accepts many producers and
// runs an independent session per connection. Both share one types.Sink.
package daemon
