// Package types defines the Sink interface, table definitions, daemon
// configuration, and the error taxonomy shared by the daqd decoder and its
// storage backends.
package types
