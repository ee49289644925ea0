// Package protocol defines the line-delimited JSON contract between the host
// application and the worker.
//
// Inbound lines decode into the closed Command sum type; outbound Events are
// serialized one per line by Writer, which guarantees that concurrent emitters
// never interleave within a line. Field names follow the host's camelCase
// wire format.
package protocol
