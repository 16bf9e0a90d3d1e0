// Package client is the client side of a full-duplex session over the
// StreamData bidi RPC: a builder that dials the transport and opens the
// stream, and a DataStream that demultiplexes batched data, invalidations,
// and heartbeats while letting the caller push reconfigurations at any
// time. See stream.go for the session's poll loop.
package client

import "github.com/chainlayer/dna-go/internal/protocol"

// Configuration carries one reconfiguration of the stream: batch size,
// resume point, finality floor, and an opaque Filter payload.
type Configuration[F protocol.Encodable] struct {
	BatchSize      uint64
	StartingCursor *protocol.Cursor
	Finality       protocol.DataFinality
	Filter         F
}
