// Package protocol defines the wire messages and codec carried over the
// StreamData bidirectional RPC, plus a generated-style service
// client/server pair: plain structs, Get* accessors, and a protoc-gen-go-grpc
// shaped service descriptor.
package protocol

// DataFinality mirrors the finality lattice: Pending < AcceptedOnL2 <
// AcceptedOnL1.
type DataFinality int32

const (
	DataFinalityUnspecified DataFinality = iota
	DataFinalityPending
	DataFinalityAcceptedOnL2
	DataFinalityAcceptedOnL1
)

// Cursor is the server-defined opaque pointer into the chain stream. A
// consumer resumes a session by supplying the last EndCursor it observed.
type Cursor struct {
	OrderKey  uint64
	UniqueKey []byte
}

// StreamDataRequest is sent on the outbound half of the bidi stream, one per
// Configuration drawn from the client's configuration queue.
type StreamDataRequest struct {
	StreamId       uint64
	BatchSize      uint64
	StartingCursor *Cursor
	Finality       DataFinality
	Filter         []byte
}

// StreamDataResponse is received on the inbound half. Exactly one of Data,
// Invalidate, Heartbeat is set, mirroring a protoc oneof's generated Go
// shape.
type StreamDataResponse struct {
	StreamId    uint64
	Data        *Data
	Invalidate  *Invalidate
	Heartbeat   *Heartbeat
}

func (r *StreamDataResponse) GetData() *Data             { return r.Data }
func (r *StreamDataResponse) GetInvalidate() *Invalidate { return r.Invalidate }
func (r *StreamDataResponse) GetHeartbeat() *Heartbeat   { return r.Heartbeat }

// IsEmpty reports whether none of the oneof variants are set.
func (r *StreamDataResponse) IsEmpty() bool {
	return r.Data == nil && r.Invalidate == nil && r.Heartbeat == nil
}

// Data is a contiguous batch of opaque encoded elements.
type Data struct {
	Cursor    *Cursor
	EndCursor *Cursor
	Finality  DataFinality
	Batch     [][]byte
}

// Invalidate instructs the consumer to discard all locally-observed data
// strictly after Cursor.
type Invalidate struct {
	Cursor *Cursor
}

// Heartbeat carries no data; its presence alone is the signal.
type Heartbeat struct{}
