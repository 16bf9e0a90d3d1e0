package client

import "github.com/chainlayer/dna-go/internal/protocol"

// DataMessage is the decoded, typed counterpart of
// protocol.StreamDataResponse: either a Data batch or an Invalidate notice.
type DataMessage[D any] struct {
	// Data is set for the Data variant; nil otherwise.
	Data *DataBatch[D]
	// Invalidate is set for the Invalidate variant; nil otherwise.
	Invalidate *InvalidateMessage
}

// DataBatch is a contiguous batch of decoded elements.
type DataBatch[D any] struct {
	Cursor    *protocol.Cursor
	EndCursor *protocol.Cursor
	Finality  protocol.DataFinality
	Batch     []D
}

// InvalidateMessage instructs the consumer to discard all locally-observed
// data strictly after Cursor.
type InvalidateMessage struct {
	Cursor *protocol.Cursor
}

// Result is the channel element produced by DataStream.Messages: either a
// decoded DataMessage or a terminal error for that step.
type Result[T any] struct {
	Value T
	Err   error
}
