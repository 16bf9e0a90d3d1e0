// Package server implements the server side of the StreamData bidi RPC,
// replaying canonical chain data out of storage to connected clients.
package server

import (
	"context"
	"io"

	"github.com/chainlayer/dna-go/internal/cbor"
	"github.com/chainlayer/dna-go/internal/protocol"
	"github.com/chainlayer/dna-go/internal/storage"
	"github.com/chainlayer/dna-go/internal/types"
	log "github.com/inconshreveable/log15"
)

// Server implements protocol.StreamServiceServer, replaying stored blocks
// for each incoming StreamDataRequest. It is intentionally simple: no
// filter evaluation and no live-tip following, just enough to replay
// canonical history to a connected client.
type Server struct {
	protocol.UnimplementedStreamServiceServer
	storage *storage.Storage
}

func New(s *storage.Storage) *Server {
	return &Server{storage: s}
}

// StreamData serves one client's bidi session: for every request received,
// replay canonical blocks from the request's starting cursor through the
// current tip, tagging every response with the request's stream_id so a
// client that reconfigures mid-session sees its gating work correctly.
func (s *Server) StreamData(stream protocol.StreamService_StreamDataServer) error {
	ctx := stream.Context()
	for {
		req, err := stream.Recv()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := s.replay(ctx, stream, req); err != nil {
			log.Error("server: replay failed", "stream_id", req.StreamId, "err", err)
			return err
		}
	}
}

func (s *Server) replay(ctx context.Context, stream protocol.StreamService_StreamDataServer, req *protocol.StreamDataRequest) error {
	reader := s.storage.NewReader()

	head, err := reader.HighestAcceptedBlock(ctx)
	if err != nil {
		return err
	}
	if head == nil {
		return stream.Send(&protocol.StreamDataResponse{StreamId: req.StreamId, Heartbeat: &protocol.Heartbeat{}})
	}

	start := uint64(0)
	if req.StartingCursor != nil {
		start = req.StartingCursor.OrderKey + 1
	}

	var prevCursor *protocol.Cursor
	for n := start; n <= head.Number; n++ {
		id, err := reader.CanonicalBlockId(ctx, n)
		if err != nil {
			return err
		}
		if id == nil {
			continue
		}

		status, err := reader.ReadStatus(ctx, *id)
		if err != nil {
			return err
		}
		if status != nil && finalityOf(*status) < req.Finality {
			continue
		}

		receipts, _, err := reader.ReadReceipts(ctx, *id)
		if err != nil {
			return err
		}
		batch, err := encodeReceipts(receipts)
		if err != nil {
			return err
		}

		endCursor := &protocol.Cursor{OrderKey: n, UniqueKey: append([]byte(nil), id.Hash[:]...)}
		resp := &protocol.StreamDataResponse{
			StreamId: req.StreamId,
			Data: &protocol.Data{
				Cursor:    prevCursor,
				EndCursor: endCursor,
				Finality:  finalityOrUnspecified(status),
				Batch:     batch,
			},
		}
		if err := stream.Send(resp); err != nil {
			return err
		}
		prevCursor = endCursor
	}
	return nil
}

func encodeReceipts(receipts []types.TransactionReceipt) ([][]byte, error) {
	batch := make([][]byte, 0, len(receipts))
	for _, r := range receipts {
		var buf []byte
		if err := cbor.Marshal(&buf, r); err != nil {
			return nil, err
		}
		batch = append(batch, append([]byte(nil), buf...))
	}
	return batch, nil
}

func finalityOrUnspecified(status *types.BlockStatus) protocol.DataFinality {
	if status == nil {
		return protocol.DataFinalityUnspecified
	}
	return finalityOf(*status)
}

func finalityOf(status types.BlockStatus) protocol.DataFinality {
	switch status {
	case types.BlockStatusPending:
		return protocol.DataFinalityPending
	case types.BlockStatusAcceptedOnL2:
		return protocol.DataFinalityAcceptedOnL2
	case types.BlockStatusAcceptedOnL1:
		return protocol.DataFinalityAcceptedOnL1
	default:
		return protocol.DataFinalityUnspecified
	}
}
