package client

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/chainlayer/dna-go/internal/protocol"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

// fakeRaw is an in-process stand-in for protocol.StreamService_StreamDataClient,
// letting these tests drive the poll loop without a real gRPC transport.
type fakeRaw struct {
	sent chan *protocol.StreamDataRequest
	recv chan *protocol.StreamDataResponse
}

func newFakeRaw() *fakeRaw {
	return &fakeRaw{
		sent: make(chan *protocol.StreamDataRequest, queueCapacity),
		recv: make(chan *protocol.StreamDataResponse, queueCapacity),
	}
}

func (f *fakeRaw) Send(m *protocol.StreamDataRequest) error {
	f.sent <- m
	return nil
}

func (f *fakeRaw) Recv() (*protocol.StreamDataResponse, error) {
	resp, ok := <-f.recv
	if !ok {
		return nil, io.EOF
	}
	return resp, nil
}

func (f *fakeRaw) CloseSend() error { return nil }

type testFilter struct{ value byte }

func (f testFilter) Encode() ([]byte, error) { return []byte{f.value}, nil }

type testData struct{ value byte }

func (d *testData) Decode(raw []byte) error {
	if len(raw) != 1 {
		return errors.New("testData: want exactly 1 byte")
	}
	d.value = raw[0]
	return nil
}

func newTestStream(t *testing.T) (*DataStream[testFilter, testData, *testData], chan Configuration[testFilter], *fakeRaw) {
	t.Helper()
	configCh := make(chan Configuration[testFilter], queueCapacity)
	raw := newFakeRaw()
	metrics := NewMetrics(prometheus.NewRegistry())
	stream := newDataStream[testFilter, testData, *testData](raw, configCh, metrics)
	return stream, configCh, raw
}

func recvOne(t *testing.T, results <-chan Result[DataMessage[testData]]) Result[DataMessage[testData]] {
	t.Helper()
	select {
	case r := <-results:
		return r
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a message")
		return Result[DataMessage[testData]]{}
	}
}

func TestSessionIdGating(t *testing.T) {
	stream, configCh, raw := newTestStream(t)

	configCh <- Configuration[testFilter]{BatchSize: 1, Filter: testFilter{value: 1}}
	req := <-raw.sent
	require.Equal(t, uint64(1), req.StreamId)

	// A stale response (stream_id 0, before any configuration) must never
	// surface as a DataMessage.
	raw.recv <- &protocol.StreamDataResponse{
		StreamId: 0,
		Data:     &protocol.Data{Batch: [][]byte{{9}}},
	}
	raw.recv <- &protocol.StreamDataResponse{
		StreamId: 1,
		Data:     &protocol.Data{Batch: [][]byte{{7}}},
	}

	r := recvOne(t, stream.Messages())
	require.NoError(t, r.Err)
	require.NotNil(t, r.Value.Data)
	require.Equal(t, []testData{{value: 7}}, r.Value.Data.Batch)
}

func TestHeartbeatTransparency(t *testing.T) {
	stream, configCh, raw := newTestStream(t)
	configCh <- Configuration[testFilter]{Filter: testFilter{value: 1}}
	<-raw.sent

	raw.recv <- &protocol.StreamDataResponse{StreamId: 1, Heartbeat: &protocol.Heartbeat{}}
	raw.recv <- &protocol.StreamDataResponse{StreamId: 1, Invalidate: &protocol.Invalidate{Cursor: &protocol.Cursor{OrderKey: 42}}}

	r := recvOne(t, stream.Messages())
	require.NoError(t, r.Err)
	require.NotNil(t, r.Value.Invalidate)
	require.Equal(t, uint64(42), r.Value.Invalidate.Cursor.OrderKey)
}

func TestInvalidateFidelity(t *testing.T) {
	stream, configCh, raw := newTestStream(t)
	configCh <- Configuration[testFilter]{Filter: testFilter{value: 1}}
	<-raw.sent

	cursor := &protocol.Cursor{OrderKey: 100, UniqueKey: []byte("x")}
	raw.recv <- &protocol.StreamDataResponse{StreamId: 1, Invalidate: &protocol.Invalidate{Cursor: cursor}}

	r := recvOne(t, stream.Messages())
	require.NoError(t, r.Err)
	require.Equal(t, cursor, r.Value.Invalidate.Cursor)
}

// TestReconfigurationMidStream is scenario S6: config1 draws two responses
// tagged stream_id=1, then config2 is sent; one stale stream_id=1 response
// arrives and is dropped, then a stream_id=2 response is surfaced. Exactly
// three DataMessage::Data items are emitted, in order.
func TestReconfigurationMidStream(t *testing.T) {
	stream, configCh, raw := newTestStream(t)

	configCh <- Configuration[testFilter]{Filter: testFilter{value: 1}}
	<-raw.sent // stream_id 1 request

	raw.recv <- &protocol.StreamDataResponse{StreamId: 1, Data: &protocol.Data{Batch: [][]byte{{1}}}}
	r1 := recvOne(t, stream.Messages())
	require.Equal(t, []testData{{value: 1}}, r1.Value.Data.Batch)

	raw.recv <- &protocol.StreamDataResponse{StreamId: 1, Data: &protocol.Data{Batch: [][]byte{{2}}}}
	r2 := recvOne(t, stream.Messages())
	require.Equal(t, []testData{{value: 2}}, r2.Value.Data.Batch)

	configCh <- Configuration[testFilter]{Filter: testFilter{value: 2}}
	<-raw.sent // stream_id 2 request

	// Stale response from the previous configuration window: dropped.
	raw.recv <- &protocol.StreamDataResponse{StreamId: 1, Data: &protocol.Data{Batch: [][]byte{{99}}}}
	// Fresh response under the new stream_id: surfaced.
	raw.recv <- &protocol.StreamDataResponse{StreamId: 2, Data: &protocol.Data{Batch: [][]byte{{3}}}}

	r3 := recvOne(t, stream.Messages())
	require.Equal(t, []testData{{value: 3}}, r3.Value.Data.Batch)
}

func TestDecodeFailureDroppedSilently(t *testing.T) {
	stream, configCh, raw := newTestStream(t)
	configCh <- Configuration[testFilter]{Filter: testFilter{value: 1}}
	<-raw.sent

	raw.recv <- &protocol.StreamDataResponse{
		StreamId: 1,
		Data:     &protocol.Data{Batch: [][]byte{{1}, {1, 2}, {3}}},
	}

	r := recvOne(t, stream.Messages())
	require.NoError(t, r.Err)
	require.Equal(t, []testData{{value: 1}, {value: 3}}, r.Value.Data.Batch)
}
