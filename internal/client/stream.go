package client

import (
	"context"

	"github.com/chainlayer/dna-go/internal/protocol"
	log "github.com/inconshreveable/log15"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
)

// queueCapacity is the bound on both the configuration queue and the
// outbound request queue.
const queueCapacity = 128

// ClientBuilder configures and connects a Client Stream Session. F is the
// outbound Filter payload type; D is the inbound Data payload type; PD
// pins *D as the type implementing protocol.Decodable (Go's usual
// value/pointer-receiver generics pattern, since a bare type parameter
// cannot itself carry a pointer-receiver method set).
type ClientBuilder[F protocol.Encodable, D any, PD interface {
	*D
	protocol.Decodable
}] struct {
	token         string
	configuration *Configuration[F]
	metrics       *Metrics
}

// NewClientBuilder returns a builder with no bearer token and no initial
// configuration, whose session metrics are registered on the default
// Prometheus registry.
func NewClientBuilder[F protocol.Encodable, D any, PD interface {
	*D
	protocol.Decodable
}]() *ClientBuilder[F, D, PD] {
	return &ClientBuilder[F, D, PD]{metrics: NewMetrics(prometheus.DefaultRegisterer)}
}

func (b *ClientBuilder[F, D, PD]) WithBearerToken(token string) *ClientBuilder[F, D, PD] {
	b.token = token
	return b
}

func (b *ClientBuilder[F, D, PD]) WithConfiguration(cfg Configuration[F]) *ClientBuilder[F, D, PD] {
	b.configuration = &cfg
	return b
}

func (b *ClientBuilder[F, D, PD]) WithMetrics(reg prometheus.Registerer) *ClientBuilder[F, D, PD] {
	b.metrics = NewMetrics(reg)
	return b
}

// DataStreamClient is a send-only handle for Configuration[F], the sole
// external producer of the session's configuration queue.
type DataStreamClient[F protocol.Encodable] struct {
	ch chan<- Configuration[F]
}

// Send enqueues cfg, blocking until capacity is available or ctx is done.
func (c DataStreamClient[F]) Send(ctx context.Context, cfg Configuration[F]) error {
	select {
	case c.ch <- cfg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close signals no further configurations will be sent. The stream ends as
// soon as the already-queued configurations have been drawn; responses still
// in flight at that point are not delivered.
func (c DataStreamClient[F]) Close() {
	close(c.ch)
}

// Connect establishes the transport channel to target, wires the bearer
// token interceptor, opens the two bounded queues, synchronously enqueues
// any WithConfiguration value, and invokes StreamData.
func (b *ClientBuilder[F, D, PD]) Connect(ctx context.Context, target string) (*DataStream[F, D, PD], DataStreamClient[F], error) {
	conn, err := grpc.DialContext(ctx, target, dialOptions(b.token)...)
	if err != nil {
		return nil, DataStreamClient[F]{}, &Error{Kind: ErrorKindTransport, Cause: err}
	}

	rpcClient := protocol.NewStreamServiceClient(conn)
	raw, err := rpcClient.StreamData(ctx)
	if err != nil {
		return nil, DataStreamClient[F]{}, &Error{Kind: ErrorKindTransport, Cause: err}
	}

	configCh := make(chan Configuration[F], queueCapacity)
	if b.configuration != nil {
		configCh <- *b.configuration
	}

	stream := newDataStream[F, D, PD](raw, configCh, b.metrics)
	return stream, DataStreamClient[F]{ch: configCh}, nil
}

// DataStream produces a lazy, finite-or-infinite sequence of decoded
// DataMessages over Messages(). Internally a single goroutine drives the
// session: on each turn it polls the configuration queue before the
// response stream, in that strict priority order.
type DataStream[F protocol.Encodable, D any, PD interface {
	*D
	protocol.Decodable
}] struct {
	streamID uint64
	raw      protocol.StreamService_StreamDataClient
	configCh <-chan Configuration[F]
	outbound chan *protocol.StreamDataRequest
	results  chan Result[DataMessage[D]]
	metrics  *Metrics
}

func newDataStream[F protocol.Encodable, D any, PD interface {
	*D
	protocol.Decodable
}](raw protocol.StreamService_StreamDataClient, configCh <-chan Configuration[F], metrics *Metrics) *DataStream[F, D, PD] {
	s := &DataStream[F, D, PD]{
		raw:      raw,
		configCh: configCh,
		outbound: make(chan *protocol.StreamDataRequest, queueCapacity),
		results:  make(chan Result[DataMessage[D]]),
		metrics:  metrics,
	}
	responses := make(chan recvResult, 1)
	go s.recvLoop(responses)
	go s.sendLoop()
	go s.run(responses)
	return s
}

// Messages returns the channel of decoded messages. It is closed when the
// stream ends (either side closed the transport, or the configuration
// queue was closed and drained).
func (s *DataStream[F, D, PD]) Messages() <-chan Result[DataMessage[D]] {
	return s.results
}

// Close ends the RPC call by closing the outbound queue.
func (s *DataStream[F, D, PD]) Close() {
	close(s.outbound)
}

type recvResult struct {
	resp *protocol.StreamDataResponse
	err  error
}

// recvLoop is the blocking half of the response-stream poll: Recv() has no
// non-blocking variant, so it runs on its own goroutine and feeds results
// to run() for the priority select.
func (s *DataStream[F, D, PD]) recvLoop(out chan<- recvResult) {
	for {
		resp, err := s.raw.Recv()
		out <- recvResult{resp: resp, err: err}
		if err != nil {
			close(out)
			return
		}
	}
}

// sendLoop drains the outbound queue into the raw RPC stream, decoupling
// request construction (in run(), priority-ordered) from the possibly
// blocking network send.
func (s *DataStream[F, D, PD]) sendLoop() {
	for req := range s.outbound {
		if err := s.raw.Send(req); err != nil {
			log.Error("client: failed to send stream request", "err", err)
			return
		}
	}
	// Closing the outbound queue (via DataStream.Close or configCh
	// exhaustion) signals no more requests; half-close the RPC.
	if closer, ok := s.raw.(interface{ CloseSend() error }); ok {
		_ = closer.CloseSend()
	}
}

// run is the poll loop: each iteration polls the configuration queue first,
// then the response stream. The leading non-blocking select enforces strict
// config-before-response priority even when both are ready; the trailing
// blocking select is what actually suspends the goroutine between turns.
func (s *DataStream[F, D, PD]) run(responses <-chan recvResult) {
	defer close(s.results)
	for {
		select {
		case cfg, ok := <-s.configCh:
			if !s.handleConfig(cfg, ok) {
				return
			}
			continue
		default:
		}

		select {
		case cfg, ok := <-s.configCh:
			if !s.handleConfig(cfg, ok) {
				return
			}

		case rr, ok := <-responses:
			if !ok {
				return
			}
			if rr.err != nil {
				s.results <- Result[DataMessage[D]]{Err: &Error{Kind: ErrorKindStreamStatus, Cause: rr.err}}
				return
			}
			msg, emit := s.handleResponse(rr.resp)
			if emit {
				s.results <- Result[DataMessage[D]]{Value: msg}
			}
		}
	}
}

// handleConfig processes one configuration-queue poll outcome: a closed
// queue ends the stream (false); otherwise it bumps stream_id, encodes and
// enqueues the corresponding request, and reports true to keep the loop
// going.
func (s *DataStream[F, D, PD]) handleConfig(cfg Configuration[F], ok bool) bool {
	if !ok {
		close(s.outbound)
		return false
	}
	s.streamID++
	filterBytes, err := protocol.EncodeFilter(cfg.Filter)
	if err != nil {
		s.results <- Result[DataMessage[D]]{Err: &Error{Kind: ErrorKindCodec, Cause: err}}
		return true
	}
	s.outbound <- &protocol.StreamDataRequest{
		StreamId:       s.streamID,
		BatchSize:      cfg.BatchSize,
		StartingCursor: cfg.StartingCursor,
		Finality:       cfg.Finality,
		Filter:         filterBytes,
	}
	return true
}

// handleResponse classifies one response: stale stream_id and empty-message
// frames are dropped (counted, not surfaced); Heartbeat is transparent;
// Data is decoded with silent per-element drop on failure; Invalidate is
// surfaced verbatim.
func (s *DataStream[F, D, PD]) handleResponse(resp *protocol.StreamDataResponse) (DataMessage[D], bool) {
	if resp.StreamId != s.streamID {
		s.metrics.StaleFrames.Inc()
		return DataMessage[D]{}, false
	}
	if resp.IsEmpty() {
		s.metrics.StaleFrames.Inc()
		return DataMessage[D]{}, false
	}

	if hb := resp.GetHeartbeat(); hb != nil {
		s.metrics.Heartbeats.Inc()
		log.Debug("client: received heartbeat")
		return DataMessage[D]{}, false
	}

	if inv := resp.GetInvalidate(); inv != nil {
		return DataMessage[D]{Invalidate: &InvalidateMessage{Cursor: inv.Cursor}}, true
	}

	data := resp.GetData()
	batch := make([]D, 0, len(data.Batch))
	for _, raw := range data.Batch {
		var elem D
		pd := PD(&elem)
		if err := pd.Decode(raw); err != nil {
			s.metrics.DecodeDrops.Inc()
			continue
		}
		batch = append(batch, elem)
	}
	return DataMessage[D]{Data: &DataBatch[D]{
		Cursor:    data.Cursor,
		EndCursor: data.EndCursor,
		Finality:  data.Finality,
		Batch:     batch,
	}}, true
}
