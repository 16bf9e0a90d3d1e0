package client

import (
	"context"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/chainlayer/dna-go/internal/protocol"
	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/backoff"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/metadata"
)

// dialOptions builds the grpc.DialOptions for the StreamData connection:
// backoff-governed connect params, a keepalive timeout, and a max receive
// message size expressed via c2h5oh/datasize. bearerToken, when non-empty,
// is injected as an authorization header via a chained unary+stream
// interceptor.
func dialOptions(bearerToken string) []grpc.DialOption {
	unary := []grpc.UnaryClientInterceptor{grpc_prometheus.UnaryClientInterceptor}
	stream := []grpc.StreamClientInterceptor{grpc_prometheus.StreamClientInterceptor}
	if bearerToken != "" {
		unary = append(unary, tokenUnaryInterceptor(bearerToken))
		stream = append(stream, tokenStreamInterceptor(bearerToken))
	}

	return []grpc.DialOption{
		grpc.WithInsecure(),
		grpc.WithConnectParams(grpc.ConnectParams{
			Backoff:           backoff.DefaultConfig,
			MinConnectTimeout: 10 * time.Minute,
		}),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(int(5*datasize.MB)),
			grpc.CallContentSubtype(protocol.CodecName),
		),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Timeout: 10 * time.Minute,
		}),
		grpc.WithUnaryInterceptor(grpc_middleware.ChainUnaryClient(unary...)),
		grpc.WithStreamInterceptor(grpc_middleware.ChainStreamClient(stream...)),
	}
}

// tokenUnaryInterceptor inserts "authorization: Bearer <token>" into every
// unary call's outgoing metadata.
func tokenUnaryInterceptor(token string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		return invoker(withBearerToken(ctx, token), method, req, reply, cc, opts...)
	}
}

// tokenStreamInterceptor does the same for the bidi StreamData call.
func tokenStreamInterceptor(token string) grpc.StreamClientInterceptor {
	return func(ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn, method string, streamer grpc.Streamer, opts ...grpc.CallOption) (grpc.ClientStream, error) {
		return streamer(withBearerToken(ctx, token), desc, cc, method, opts...)
	}
}

func withBearerToken(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
}
