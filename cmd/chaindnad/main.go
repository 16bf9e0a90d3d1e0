// Command chaindnad opens a persistent lmdb environment and serves the
// StreamData RPC off it. Flags here are the minimum needed to point the
// binary at a database and a listen address.
package main

import (
	"context"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/chainlayer/dna-go/internal/kv"
	"github.com/chainlayer/dna-go/internal/server"
	"github.com/chainlayer/dna-go/internal/storage"
	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	log "github.com/inconshreveable/log15"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"

	"github.com/chainlayer/dna-go/internal/protocol"
)

func main() {
	dbPath := flag.String("db", "./chaindna-data", "lmdb environment directory")
	listenAddr := flag.String("listen", "127.0.0.1:7171", "StreamData gRPC listen address")
	metricsAddr := flag.String("metrics", "127.0.0.1:7172", "Prometheus /metrics listen address")
	flag.Parse()

	env, err := kv.NewLMDB().Path(*dbPath).Open(context.Background())
	if err != nil {
		log.Error("chaindnad: failed to open database", "path", *dbPath, "err", err)
		os.Exit(1)
	}
	defer env.Close()

	engine := storage.Open(env)
	srv := server.New(engine)

	grpcServer := grpc.NewServer(
		grpc.StreamInterceptor(grpc_middleware.ChainStreamServer(grpc_prometheus.StreamServerInterceptor)),
		grpc.UnaryInterceptor(grpc_middleware.ChainUnaryServer(grpc_prometheus.UnaryServerInterceptor)),
	)
	protocol.RegisterStreamServiceServer(grpcServer, srv)
	grpc_prometheus.Register(grpcServer)

	lis, err := net.Listen("tcp", *listenAddr)
	if err != nil {
		log.Error("chaindnad: failed to bind listener", "addr", *listenAddr, "err", err)
		os.Exit(1)
	}

	go func() {
		log.Info("chaindnad: metrics listening", "addr", *metricsAddr)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
			log.Error("chaindnad: metrics server exited", "err", err)
		}
	}()

	go func() {
		log.Info("chaindnad: StreamData listening", "addr", *listenAddr)
		if err := grpcServer.Serve(lis); err != nil {
			log.Error("chaindnad: gRPC server exited", "err", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("chaindnad: shutting down")
	grpcServer.GracefulStop()
}
