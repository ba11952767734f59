package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/golang/glog"

	"github.com/brittanyzellman/prebid-tlx/config"
	"github.com/brittanyzellman/prebid-tlx/metrics"
	metricsconfig "github.com/brittanyzellman/prebid-tlx/metrics/config"
)

// Listen serves the main, admin and (when configured) prometheus servers until the process
// receives SIGTERM or SIGINT, then shuts every server down gracefully.
func Listen(cfg *config.Configuration, handler http.Handler, adminHandler http.Handler, metricsEngine *metricsconfig.DetailedMetricsEngine) error {
	stopSignals := make(chan os.Signal, 1)
	signal.Notify(stopSignals, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(stopSignals)

	servers := []*namedServer{
		{name: "Main", server: newMainServer(cfg, handler), monitored: true},
		{name: "Admin", server: newAdminServer(cfg, adminHandler)},
	}
	if cfg.Metrics.Prometheus.Port != 0 {
		prometheusServer, err := newPrometheusServer(cfg, metricsEngine)
		if err != nil {
			return err
		}
		servers = append(servers, &namedServer{name: "Prometheus", server: prometheusServer})
	}

	for _, s := range servers {
		var monitor metrics.MetricsEngine
		if s.monitored && metricsEngine != nil {
			monitor = metricsEngine
		}
		ln, err := newListener(s.server.Addr, monitor)
		if err != nil {
			closeListeners(servers)
			return fmt.Errorf("%s server: %v", s.name, err)
		}
		s.listener = ln
	}

	done := make(chan struct{})
	stoppers := make([]chan<- os.Signal, 0, len(servers))
	for _, s := range servers {
		stopper := make(chan os.Signal)
		stoppers = append(stoppers, stopper)
		go shutdownAfterSignals(s.server, stopper, done)
		go runServer(s.server, s.name, s.listener)
	}

	wait(stopSignals, done, stoppers...)
	return nil
}

type namedServer struct {
	name      string
	server    *http.Server
	listener  net.Listener
	monitored bool
}

func closeListeners(servers []*namedServer) {
	for _, s := range servers {
		if s.listener != nil {
			s.listener.Close()
		}
	}
}

func newAdminServer(cfg *config.Configuration, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:    cfg.Host + ":" + strconv.Itoa(cfg.AdminPort),
		Handler: handler,
	}
}

func newMainServer(cfg *config.Configuration, handler http.Handler) *http.Server {
	var serverHandler = handler
	if cfg.EnableGzip {
		serverHandler = gziphandler.GzipHandler(handler)
	}

	return &http.Server{
		Addr:         cfg.Host + ":" + strconv.Itoa(cfg.Port),
		Handler:      serverHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
}

func runServer(server *http.Server, name string, listener net.Listener) {
	glog.Infof("%s server starting on: %s", name, server.Addr)
	err := server.Serve(listener)
	if err != http.ErrServerClosed {
		glog.Errorf("%s server quit with error: %v", name, err)
	}
}

func newListener(address string, me metrics.MetricsEngine) (net.Listener, error) {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("Error listening for TCP connections on %s: %v", address, err)
	}
	if me != nil {
		ln = &monitorableListener{ln, me}
	}
	return ln, nil
}

func wait(inbound <-chan os.Signal, done <-chan struct{}, outbound ...chan<- os.Signal) {
	sig := <-inbound

	for i := 0; i < len(outbound); i++ {
		go sendSignal(outbound[i], sig)
	}

	for i := 0; i < len(outbound); i++ {
		<-done
	}
}

func shutdownAfterSignals(server *http.Server, stopper <-chan os.Signal, done chan<- struct{}) {
	sig := <-stopper

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var s struct{}
	glog.Infof("Stopping %s because of signal: %s", server.Addr, sig.String())
	if err := server.Shutdown(ctx); err != nil {
		glog.Errorf("Failed to shutdown %s: %v", server.Addr, err)
	}
	done <- s
}

func sendSignal(to chan<- os.Signal, sig os.Signal) {
	to <- sig
}
