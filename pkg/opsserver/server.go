// Package opsserver implements the minimal in-process ops HTTP surface:
// GET /healthz (liveness) and GET /statusz (rate-limiter levels,
// per-provider circuit-breaker states, retry-queue stats, drainer
// activity).
package opsserver

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/aimemory/pkg/classifier"
	"github.com/codeready-toolchain/aimemory/pkg/ratelimit"
	"github.com/codeready-toolchain/aimemory/pkg/retryqueue"
	"github.com/codeready-toolchain/aimemory/pkg/storage"
	"github.com/codeready-toolchain/aimemory/pkg/version"
)

// HealthResponse is the GET /healthz body — bare process liveness.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// StatusResponse is the GET /statusz body: a snapshot of in-process state
// useful to an operator, not a dashboard or CLI front-end.
type StatusResponse struct {
	Status          string                `json:"status"`
	Version         string                `json:"version"`
	RateLimiter     ratelimit.Levels      `json:"rate_limiter"`
	ClassifierState map[string]string     `json:"classifier_breakers"`
	RetryQueue      retryqueue.Stats      `json:"retry_queue"`
	Drainer         storage.DrainerHealth `json:"retry_drainer"`
}

// Server wires the gin engine with the limiter, classifier, retry queue,
// and drainer it reports on.
type Server struct {
	engine  *gin.Engine
	http    *http.Server
	limiter *ratelimit.Limiter
	clsfr   *classifier.Classifier
	queue   *retryqueue.Queue
	drainer *storage.RetryDrainer
}

// New builds a Server. Any of clsfr/drainer may be nil (e.g. classifier
// disabled) and are reported as zero values rather than causing a panic.
func New(limiter *ratelimit.Limiter, clsfr *classifier.Classifier, queue *retryqueue.Queue, drainer *storage.RetryDrainer) *Server {
	gin.SetMode(gin.ReleaseMode)
	e := gin.New()
	e.Use(gin.Recovery())

	s := &Server{engine: e, limiter: limiter, clsfr: clsfr, queue: queue, drainer: drainer}
	e.GET("/healthz", s.healthzHandler)
	e.GET("/statusz", s.statuszHandler)
	return s
}

// Start serves addr and blocks until the server stops, returning
// ListenAndServe's error; cmd/memoryd calls it from its own goroutine.
func (s *Server) Start(addr string) error {
	s.http = &http.Server{Addr: addr, Handler: s.engine}
	return s.http.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) healthzHandler(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Version: version.Full()})
}

func (s *Server) statuszHandler(c *gin.Context) {
	resp := StatusResponse{Status: "ok", Version: version.Full()}

	if s.limiter != nil {
		resp.RateLimiter = s.limiter.Levels()
	}
	if s.clsfr != nil {
		resp.ClassifierState = s.clsfr.BreakerStates()
	}
	if s.queue != nil {
		if stats, err := s.queue.GetStats(); err == nil {
			resp.RetryQueue = stats
		}
	}
	if s.drainer != nil {
		resp.Drainer = s.drainer.Health()
	}

	c.JSON(http.StatusOK, resp)
}
