// Package server exposes a built state abstraction over HTTP for
// read only lookups
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zeu5/state-abs/abstraction"
	"go.uber.org/zap"
)

// Info describes how the served abstraction was built
type Info struct {
	Predicate     string  `json:"predicate"`
	Epsilon       float64 `json:"epsilon"`
	Consolidation string  `json:"consolidation"`
	Tasks         int     `json:"tasks"`
}

type Server struct {
	Addr   string
	sa     *abstraction.StateAbstraction
	info   Info
	logger *zap.Logger

	registry *prometheus.Registry
	lookups  *prometheus.CounterVec

	engine *gin.Engine
	server *http.Server
}

func New(addr string, sa *abstraction.StateAbstraction, info Info, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		Addr:     addr,
		sa:       sa,
		info:     info,
		logger:   logger,
		registry: prometheus.NewRegistry(),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "state_abstraction_lookups_total",
			Help: "Lookups served, by endpoint and result",
		}, []string{"endpoint", "result"}),
	}
	s.registry.MustRegister(s.lookups)
	s.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "state_abstraction_ground_states",
		Help: "Number of ground states of the served abstraction",
	}, func() float64 { return float64(sa.NumGroundStates()) }))
	s.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "state_abstraction_abstract_states",
		Help: "Number of abstract states of the served abstraction",
	}, func() float64 { return float64(sa.NumAbstractStates()) }))

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/abstraction", s.handleAbstraction)
	r.GET("/phi/:state", s.handlePhi)
	r.GET("/clusters/:id", s.handleCluster)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	s.engine = r
	s.server = &http.Server{
		Addr:    addr,
		Handler: r,
	}
	return s
}

// Handler is the router, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves until the context is cancelled
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving state abstraction", zap.String("addr", s.Addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleAbstraction(c *gin.Context) {
	s.lookups.WithLabelValues("abstraction", "ok").Inc()
	c.JSON(http.StatusOK, gin.H{
		"ground_states":          s.sa.NumGroundStates(),
		"abstract_states":        s.sa.NumAbstractStates(),
		"tracks_optimal_actions": s.sa.TracksOptimalActions(),
		"predicate":              s.info.Predicate,
		"epsilon":                s.info.Epsilon,
		"consolidation":          s.info.Consolidation,
		"tasks":                  s.info.Tasks,
	})
}

func (s *Server) handlePhi(c *gin.Context) {
	key := c.Param("state")
	a, err := s.sa.PhiHash(key)
	if err != nil {
		s.lookups.WithLabelValues("phi", "not_found").Inc()
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	s.lookups.WithLabelValues("phi", "ok").Inc()
	c.JSON(http.StatusOK, gin.H{"state": key, "abstract_state": int(a)})
}

func (s *Server) handleCluster(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		s.lookups.WithLabelValues("clusters", "bad_request").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "abstract state id must be an integer"})
		return
	}
	members, err := s.sa.Cluster(abstraction.AbstractState(id))
	if err != nil {
		s.lookups.WithLabelValues("clusters", "not_found").Inc()
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	keys := make([]string, len(members))
	for i, m := range members {
		keys[i] = m.Hash()
	}
	out := gin.H{"abstract_state": id, "members": keys}
	if common, err := s.sa.CommonOptimalActions(abstraction.AbstractState(id)); err == nil && s.sa.TracksOptimalActions() {
		out["common_optimal_actions"] = common
	}
	s.lookups.WithLabelValues("clusters", "ok").Inc()
	c.JSON(http.StatusOK, out)
}
