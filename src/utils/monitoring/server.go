package monitoring

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/chainbazaar/syncer/src/utils/config"
	"github.com/chainbazaar/syncer/src/utils/task"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Serves the state report, health check and prometheus metrics
type Server struct {
	*task.Task

	monitor Monitor
	Router  *gin.Engine
	server  *http.Server
}

func NewServer(config *config.Config) (self *Server) {
	self = new(Server)

	if !config.IsDevelopment {
		gin.SetMode(gin.ReleaseMode)
	}

	self.Router = gin.New()
	self.Router.Use(gin.Recovery())

	if config.IsDevelopment {
		pprof.Register(self.Router)
	}

	self.server = &http.Server{
		Addr:              config.RESTListenAddress,
		Handler:           self.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	self.Task = task.NewTask(config, "rest-server").
		WithSubtaskFunc(self.run).
		WithOnStop(self.shutdown)

	return
}

func (self *Server) WithMonitor(monitor Monitor) *Server {
	self.monitor = monitor

	registry := prometheus.NewRegistry()
	registry.MustRegister(monitor.GetPrometheusCollector())

	v1 := self.Router.Group("v1")
	{
		v1.GET("state", monitor.OnGetState)
		v1.GET("health", monitor.OnGetHealth)
		v1.GET("metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}
	return self
}

func (self *Server) run() (err error) {
	self.Log.WithField("addr", self.server.Addr).Info("Starting REST server")
	err = self.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}
	return
}

func (self *Server) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := self.server.Shutdown(ctx)
	if err != nil {
		self.Log.WithError(err).Error("Failed to gracefully shut down REST server")
	}
}
