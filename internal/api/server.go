package api

import (
	"net/http"
	"time"

	"kimchibot/internal/config"
	"kimchibot/internal/ledger"
	"kimchibot/internal/logger"
	"kimchibot/internal/store"

	"github.com/gin-gonic/gin"
)

// Server: HTTP-обвязка над файлами состояния. С движком общается только через
// документ задач (команды) и документ торговых настроек.
type Server struct {
	Router *gin.Engine

	cfg    *config.Config
	store  *store.Store
	ledger *ledger.Ledger
	log    *logger.Logger
	now    func() time.Time
}

func NewServer(cfg *config.Config, st *store.Store, lg *ledger.Ledger, log *logger.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.RecoveryWithWriter(log.Writer()))
	r.Use(RequestLogger(log))

	s := &Server{
		Router: r,
		cfg:    cfg,
		store:  st,
		ledger: lg,
		log:    log,
		now:    time.Now,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.Router.Group("/api")
	api.Use(TokenMiddleware(s.cfg.API.Token))
	{
		api.GET("/status", s.getStatus)
		api.PUT("/trading", s.setTrading)

		api.GET("/tasks", s.listTasks)
		api.POST("/tasks", s.createTask)
		api.DELETE("/tasks/:id", s.deleteTask)

		api.POST("/commands/clear-all", s.clearAll)

		api.GET("/cash-balance", s.getCashBalance)
	}
}

func (s *Server) Handler() http.Handler {
	return s.Router
}
