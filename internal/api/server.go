// Package api exposes the treasury service over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/treasury/internal/accessibility"
	"github.com/mesh-intelligence/treasury/internal/treasury"
	"github.com/mesh-intelligence/treasury/pkg/types"
)

// CacheTagHeader carries the invalidation tags a response depends on.
const CacheTagHeader = "Cache-Tag"

const shutdownTimeout = 10 * time.Second

type Server struct {
	engine     *gin.Engine
	service    *treasury.Service
	logger     *zap.Logger
	listenAddr string
}

func NewServer(listenAddr string, service *treasury.Service, lg *zap.Logger) *Server {
	if lg == nil {
		lg = zap.NewNop()
	}
	r := gin.New()
	r.Use(gin.Recovery(), accessLog(lg))
	s := &Server{
		engine:     r,
		service:    service,
		logger:     lg,
		listenAddr: listenAddr,
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	g := r.Group("/groups/:group")
	g.GET("/treasury", s.handleView)
	g.POST("/treasury", s.handleCreate)
	g.DELETE("/treasury", s.handleRemove)
	g.POST("/treasury/reconnect", s.handleReconnect)
	g.GET("/treasury/accessibility", s.handleAccessibility)
	g.GET("/treasury/proposals", s.handleListProposals)
	g.POST("/treasury/proposals", s.handlePropose)
	g.POST("/members/events", s.handleMembershipEvent)

	r.POST("/accounts/:account/activate", s.handleActivate)
	r.GET("/accessibility", s.handleCheckAll)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.listenAddr, Handler: s.engine}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http api listening", zap.String("addr", s.listenAddr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func accessLog(lg *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		lg.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrAlreadyBound),
		errors.Is(err, types.ErrAccountNotActive),
		errors.Is(err, types.ErrInvalidTransition),
		errors.Is(err, types.ErrAllocationConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (s *Server) handleView(c *gin.Context) {
	view, err := s.service.View(c.Request.Context(), c.Param("group"))
	if err != nil {
		s.fail(c, err)
		return
	}
	for _, tag := range view.CacheTags {
		c.Writer.Header().Add(CacheTagHeader, tag)
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) handleCreate(c *gin.Context) {
	var req treasury.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.GroupID = c.Param("group")
	tr, err := s.service.Create(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, tr)
}

func (s *Server) handleRemove(c *gin.Context) {
	if err := s.service.Remove(c.Request.Context(), c.Param("group")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleReconnect(c *gin.Context) {
	var req treasury.ReconnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.GroupID = c.Param("group")
	tr, err := s.service.Reconnect(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tr)
}

type activateReq struct {
	Address string `json:"address"`
}

func (s *Server) handleActivate(c *gin.Context) {
	var req activateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	account, err := s.service.Activate(c.Request.Context(), c.Param("account"), req.Address)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

type accessibilityResponse struct {
	Account       *types.Account              `json:"account"`
	Accessibility accessibility.Accessibility `json:"accessibility"`
}

func (s *Server) handleAccessibility(c *gin.Context) {
	account, acc, err := s.service.CheckGroup(c.Request.Context(), c.Param("group"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, accessibilityResponse{Account: account, Accessibility: acc})
}

func (s *Server) handleCheckAll(c *gin.Context) {
	accounts, results, err := s.service.CheckAll(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	response := make([]accessibilityResponse, 0, len(accounts))
	for i, a := range accounts {
		response = append(response, accessibilityResponse{Account: a, Accessibility: results[i]})
	}
	c.JSON(http.StatusOK, response)
}

func (s *Server) handleListProposals(c *gin.Context) {
	limit := treasury.RecentLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	proposals, err := s.service.RecentProposals(c.Request.Context(), c.Param("group"), limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"proposals": proposals})
}

func (s *Server) handlePropose(c *gin.Context) {
	var req treasury.ProposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.GroupID = c.Param("group")
	p, err := s.service.Propose(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *Server) handleMembershipEvent(c *gin.Context) {
	var ev types.MembershipEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ev.GroupID = c.Param("group")
	out, err := s.service.HandleMembershipEvent(c.Request.Context(), ev)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
