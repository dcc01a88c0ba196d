// Package api exposes the sentiment pipeline over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/phuslu/log"
	"github.com/rs/cors"

	"github.com/rustyeddy/sentibot/config"
	"github.com/rustyeddy/sentibot/feeds"
	"github.com/rustyeddy/sentibot/journal"
	"github.com/rustyeddy/sentibot/market"
	"github.com/rustyeddy/sentibot/sec"
	"github.com/rustyeddy/sentibot/sentiment"
)

// FeedFetcher pulls headline items from RSS sources.
type FeedFetcher interface {
	Fetch(ctx context.Context, urls []string, limitPer, cap int) ([]feeds.Item, error)
}

// PriceFetcher returns a daily price series for a ticker over a period.
type PriceFetcher interface {
	Daily(ctx context.Context, ticker, period string) (market.Series, error)
}

// RunStore persists completed runs. May be nil to disable journaling.
type RunStore interface {
	RecordRun(journal.RunRecord) error
}

// FilingLookup resolves tickers to CIKs and lists recent EDGAR filings.
// May be nil when no SEC user agent is configured.
type FilingLookup interface {
	CIKByTicker(ctx context.Context, ticker string) (string, error)
	RecentFilings(ctx context.Context, cik, formType string, max int) ([]sec.Filing, error)
}

// Server holds the collaborators the HTTP handlers need.
type Server struct {
	cfg     *config.Config
	feeds   FeedFetcher
	prices  PriceFetcher
	scorer  sentiment.Scorer
	store   RunStore
	filings FilingLookup
	logger  log.Logger
}

// NewServer wires a server. store and filings may be nil.
func NewServer(cfg *config.Config, ff FeedFetcher, pf PriceFetcher, scorer sentiment.Scorer, store RunStore, filings FilingLookup) *Server {
	return &Server{
		cfg:     cfg,
		feeds:   ff,
		prices:  pf,
		scorer:  scorer,
		store:   store,
		filings: filings,
		logger:  log.DefaultLogger,
	}
}

// Handler returns the full HTTP handler: gin routes wrapped in CORS.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(requestID(), s.accessLog(), gin.Recovery())

	api := router.Group("/api")
	{
		api.GET("/health", s.health)
		api.GET("/tickers", s.tickers)
		api.GET("/data", s.data)
		api.GET("/entity", s.entity)
		api.GET("/insiders", s.insiders)
	}

	return cors.New(cors.Options{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(router)
}

// Run serves until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Server.Addr,
		Handler: s.Handler(),
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	s.logger.Info().Str("addr", s.cfg.Server.Addr).Msg("api listening")

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errc:
		return err
	}
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info().
			Str("request_id", c.GetString("request_id")).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}

func abortError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}
