// Package httpapi exposes the ingest stage over HTTP. One endpoint accepts a
// raw entity batch and runs it through validation, enrichment, and the bronze
// write synchronously, returning the batch summary.
package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/apperrors"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/logger"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/records"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/stage"
)

const requestIDHeader = "X-Request-Id"

// Server routes intake requests to an Ingestor.
type Server struct {
	Ingest stage.Ingestor
	Log    *logger.Logger
}

// ingestRequest is the intake payload: an entity type tag and the raw batch.
type ingestRequest struct {
	EntityType string           `json:"entity_type" binding:"required"`
	Records    []records.Record `json:"records" binding:"required"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id"`
}

// Router builds the gin engine with request id and logging middleware.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestID(), requestLogger(s.Log))

	router.GET("/healthz", s.health)
	v1 := router.Group("/v1")
	{
		v1.POST("/ingest", s.ingest)
	}
	return router
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ingest runs one intake batch synchronously. Invalid input (unknown entity
// type, empty batch, no valid records, malformed body) is a 400 so the
// producer can fix and resend; everything else is a 500 and safe to retry
// because bronze keys are timestamped per invocation.
func (s *Server) ingest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{
			Error:     "invalid request body: " + err.Error(),
			RequestID: c.GetString(requestIDHeader),
		})
		return
	}

	res, err := s.Ingest.Run(c.Request.Context(), req.EntityType, req.Records)
	if errors.Is(err, apperrors.ErrInvalidInput) {
		c.JSON(http.StatusBadRequest, errorResponse{
			Error:     err.Error(),
			RequestID: c.GetString(requestIDHeader),
		})
		return
	}
	if err != nil {
		s.Log.Error("ingest failed", "entity", req.EntityType, "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{
			Error:     "ingest failed",
			RequestID: c.GetString(requestIDHeader),
		})
		return
	}
	c.JSON(http.StatusOK, res)
}

// requestID assigns a request id when the caller did not send one and echoes
// it back on the response.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if log == nil {
			return
		}
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		fields := []any{
			"method", strings.ToUpper(c.Request.Method),
			"path", path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", c.GetString(requestIDHeader),
		}
		switch status := c.Writer.Status(); {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}
