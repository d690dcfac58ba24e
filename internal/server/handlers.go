package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jzx17/taskpool/internal/history"
	"go.uber.org/zap"
)

const defaultRunLimit = 20

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RunListResponse represents a run list response
type RunListResponse struct {
	Runs  []*history.Run `json:"runs"`
	Count int            `json:"count"`
}

func errorJSON(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorResponse{
		Error: ErrorDetail{Code: code, Message: message},
	})
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	historyStatus := "disabled"
	if s.store != nil {
		historyStatus = "ok"
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"checks": gin.H{
			"history": historyStatus,
		},
	})
}

// handleListRuns lists stored runs, newest first
func (s *Server) handleListRuns(c *gin.Context) {
	if s.store == nil {
		errorJSON(c, http.StatusServiceUnavailable, "HISTORY_DISABLED", "run history is not configured")
		return
	}

	limit := defaultRunLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			errorJSON(c, http.StatusBadRequest, "INVALID_REQUEST", "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := s.store.List(c.Request.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list runs", zap.Error(err))
		errorJSON(c, http.StatusInternalServerError, "INTERNAL", err.Error())
		return
	}
	if runs == nil {
		runs = []*history.Run{}
	}

	c.JSON(http.StatusOK, RunListResponse{Runs: runs, Count: len(runs)})
}

// handleGetRun returns one run
func (s *Server) handleGetRun(c *gin.Context) {
	if s.store == nil {
		errorJSON(c, http.StatusServiceUnavailable, "HISTORY_DISABLED", "run history is not configured")
		return
	}

	id := c.Param("id")
	run, err := s.store.Get(c.Request.Context(), id)
	if errors.Is(err, history.ErrRunNotFound) {
		errorJSON(c, http.StatusNotFound, "NOT_FOUND", "run "+id+" not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to get run", zap.String("run_id", id), zap.Error(err))
		errorJSON(c, http.StatusInternalServerError, "INTERNAL", err.Error())
		return
	}

	c.JSON(http.StatusOK, run)
}
