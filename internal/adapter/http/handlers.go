package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/couchcryptid/eonet-event-tracker/internal/domain"
	"github.com/couchcryptid/eonet-event-tracker/internal/pipeline"
)

func (s *Server) handleCategories(c *gin.Context) {
	categories, err := s.events.Categories(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (s *Server) handleEvents(c *gin.Context) {
	events, ok := s.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, events)
}

// handleStream fetches the whole batch up front, then emits one event per
// tick until the client goes away.
func (s *Server) handleStream(c *gin.Context) {
	events, ok := s.lookup(c)
	if !ok {
		return
	}

	emitter := pipeline.NewEmitter(events, s.stream)
	feed := emitter.Events(c.Request.Context())

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	s.logger.Info("stream opened", "path", c.Request.URL.Path, "events", len(events))

	c.Stream(func(_ io.Writer) bool {
		ev, open := <-feed
		if !open {
			return false
		}
		c.SSEvent("event", ev)
		return true
	})
	s.logger.Info("stream closed", "path", c.Request.URL.Path)
}

// lookup validates the request and runs the matching retrieval. On failure
// the error response is already written.
func (s *Server) lookup(c *gin.Context) ([]domain.Event, bool) {
	q, err := parseEventQuery(c)
	if err != nil {
		s.writeError(c, err)
		return nil, false
	}

	var events []domain.Event
	if rawID, scoped := c.Params.Get("id"); scoped {
		id, convErr := strconv.Atoi(rawID)
		if convErr != nil || id <= 0 {
			s.writeError(c, &domain.InvalidQueryError{Reason: fmt.Sprintf("category id must be a positive integer, got %q", rawID)})
			return nil, false
		}
		events, err = s.events.CategoryEvents(c.Request.Context(), id, q)
	} else {
		events, err = s.events.Events(c.Request.Context(), q)
	}
	if err != nil {
		s.writeError(c, err)
		return nil, false
	}
	return events, true
}

func parseEventQuery(c *gin.Context) (pipeline.EventQuery, error) {
	status, err := domain.ParseEventStatus(c.Query("status"))
	if err != nil {
		return pipeline.EventQuery{}, &domain.InvalidQueryError{Reason: err.Error()}
	}
	days, err := optionalCount(c, "priorDays")
	if err != nil {
		return pipeline.EventQuery{}, err
	}
	places, err := optionalCount(c, "affectedPlacesNo")
	if err != nil {
		return pipeline.EventQuery{}, err
	}
	return pipeline.EventQuery{Status: status, PriorDays: days, MinAffectedPlaces: places}, nil
}

// optionalCount reads a non-negative integer query parameter, zero if absent.
func optionalCount(c *gin.Context, name string) (int, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, &domain.InvalidQueryError{Reason: fmt.Sprintf("%s must be a non-negative integer, got %q", name, raw)}
	}
	return n, nil
}

func (s *Server) writeError(c *gin.Context, err error) {
	var (
		invalid  *domain.InvalidQueryError
		mergeErr *domain.MergeError
	)
	switch {
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &mergeErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "event provider unavailable"})
	default:
		s.logger.Error("request failed", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
