package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/eonet-event-tracker/internal/domain"
	"github.com/couchcryptid/eonet-event-tracker/internal/observability"
)

// EventQuery carries the inbound filters for an event retrieval.
// Zero PriorDays means no day limit; zero MinAffectedPlaces disables filtering.
type EventQuery struct {
	Status            domain.EventStatus
	PriorDays         int
	MinAffectedPlaces int
}

func (q EventQuery) validate() error {
	if _, err := domain.ParseEventStatus(string(q.Status)); err != nil {
		return &domain.InvalidQueryError{Reason: err.Error()}
	}
	if q.PriorDays < 0 {
		return &domain.InvalidQueryError{Reason: "priorDays must not be negative"}
	}
	if q.MinAffectedPlaces < 0 {
		return &domain.InvalidQueryError{Reason: "minAffectedPlaces must not be negative"}
	}
	return nil
}

// Service retrieves, decodes, merges, and filters provider events.
// Every call decodes its own fresh list; nothing is shared between calls.
type Service struct {
	fetcher domain.Fetcher
	baseURL string
	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool
}

// NewService creates a Service querying the provider rooted at baseURL,
// e.g. "https://eonet.sci.gsfc.nasa.gov/api/v2.1".
func NewService(fetcher domain.Fetcher, baseURL string, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		fetcher: fetcher,
		baseURL: baseURL,
		logger:  logger,
		metrics: metrics,
	}
}

// CheckReadiness returns nil once the provider has answered at least once.
func (s *Service) CheckReadiness(_ context.Context) error {
	if !s.ready.Load() {
		return errors.New("no successful provider request yet")
	}
	return nil
}

// Events returns the provider's events matching q.
//
// Failures of a single retrieval are logged and degrade to an empty list.
// For StatusAll, open and closed are fetched independently and concatenated
// open first; a *domain.MergeError is returned only when both halves fail and
// at least one failure is a transport error. An invalid q is an
// *domain.InvalidQueryError.
func (s *Service) Events(ctx context.Context, q EventQuery) ([]domain.Event, error) {
	return s.collect(ctx, s.baseURL+"/events", q)
}

// CategoryEvents is Events scoped to a single category.
func (s *Service) CategoryEvents(ctx context.Context, categoryID int, q EventQuery) ([]domain.Event, error) {
	if categoryID <= 0 {
		return nil, &domain.InvalidQueryError{Reason: fmt.Sprintf("category id must be positive, got %d", categoryID)}
	}
	return s.collect(ctx, s.baseURL+"/categories/"+strconv.Itoa(categoryID), q)
}

// Categories lists all event categories. Failures are logged and yield an
// empty list.
func (s *Service) Categories(ctx context.Context) ([]domain.Category, error) {
	url := s.baseURL + "/categories"
	body, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		s.degrade("fetch categories failed", url, err)
		return []domain.Category{}, nil
	}
	s.ready.Store(true)

	categories, err := domain.DecodeCategories(body)
	if err != nil {
		s.countDecodeError(err)
		s.degrade("decode categories failed", url, err)
		return []domain.Category{}, nil
	}
	return categories, nil
}

func (s *Service) collect(ctx context.Context, endpoint string, q EventQuery) ([]domain.Event, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}

	var events []domain.Event
	if q.Status == domain.StatusAll {
		merged, err := s.collectAll(ctx, endpoint, q.PriorDays)
		if err != nil {
			return nil, err
		}
		events = merged
	} else {
		batch, err := s.retrieve(ctx, endpoint, q.Status, q.PriorDays)
		if err != nil {
			var invalid *domain.InvalidQueryError
			if errors.As(err, &invalid) {
				return nil, err
			}
			s.degrade("retrieval failed", endpoint, err, "status", q.Status)
			batch = []domain.Event{}
		}
		events = batch
	}

	filtered := domain.FilterByAffectedPlaces(events, q.MinAffectedPlaces)
	s.metrics.EventsReturned.Observe(float64(len(filtered)))
	return filtered, nil
}

// collectAll fetches open and closed concurrently and concatenates them
// open first. Neither half's failure cancels the other.
func (s *Service) collectAll(ctx context.Context, endpoint string, days int) ([]domain.Event, error) {
	// The group only joins the two fetches; each half keeps its own error.
	var (
		g                 errgroup.Group
		open, closed      []domain.Event
		openErr, closeErr error
	)
	g.Go(func() error {
		open, openErr = s.retrieve(ctx, endpoint, domain.StatusOpen, days)
		return nil
	})
	g.Go(func() error {
		closed, closeErr = s.retrieve(ctx, endpoint, domain.StatusClosed, days)
		return nil
	})
	_ = g.Wait()

	for _, err := range []error{openErr, closeErr} {
		var invalid *domain.InvalidQueryError
		if errors.As(err, &invalid) {
			return nil, err
		}
	}

	if openErr != nil && closeErr != nil && (isTransport(openErr) || isTransport(closeErr)) {
		s.logger.Error("open and closed retrievals both failed",
			"endpoint", endpoint,
			"open_error", openErr,
			"closed_error", closeErr,
		)
		return nil, &domain.MergeError{Open: openErr, Closed: closeErr}
	}
	if openErr != nil {
		s.degrade("retrieval failed", endpoint, openErr, "status", domain.StatusOpen)
	}
	if closeErr != nil {
		s.degrade("retrieval failed", endpoint, closeErr, "status", domain.StatusClosed)
	}

	return domain.MergeEvents(open, closed), nil
}

// retrieve performs one provider call for a single concrete status.
func (s *Service) retrieve(ctx context.Context, endpoint string, status domain.EventStatus, days int) ([]domain.Event, error) {
	params := []domain.QueryParam{{Key: domain.ParamStatus, Value: string(status)}}
	if days != 0 {
		params = append(params, domain.QueryParam{Key: domain.ParamDays, Value: strconv.Itoa(days)})
	}
	url, err := domain.BuildQuery(endpoint, params...)
	if err != nil {
		return nil, err
	}

	body, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	s.ready.Store(true)

	events, err := domain.DecodeEvents(body)
	if err != nil {
		s.countDecodeError(err)
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}
	s.logger.Debug("events retrieved", "url", url, "count", len(events))
	return events, nil
}

func (s *Service) degrade(msg, url string, err error, attrs ...any) {
	s.metrics.DegradedRetrievals.Inc()
	s.logger.Warn(msg, append([]any{"url", url, "error", err}, attrs...)...)
}

func (s *Service) countDecodeError(err error) {
	var decErr *domain.DecodeError
	if errors.As(err, &decErr) {
		s.metrics.DecodeErrors.WithLabelValues(string(decErr.Kind)).Inc()
	}
}

func isTransport(err error) bool {
	var transportErr *domain.TransportError
	return errors.As(err, &transportErr)
}
