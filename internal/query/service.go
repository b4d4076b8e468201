package query

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aevon-lab/winestats/internal/core/aggregation"
	"github.com/aevon-lab/winestats/internal/core/secrets"
	"github.com/aevon-lab/winestats/internal/core/storage"
)

const (
	DefaultHighKey = "high_quality_average.json"
	DefaultLowKey  = "low_quality_average.json"
)

var (
	ErrUnauthorized    = errors.New("invalid or missing api key")
	ErrInvalidArgument = errors.New("invalid quality selector")
	ErrUpstream        = errors.New("upstream failure")
)

// UpstreamError reports a fetch or decode failure for one artifact.
type UpstreamError struct {
	Key string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("artifact %s: %v", e.Key, e.Err)
}

func (e *UpstreamError) Unwrap() []error {
	return []error{ErrUpstream, e.Err}
}

// Service serves the persisted summaries. It holds no mutable state.
type Service struct {
	store   storage.ArtifactStore
	keys    secrets.Provider
	objects map[string]string
}

// NewService creates a query service. Empty artifact keys fall back to the defaults.
func NewService(store storage.ArtifactStore, keys secrets.Provider, highKey, lowKey string) *Service {
	if highKey == "" {
		highKey = DefaultHighKey
	}
	if lowKey == "" {
		lowKey = DefaultLowKey
	}
	return &Service{
		store: store,
		keys:  keys,
		objects: map[string]string{
			aggregation.HighLabel: highKey,
			aggregation.LowLabel:  lowKey,
		},
	}
}

// ArtifactKey maps a selector to its artifact name.
func (s *Service) ArtifactKey(selector string) (string, bool) {
	key, ok := s.objects[selector]
	return key, ok
}

// Handle authenticates the caller, then returns the stored summary for selector
// verbatim. The store is never read for an unauthenticated or invalid request.
func (s *Service) Handle(ctx context.Context, selector, apiKey string) (json.RawMessage, error) {
	if err := s.authenticate(ctx, apiKey); err != nil {
		return nil, err
	}

	key, ok := s.ArtifactKey(selector)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidArgument, selector)
	}

	body, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, &UpstreamError{Key: key, Err: err}
	}
	if !json.Valid(body) {
		return nil, &UpstreamError{Key: key, Err: errors.New("stored artifact is not valid JSON")}
	}

	return json.RawMessage(body), nil
}

func (s *Service) authenticate(ctx context.Context, apiKey string) error {
	if apiKey == "" {
		return ErrUnauthorized
	}
	expected, err := s.keys.APIKey(ctx)
	if err != nil {
		slog.Error("[Query] Could not resolve configured API key", "error", err)
		return ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(apiKey), []byte(expected)) != 1 {
		return ErrUnauthorized
	}
	return nil
}
