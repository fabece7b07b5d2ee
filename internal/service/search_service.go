package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ngelashvili/supra-backend/internal/domain"
	"github.com/ngelashvili/supra-backend/internal/search"
)

// catalogProvider is the authoritative catalog boundary the orchestrator
// reconciles against.
type catalogProvider interface {
	ListWithDishes(ctx context.Context) ([]*domain.Restaurant, error)
}

// SearchInput is one conversational turn from the API layer. The image may
// arrive as a filesystem path or as an uploaded buffer; the buffer form is
// written to a temp file that is removed on every exit path.
type SearchInput struct {
	Text        string
	ImagePath   string
	ImageData   []byte
	ImageName   string
	Preferences string
	Limit       int
	Prior       *search.Selection
}

// SearchOutput is the reconciled orchestration outcome: the raw selection
// records, the pruned live restaurants they resolve to, and the selection
// context to carry into the next turn.
type SearchOutput struct {
	Status      string               `json:"status"`
	Operation   search.Operation     `json:"operation_performed,omitempty"`
	Results     []search.Record      `json:"results,omitempty"`
	Restaurants []*domain.Restaurant `json:"restaurants,omitempty"`
	Selection   *search.Selection    `json:"selection,omitempty"`
	Message     string               `json:"message,omitempty"`
}

type SearchService struct {
	catalog catalogProvider
	engine  *search.Engine
	logger  *slog.Logger
}

func NewSearchService(catalog catalogProvider, engine *search.Engine, logger *slog.Logger) *SearchService {
	return &SearchService{catalog: catalog, engine: engine, logger: logger}
}

// Search runs one blocking orchestration turn. Backend failures come back as
// Status "error" in the output, never as a returned error; a returned error
// means our own catalog could not be read.
func (s *SearchService) Search(ctx context.Context, in SearchInput) (*SearchOutput, error) {
	catalog, err := s.catalog.ListWithDishes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	imagePath, cleanup, err := s.resolveImage(in)
	if err == nil {
		defer cleanup()
	}

	resp := s.engine.Search(ctx, search.Query{
		Text:        in.Text,
		ImagePath:   imagePath,
		Preferences: in.Preferences,
		Limit:       in.Limit,
		Records:     search.Project(catalog),
		Prior:       s.priorWithConstraints(in),
	})

	if resp.Status != search.StatusSuccess {
		return &SearchOutput{Status: resp.Status, Message: resp.Message}, nil
	}

	if resp.Selection != nil && len(resp.Selection.Constraints) > 0 {
		resp.Results = search.FilterAllergens(resp.Results, catalog, resp.Selection.Constraints)
	}

	return &SearchOutput{
		Status:      resp.Status,
		Operation:   resp.Operation,
		Results:     resp.Results,
		Restaurants: search.Reconcile(resp, catalog),
		Selection:   resp.Selection,
	}, nil
}

// SearchStream runs one streaming turn and returns the backend's raw
// fragment sequence. The temp upload file, if any, is removed before this
// method returns; the image bytes are already captured in the request.
func (s *SearchService) SearchStream(ctx context.Context, in SearchInput) (<-chan search.Chunk, error) {
	catalog, err := s.catalog.ListWithDishes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	imagePath, cleanup, err := s.resolveImage(in)
	if err == nil {
		defer cleanup()
	}

	return s.engine.SearchStream(ctx, search.Query{
		Text:        in.Text,
		ImagePath:   imagePath,
		Preferences: in.Preferences,
		Limit:       in.Limit,
		Records:     search.Project(catalog),
		Prior:       s.priorWithConstraints(in),
	})
}

// resolveImage picks the image source for the turn. Uploaded buffers are
// spilled to a temp file whose cleanup func the caller defers; write
// failures degrade to text-only with a warning, the same policy as ingestion
// failures.
func (s *SearchService) resolveImage(in SearchInput) (string, func(), error) {
	if len(in.ImageData) == 0 {
		return in.ImagePath, func() {}, nil
	}

	path, cleanup, err := search.WriteTempImage(in.ImageData, in.ImageName)
	if err != nil {
		s.logger.Warn("failed to spool uploaded image, degrading to text-only search", "error", err)
		return "", func() {}, err
	}
	return path, cleanup, nil
}

// priorWithConstraints folds the turn's preferences into the persistent
// constraint list so they keep applying on later turns.
func (s *SearchService) priorWithConstraints(in SearchInput) *search.Selection {
	prior := in.Prior
	if in.Preferences == "" {
		return prior
	}
	if prior == nil {
		prior = &search.Selection{}
	}
	for _, c := range prior.Constraints {
		if c == in.Preferences {
			return prior
		}
	}
	withPrefs := *prior
	withPrefs.Constraints = append(append([]string{}, prior.Constraints...), in.Preferences)
	return &withPrefs
}
