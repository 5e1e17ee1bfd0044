package splitting

import (
	"context"
	"log/slog"
	"sort"

	"github.com/fireflysoft/intellidoc/internal/common"
	"github.com/fireflysoft/intellidoc/internal/entity"
)

// Strategy detects logical document boundaries within a preprocessed
// page sequence.
type Strategy interface {
	Name() string
	Split(ctx context.Context, pre *entity.PreprocessResult) (*entity.SplittingResult, error)
}

// Service dispatches boundary detection to a named strategy. An unknown
// strategy name is a request error that names the available strategies.
type Service struct {
	strategies      map[string]Strategy
	defaultStrategy string
	log             *slog.Logger
}

func NewService(defaultStrategy string, logger *slog.Logger, strategies ...Strategy) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		strategies:      make(map[string]Strategy, len(strategies)),
		defaultStrategy: defaultStrategy,
		log:             logger,
	}
	for _, st := range strategies {
		s.strategies[st.Name()] = st
	}
	return s
}

func (s *Service) Register(st Strategy) {
	s.strategies[st.Name()] = st
}

// Available returns registered strategy names, sorted.
func (s *Service) Available() []string {
	out := make([]string, 0, len(s.strategies))
	for name := range s.strategies {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Split runs the named strategy, or the default when name is empty.
// Every returned result has at least one boundary and boundaries cover
// only valid page ranges.
func (s *Service) Split(ctx context.Context, name string, pre *entity.PreprocessResult) (*entity.SplittingResult, error) {
	if name == "" {
		name = s.defaultStrategy
	}
	st, ok := s.strategies[name]
	if !ok {
		return nil, common.NewUnknownStrategy(name, s.Available())
	}

	result, err := st.Split(ctx, pre)
	if err != nil {
		return nil, err
	}
	normalize(result, pre.TotalPages, st.Name())

	s.log.Info("pipeline.split.done",
		"strategy", result.StrategyUsed,
		"documents", result.TotalDocumentsDetected,
		"pages", result.TotalPages)
	return result, nil
}

// normalize clamps boundaries into [1, totalPages] and guarantees a
// non-empty boundary list.
func normalize(r *entity.SplittingResult, totalPages int, strategy string) {
	r.StrategyUsed = strategy
	r.TotalPages = totalPages

	kept := r.Boundaries[:0]
	for _, b := range r.Boundaries {
		if b.StartPage < 1 {
			b.StartPage = 1
		}
		if b.EndPage > totalPages {
			b.EndPage = totalPages
		}
		if b.StartPage > b.EndPage {
			continue
		}
		kept = append(kept, b)
	}
	r.Boundaries = kept

	if len(r.Boundaries) == 0 {
		r.Boundaries = []entity.DocumentBoundary{{
			StartPage:  1,
			EndPage:    totalPages,
			Confidence: 1.0,
			Reasoning:  "fallback: no boundaries detected, treating file as one document",
		}}
	}
	r.TotalDocumentsDetected = len(r.Boundaries)
}
