package classify

import (
	"go.uber.org/zap"

	"github.com/muni-gis/geocode-cli/internal/model"
)

// Stats is the batch-level rollup of row dispositions. It is not safe for
// concurrent use; the pipeline observes rows from a single goroutine.
type Stats struct {
	Total       int
	ByStatus    map[model.Status]int
	BySource    map[model.Source]int
	ByKind      map[model.RequestKind]int
	InBounds    int
	OutOfBounds int
}

// NewStats returns an empty rollup.
func NewStats() *Stats {
	return &Stats{
		ByStatus: make(map[model.Status]int),
		BySource: make(map[model.Source]int),
		ByKind:   make(map[model.RequestKind]int),
	}
}

// Observe folds one classified row into the rollup.
func (s *Stats) Observe(row *model.Row) {
	s.Total++
	s.ByStatus[row.Status]++
	if row.Meta.Kind != "" {
		s.ByKind[row.Meta.Kind]++
	}
	if row.Result == nil {
		return
	}
	s.BySource[row.Meta.Source]++
	if row.Meta.InBounds {
		s.InBounds++
	} else {
		s.OutOfBounds++
	}
}

// Resolved counts rows that ended with usable coordinates.
func (s *Stats) Resolved() int {
	return s.ByStatus[model.StatusConfirmed] + s.ByStatus[model.StatusUpdated]
}

// SuccessRate is the share of non-skipped rows that resolved.
func (s *Stats) SuccessRate() float64 {
	attempted := s.Total - s.ByStatus[model.StatusSkipped]
	if attempted == 0 {
		return 0
	}
	return float64(s.Resolved()) / float64(attempted)
}

// Log writes the rollup through the global logger.
func (s *Stats) Log() {
	zap.L().Info("batch summary",
		zap.Int("total", s.Total),
		zap.Int("confirmed", s.ByStatus[model.StatusConfirmed]),
		zap.Int("updated", s.ByStatus[model.StatusUpdated]),
		zap.Int("needs_review", s.ByStatus[model.StatusNeedsReview]),
		zap.Int("not_found", s.ByStatus[model.StatusNotFound]),
		zap.Int("skipped", s.ByStatus[model.StatusSkipped]),
		zap.Int("out_of_bounds", s.OutOfBounds),
		zap.Float64("success_rate", s.SuccessRate()),
	)
}
