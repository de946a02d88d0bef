package books

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type Service struct {
	repo      Repository
	validator *validator.Validate
	now       func() time.Time
}

type Option func(*Service)

// WithClock overrides the clock used for the publication year upper bound.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.validator = newValidator(func() time.Time { return s.now() })
	return s
}

func (s *Service) List(ctx context.Context, filters Filters, pagination Pagination) ([]Book, error) {
	if pagination.Limit <= 0 {
		pagination.Limit = DefaultLimit
	}
	if pagination.Skip < 0 {
		pagination.Skip = 0
	}
	return s.repo.List(ctx, filters, pagination)
}

func (s *Service) Get(ctx context.Context, id int64) (*Book, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, input BookInput) (*Book, error) {
	input = normalize(input)
	if err := s.validate(input); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, input)
}

// Replace overwrites every field of an existing book. An absent ISBN clears
// the stored one.
func (s *Service) Replace(ctx context.Context, id int64, input BookInput) (*Book, error) {
	input = normalize(input)
	if err := s.validate(input); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, func(Book) (BookInput, error) {
		return input, nil
	})
}

// Patch applies the non-nil fields of patch on top of the stored book and
// validates the merged result. Stored values the patch does not name are
// written back untouched.
func (s *Service) Patch(ctx context.Context, id int64, patch BookPatch) (*Book, error) {
	return s.repo.Update(ctx, id, func(current Book) (BookInput, error) {
		merged := current.Input()
		if patch.Title != nil {
			merged.Title = strings.TrimSpace(*patch.Title)
		}
		if patch.Author != nil {
			merged.Author = strings.TrimSpace(*patch.Author)
		}
		if patch.Year != nil {
			merged.Year = *patch.Year
		}
		if patch.ISBN != nil {
			merged.ISBN = trimOptional(patch.ISBN)
		}
		if err := s.validate(merged); err != nil {
			return BookInput{}, err
		}
		return merged, nil
	})
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	counts, err := s.repo.Counts(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("count books: %w", err)
	}
	stats := Stats{
		TotalBooks:     counts.Total,
		BooksByAuthor:  make(map[string]int64, len(counts.ByAuthor)),
		BooksByCentury: make(map[string]int64, len(counts.ByCentury)),
	}
	for author, n := range counts.ByAuthor {
		stats.BooksByAuthor[author] = n
	}
	for century, n := range counts.ByCentury {
		stats.BooksByCentury[CenturyLabel(century)] += n
	}
	return stats, nil
}

// Century returns the century a year falls into, counting the way the
// statistics endpoint always has: year/100 + 1.
func Century(year int) int {
	return year/100 + 1
}

// CenturyLabel renders a century the way the catalogue has always labelled
// it: "19 век".
func CenturyLabel(century int) string {
	return fmt.Sprintf("%d век", century)
}

// normalize trims surrounding whitespace. Titles and authors are otherwise
// stored exactly as sent.
func normalize(input BookInput) BookInput {
	input.Title = strings.TrimSpace(input.Title)
	input.Author = strings.TrimSpace(input.Author)
	input.ISBN = trimOptional(input.ISBN)
	return input
}

// trimOptional reports a blank ISBN as absent.
func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
