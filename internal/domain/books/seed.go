package books

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

func strPtr(value string) *string {
	return &value
}

// DefaultSeed is inserted into an empty catalogue on first start.
var DefaultSeed = []BookInput{
	{Title: "Война и мир", Author: "Лев Толстой", Year: 1869, ISBN: strPtr("9785170987654")},
	{Title: "Преступление и наказание", Author: "Федор Достоевский", Year: 1866, ISBN: strPtr("9785170876543")},
	{Title: "Евгений Онегин", Author: "Александр Пушкин", Year: 1833, ISBN: strPtr("9785170765432")},
}

type seedFile struct {
	Books []BookInput `yaml:"books"`
}

// LoadSeedFile reads a YAML document of the form `books: [{title, author,
// year, isbn}]`.
func LoadSeedFile(path string) ([]BookInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var doc seedFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return doc.Books, nil
}

// Seed validates inputs and inserts them only when the catalogue is empty.
// It returns the number of books inserted.
func (s *Service) Seed(ctx context.Context, inputs []BookInput) (int, error) {
	normalized := make([]BookInput, 0, len(inputs))
	for i, input := range inputs {
		input = normalize(input)
		if err := s.validate(input); err != nil {
			return 0, fmt.Errorf("seed book %d: %w", i, err)
		}
		normalized = append(normalized, input)
	}
	if len(normalized) == 0 {
		return 0, nil
	}
	return s.repo.SeedIfEmpty(ctx, normalized)
}
