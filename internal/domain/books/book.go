package books

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("book not found")

type Book struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Year      int       `json:"year"`
	ISBN      *string   `json:"isbn"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BookInput is the full write payload used by create and replace. Any id sent
// by the client is ignored.
type BookInput struct {
	Title  string  `json:"title" yaml:"title" validate:"required,max=200"`
	Author string  `json:"author" yaml:"author" validate:"required,max=100"`
	Year   int     `json:"year" yaml:"year" validate:"required,min=1000,notfuture"`
	ISBN   *string `json:"isbn,omitempty" yaml:"isbn,omitempty" validate:"omitempty,min=10,max=13"`
}

// BookPatch carries a partial update. Nil fields leave the stored value as is.
type BookPatch struct {
	Title  *string `json:"title"`
	Author *string `json:"author"`
	Year   *int    `json:"year"`
	ISBN   *string `json:"isbn"`
}

// Input returns the write payload that reproduces the stored book.
func (b Book) Input() BookInput {
	return BookInput{Title: b.Title, Author: b.Author, Year: b.Year, ISBN: b.ISBN}
}

type Filters struct {
	Author   string
	YearFrom *int
	YearTo   *int
}

type Pagination struct {
	Skip  int
	Limit int
}

// Counts is the raw aggregate the store computes for statistics.
type Counts struct {
	Total     int64
	ByAuthor  map[string]int64
	ByCentury map[int]int64
}

type Stats struct {
	TotalBooks     int64            `json:"total_books"`
	BooksByAuthor  map[string]int64 `json:"books_by_author"`
	BooksByCentury map[string]int64 `json:"books_by_century"`
}

// UpdateFunc receives the current row inside the update transaction and
// returns the values to store.
type UpdateFunc func(current Book) (BookInput, error)

type Repository interface {
	List(ctx context.Context, filters Filters, pagination Pagination) ([]Book, error)
	GetByID(ctx context.Context, id int64) (*Book, error)
	Create(ctx context.Context, input BookInput) (*Book, error)
	Update(ctx context.Context, id int64, fn UpdateFunc) (*Book, error)
	Delete(ctx context.Context, id int64) error
	Counts(ctx context.Context) (Counts, error)
	SeedIfEmpty(ctx context.Context, inputs []BookInput) (int, error)
}
