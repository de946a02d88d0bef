// Package bookstest provides an in-memory books.Repository for tests.
package bookstest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Togather-Foundation/books/internal/domain/books"
)

type Memory struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]books.Book
	now    func() time.Time

	// Err, when set, is returned from every call.
	Err error
}

var _ books.Repository = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{nextID: 1, rows: make(map[int64]books.Book), now: time.Now}
}

// Len reports how many rows are stored.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func (m *Memory) List(_ context.Context, filters books.Filters, pagination books.Pagination) ([]books.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}

	ids := make([]int64, 0, len(m.rows))
	for id := range m.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	author := strings.ToLower(filters.Author)
	matched := make([]books.Book, 0, len(ids))
	for _, id := range ids {
		book := m.rows[id]
		if author != "" && !strings.Contains(strings.ToLower(book.Author), author) {
			continue
		}
		if filters.YearFrom != nil && book.Year < *filters.YearFrom {
			continue
		}
		if filters.YearTo != nil && book.Year > *filters.YearTo {
			continue
		}
		matched = append(matched, book)
	}

	if pagination.Skip >= len(matched) {
		return []books.Book{}, nil
	}
	end := pagination.Skip + pagination.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[pagination.Skip:end], nil
}

func (m *Memory) GetByID(_ context.Context, id int64) (*books.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	book, ok := m.rows[id]
	if !ok {
		return nil, books.ErrNotFound
	}
	return &book, nil
}

func (m *Memory) Create(_ context.Context, input books.BookInput) (*books.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.insert(input), nil
}

func (m *Memory) insert(input books.BookInput) *books.Book {
	now := m.now().UTC()
	book := books.Book{
		ID:        m.nextID,
		Title:     input.Title,
		Author:    input.Author,
		Year:      input.Year,
		ISBN:      input.ISBN,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.rows[book.ID] = book
	m.nextID++
	return &book
}

func (m *Memory) Update(_ context.Context, id int64, fn books.UpdateFunc) (*books.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	current, ok := m.rows[id]
	if !ok {
		return nil, books.ErrNotFound
	}
	input, err := fn(current)
	if err != nil {
		return nil, err
	}
	current.Title = input.Title
	current.Author = input.Author
	current.Year = input.Year
	current.ISBN = input.ISBN
	current.UpdatedAt = m.now().UTC()
	m.rows[id] = current
	return &current, nil
}

func (m *Memory) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.rows[id]; !ok {
		return books.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *Memory) Counts(_ context.Context) (books.Counts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return books.Counts{}, m.Err
	}
	counts := books.Counts{
		Total:     int64(len(m.rows)),
		ByAuthor:  map[string]int64{},
		ByCentury: map[int]int64{},
	}
	for _, book := range m.rows {
		counts.ByAuthor[book.Author]++
		counts.ByCentury[books.Century(book.Year)]++
	}
	return counts, nil
}

func (m *Memory) SeedIfEmpty(_ context.Context, inputs []books.BookInput) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	if len(m.rows) > 0 {
		return 0, nil
	}
	for _, input := range inputs {
		m.insert(input)
	}
	return len(inputs), nil
}
