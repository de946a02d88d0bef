package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Togather-Foundation/books/internal/domain/books"
	"github.com/Togather-Foundation/books/internal/metrics"
	"github.com/Togather-Foundation/books/internal/telemetry"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var _ books.Repository = (*BookRepository)(nil)

const bookColumns = `id, title, author, year, isbn, created_at, updated_at`

type BookRepository struct {
	pool *pgxpool.Pool
}

func (r *BookRepository) List(ctx context.Context, filters books.Filters, pagination books.Pagination) (result []books.Book, err error) {
	ctx, done := observe(ctx, "list_books")
	defer func() { done(err) }()

	rows, err := r.pool.Query(ctx, `
SELECT `+bookColumns+`
  FROM books
 WHERE ($1::text = '' OR author ILIKE '%' || $1 || '%')
   AND ($2::int IS NULL OR year >= $2::int)
   AND ($3::int IS NULL OR year <= $3::int)
 ORDER BY id ASC
OFFSET $4
 LIMIT $5
`,
		escapeILIKEPattern(filters.Author),
		filters.YearFrom,
		filters.YearTo,
		pagination.Skip,
		pagination.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	items := make([]books.Book, 0, pagination.Limit)
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan books: %w", err)
		}
		items = append(items, book)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate books: %w", err)
	}
	return items, nil
}

func (r *BookRepository) GetByID(ctx context.Context, id int64) (_ *books.Book, err error) {
	ctx, done := observe(ctx, "get_book")
	defer func() { done(err) }()

	return getBook(ctx, r.pool, id, false)
}

func (r *BookRepository) Create(ctx context.Context, input books.BookInput) (_ *books.Book, err error) {
	ctx, done := observe(ctx, "create_book")
	defer func() { done(err) }()

	row := r.pool.QueryRow(ctx, `
INSERT INTO books (title, author, year, isbn)
VALUES ($1, $2, $3, $4)
RETURNING `+bookColumns,
		input.Title, input.Author, input.Year, input.ISBN,
	)
	book, err := scanBook(row)
	if err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}
	return &book, nil
}

// Update locks the row, hands the current values to fn and stores its result
// in the same transaction.
func (r *BookRepository) Update(ctx context.Context, id int64, fn books.UpdateFunc) (_ *books.Book, err error) {
	ctx, done := observe(ctx, "update_book")
	defer func() { done(err) }()

	var updated books.Book
	err = withTx(ctx, r.pool, func(tx pgx.Tx) error {
		current, err := getBook(ctx, tx, id, true)
		if err != nil {
			return err
		}
		input, err := fn(*current)
		if err != nil {
			return err
		}
		row := tx.QueryRow(ctx, `
UPDATE books
   SET title = $2, author = $3, year = $4, isbn = $5, updated_at = now()
 WHERE id = $1
RETURNING `+bookColumns,
			id, input.Title, input.Author, input.Year, input.ISBN,
		)
		updated, err = scanBook(row)
		if err != nil {
			return fmt.Errorf("update book: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *BookRepository) Delete(ctx context.Context, id int64) (err error) {
	ctx, done := observe(ctx, "delete_book")
	defer func() { done(err) }()

	tag, err := r.pool.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return books.ErrNotFound
	}
	return nil
}

// Counts reads all three aggregates from one snapshot so the total always
// matches the per-author and per-century sums.
func (r *BookRepository) Counts(ctx context.Context) (counts books.Counts, err error) {
	ctx, done := observe(ctx, "count_books")
	defer func() { done(err) }()

	snapshot := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
	err = withTxOptions(ctx, r.pool, snapshot, func(tx pgx.Tx) error {
		var txErr error
		counts, txErr = countBooks(ctx, tx)
		return txErr
	})
	if err != nil {
		return books.Counts{}, err
	}
	return counts, nil
}

func countBooks(ctx context.Context, q queryer) (books.Counts, error) {
	counts := books.Counts{ByAuthor: map[string]int64{}, ByCentury: map[int]int64{}}
	if err := q.QueryRow(ctx, `SELECT count(*) FROM books`).Scan(&counts.Total); err != nil {
		return books.Counts{}, fmt.Errorf("count books: %w", err)
	}

	authorRows, err := q.Query(ctx, `SELECT author, count(*) FROM books GROUP BY author`)
	if err != nil {
		return books.Counts{}, fmt.Errorf("count books by author: %w", err)
	}
	for authorRows.Next() {
		var author string
		var n int64
		if err := authorRows.Scan(&author, &n); err != nil {
			authorRows.Close()
			return books.Counts{}, fmt.Errorf("scan author count: %w", err)
		}
		counts.ByAuthor[author] = n
	}
	authorRows.Close()
	if err := authorRows.Err(); err != nil {
		return books.Counts{}, fmt.Errorf("iterate author counts: %w", err)
	}

	centuryRows, err := q.Query(ctx, `SELECT year / 100 + 1 AS century, count(*) FROM books GROUP BY century`)
	if err != nil {
		return books.Counts{}, fmt.Errorf("count books by century: %w", err)
	}
	defer centuryRows.Close()
	for centuryRows.Next() {
		var century int
		var n int64
		if err := centuryRows.Scan(&century, &n); err != nil {
			return books.Counts{}, fmt.Errorf("scan century count: %w", err)
		}
		counts.ByCentury[century] = n
	}
	if err := centuryRows.Err(); err != nil {
		return books.Counts{}, fmt.Errorf("iterate century counts: %w", err)
	}
	return counts, nil
}

// SeedIfEmpty bulk-loads inputs when the table has no rows. The table lock
// keeps two starting replicas from both seeding.
func (r *BookRepository) SeedIfEmpty(ctx context.Context, inputs []books.BookInput) (inserted int, err error) {
	ctx, done := observe(ctx, "seed_books")
	defer func() { done(err) }()

	err = withTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `LOCK TABLE books IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return fmt.Errorf("lock books: %w", err)
		}
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM books)`).Scan(&exists); err != nil {
			return fmt.Errorf("check books: %w", err)
		}
		if exists {
			return nil
		}

		rows := make([][]any, 0, len(inputs))
		for _, input := range inputs {
			rows = append(rows, []any{input.Title, input.Author, input.Year, input.ISBN})
		}
		n, err := tx.CopyFrom(ctx,
			pgx.Identifier{"books"},
			[]string{"title", "author", "year", "isbn"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("copy books: %w", err)
		}
		inserted = int(n)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func getBook(ctx context.Context, q queryer, id int64, forUpdate bool) (*books.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	book, err := scanBook(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, books.ErrNotFound
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	return &book, nil
}

func scanBook(row pgx.Row) (books.Book, error) {
	var book books.Book
	err := row.Scan(
		&book.ID,
		&book.Title,
		&book.Author,
		&book.Year,
		&book.ISBN,
		&book.CreatedAt,
		&book.UpdatedAt,
	)
	return book, err
}

// observe opens a span for a store operation and returns a func that closes
// it and records the query metrics. Not-found and rejected updates are
// expected outcomes and are not counted as errors.
func observe(ctx context.Context, operation string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := telemetry.GetTracer(tracerName).Start(ctx, "postgres."+operation)
	span.SetAttributes(attribute.String("db.system", "postgresql"), attribute.String("db.operation", operation))
	return ctx, func(err error) {
		var verr books.ValidationError
		if errors.Is(err, books.ErrNotFound) || errors.As(err, &verr) {
			err = nil
		}
		metrics.RecordQuery(operation, start, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

const tracerName = "github.com/Togather-Foundation/books/internal/storage/postgres"
