package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"booktrack/internal/domain/entity"
	"booktrack/internal/domain/repository"
)

// LibraryRepository stores library entries one row per (user, book). The
// UNIQUE (user_id, book_id) index makes uniqueness a schema guarantee, and
// every mutation is one atomic statement, so two concurrent requests for the
// same user cannot lose each other's writes the way a whole-document
// read-modify-write would.
type LibraryRepository struct {
	pool *pgxpool.Pool
}

func NewLibraryRepository(pool *pgxpool.Pool) *LibraryRepository {
	return &LibraryRepository{pool: pool}
}

func (r *LibraryRepository) List(ctx context.Context, userID string) ([]entity.LibraryEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT book_id, title, author, genre, description, link, status
		FROM library_entries
		WHERE user_id = $1
		ORDER BY ordinal
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]entity.LibraryEntry, 0)
	for rows.Next() {
		var e entity.LibraryEntry
		if err := rows.Scan(&e.BookID, &e.Title, &e.Author, &e.Genre,
			&e.Description, &e.Link, &e.Status); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Upsert appends a new entry (next ordinal) or fully overwrites the existing
// entry for the same book in place. Overwrite means overwrite: fields absent
// from e replace whatever was stored.
func (r *LibraryRepository) Upsert(ctx context.Context, userID string, e entity.LibraryEntry) (bool, error) {
	var inserted bool
	row := r.pool.QueryRow(ctx, `
		INSERT INTO library_entries (user_id, book_id, title, author, genre, description, link, status, ordinal)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8,
			(SELECT COALESCE(MAX(ordinal), 0) + 1 FROM library_entries WHERE user_id = $1))
		ON CONFLICT (user_id, book_id) DO UPDATE
		SET title = EXCLUDED.title,
		    author = EXCLUDED.author,
		    genre = EXCLUDED.genre,
		    description = EXCLUDED.description,
		    link = EXCLUDED.link,
		    status = EXCLUDED.status,
		    updated_at = now()
		RETURNING (xmax = 0)
	`, userID, e.BookID, e.Title, e.Author, e.Genre, e.Description, e.Link, e.Status)
	if err := row.Scan(&inserted); err != nil {
		return false, err
	}
	return inserted, nil
}

func (r *LibraryRepository) UpdateStatus(ctx context.Context, userID, bookID, status string) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE library_entries
		SET status = $1, updated_at = now()
		WHERE user_id = $2 AND book_id = $3
	`, status, userID, bookID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *LibraryRepository) Remove(ctx context.Context, userID, bookID string) error {
	res, err := r.pool.Exec(ctx, `
		DELETE FROM library_entries
		WHERE user_id = $1 AND book_id = $2
	`, userID, bookID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.LibraryRepository = (*LibraryRepository)(nil)
