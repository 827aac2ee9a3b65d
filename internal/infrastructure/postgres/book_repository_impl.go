package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"booktrack/internal/domain/entity"
	"booktrack/internal/domain/repository"
)

type BookRepository struct {
	pool *pgxpool.Pool
}

func NewBookRepository(pool *pgxpool.Pool) *BookRepository {
	return &BookRepository{pool: pool}
}

func (r *BookRepository) Create(ctx context.Context, b *entity.Book) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO books (title, author, genre, description, link)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, b.Title, b.Author, b.Genre, b.Description, b.Link)
	return row.Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

func (r *BookRepository) GetByID(ctx context.Context, id string) (*entity.Book, error) {
	b := &entity.Book{}
	row := r.pool.QueryRow(ctx, `
		SELECT id, title, author, genre, description, link, COALESCE(cover_url, ''), created_at, updated_at
		FROM books
		WHERE id = $1
	`, id)
	if err := row.Scan(&b.ID, &b.Title, &b.Author, &b.Genre, &b.Description,
		&b.Link, &b.CoverURL, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (r *BookRepository) List(ctx context.Context) ([]entity.Book, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, title, author, genre, description, link, COALESCE(cover_url, ''), created_at, updated_at
		FROM books
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := make([]entity.Book, 0)
	for rows.Next() {
		var b entity.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Genre, &b.Description,
			&b.Link, &b.CoverURL, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

func (r *BookRepository) Update(ctx context.Context, b *entity.Book) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE books
		SET title = $1, author = $2, genre = $3, description = $4, link = $5, updated_at = now()
		WHERE id = $6
	`, b.Title, b.Author, b.Genre, b.Description, b.Link, b.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *BookRepository) Delete(ctx context.Context, id string) error {
	res, err := r.pool.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *BookRepository) SetCoverURL(ctx context.Context, id, url string) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE books SET cover_url = $1, updated_at = now() WHERE id = $2
	`, url, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.BookRepository = (*BookRepository)(nil)
