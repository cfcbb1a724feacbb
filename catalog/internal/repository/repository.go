package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Astemirdum/local-library/catalog/internal/errs"
	"github.com/Astemirdum/local-library/catalog/internal/model"
	"github.com/Astemirdum/local-library/catalog/internal/search"
)

//go:generate go run github.com/golang/mock/mockgen -source=repository.go -destination=mocks/mock.go

type Repository interface {
	Counts(ctx context.Context) (model.Counts, error)

	ListGenres(ctx context.Context) ([]model.Genre, error)
	GetGenre(ctx context.Context, id int) (model.Genre, error)
	CreateGenre(ctx context.Context, req model.GenreRequest) (model.Genre, error)
	UpdateGenre(ctx context.Context, id int, req model.GenreRequest) (model.Genre, error)
	DeleteGenre(ctx context.Context, id int) error

	ListAuthors(ctx context.Context, page, size int) (model.ListAuthors, error)
	GetAuthor(ctx context.Context, id int) (model.Author, error)
	CreateAuthor(ctx context.Context, req model.AuthorRequest) (model.Author, error)
	UpdateAuthor(ctx context.Context, id int, req model.AuthorRequest) (model.Author, error)
	DeleteAuthor(ctx context.Context, id int) error
	SearchAuthors(ctx context.Context, q search.AuthorQuery) ([]model.Author, error)

	ListBooks(ctx context.Context, page, size int) (model.ListBooks, error)
	ListBooksByAuthor(ctx context.Context, authorID int) ([]model.Book, error)
	GetBook(ctx context.Context, id int) (model.Book, error)
	CreateBook(ctx context.Context, req model.BookRequest) (model.Book, error)
	UpdateBook(ctx context.Context, id int, req model.BookRequest) (model.Book, error)
	DeleteBook(ctx context.Context, id int) error
	SearchBooks(ctx context.Context, q search.BookQuery) ([]model.Book, error)

	ListInstances(ctx context.Context, filter InstanceFilter, page, size int) (model.ListInstances, error)
	GetInstance(ctx context.Context, id uuid.UUID) (model.BookInstance, error)
	CreateInstance(ctx context.Context, inst model.BookInstance) (model.BookInstance, error)
	UpdateInstance(ctx context.Context, id uuid.UUID, fn func(inst *model.BookInstance) error) (model.BookInstance, error)
	DeleteInstance(ctx context.Context, id uuid.UUID) error

	DeleteUser(ctx context.Context, username string) error
}

type repository struct {
	db  *pgxpool.Pool
	log *zap.Logger
}

func NewRepository(db *pgxpool.Pool, log *zap.Logger) (*repository, error) {
	return &repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

const (
	genresTableName     = `genres`
	authorsTableName    = `authors`
	booksTableName      = `books`
	bookGenresTableName = `book_genres`
	instancesTableName  = `book_instances`
	usersTableName      = `users`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Counts runs the catalog home counters concurrently on the pool.
func (r *repository) Counts(ctx context.Context) (model.Counts, error) {
	var counts model.Counts
	gg, ctx := errgroup.WithContext(ctx)
	count := func(dst *int, table string, where sq.Sqlizer) {
		gg.Go(func() error {
			q := qb.Select("count(*)").From(table)
			if where != nil {
				q = q.Where(where)
			}
			query, args, err := q.ToSql()
			if err != nil {
				return err
			}
			return r.db.QueryRow(ctx, query, args...).Scan(dst)
		})
	}
	count(&counts.Books, booksTableName, nil)
	count(&counts.Instances, instancesTableName, nil)
	count(&counts.InstancesAvailable, instancesTableName, sq.Eq{"status": model.StatusAvailable.Code()})
	count(&counts.Authors, authorsTableName, nil)
	count(&counts.Genres, genresTableName, nil)

	if err := gg.Wait(); err != nil {
		return model.Counts{}, fmt.Errorf("counts: %w", err)
	}
	return counts, nil
}

func (r *repository) DeleteUser(ctx context.Context, username string) error {
	query, args, err := qb.Delete(usersTableName).Where(sq.Eq{"username": username}).ToSql()
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *repository) count(ctx context.Context, q sq.SelectBuilder) (int, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return 0, err
	}
	var total int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func paginate(q sq.SelectBuilder, page, size int) sq.SelectBuilder {
	if page > 0 && size > 0 {
		q = q.Limit(uint64(size)).Offset(uint64((page - 1) * size))
	}
	return q
}

// mapErr translates driver errors into the errs taxonomy.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return errs.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return errors.Wrap(errs.ErrDuplicate, pgErr.ConstraintName)
		case pgerrcode.ForeignKeyViolation, pgerrcode.RestrictViolation:
			return errors.Wrap(errs.ErrRestricted, pgErr.ConstraintName)
		}
	}
	return err
}

// mapRefErr is mapErr for inserts and updates, where a foreign key violation
// means the referenced record does not exist.
func mapRefErr(err error, field string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
		return errs.NewValidationError(field, "referenced record does not exist")
	}
	return mapErr(err)
}
