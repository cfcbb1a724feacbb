package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/Astemirdum/local-library/catalog/internal/errs"
	"github.com/Astemirdum/local-library/catalog/internal/model"
	"github.com/Astemirdum/local-library/catalog/internal/search"
)

var bookColumns = []string{"b.id", "b.title", "b.author_id", "b.summary", "b.isbn", "b.release_day", "b.cover_image"}

const bookReturning = "returning id, title, author_id, summary, isbn, release_day, cover_image"

func (r *repository) ListBooks(ctx context.Context, page, size int) (model.ListBooks, error) {
	total, err := r.count(ctx, qb.Select("count(*)").From(booksTableName))
	if err != nil {
		return model.ListBooks{}, err
	}

	q := paginate(qb.Select(bookColumns...).From(booksTableName+" b").OrderBy("b.title", "b.id"), page, size)
	books, err := r.selectBooks(ctx, r.db, q)
	if err != nil {
		return model.ListBooks{}, err
	}
	return model.ListBooks{
		Paging: model.Paging{
			Page:          page,
			PageSize:      size,
			TotalElements: total,
		},
		Items: books,
	}, nil
}

func (r *repository) ListBooksByAuthor(ctx context.Context, authorID int) ([]model.Book, error) {
	return r.selectBooks(ctx, r.db, qb.Select(bookColumns...).
		From(booksTableName+" b").
		Where(sq.Eq{"b.author_id": authorID}).
		OrderBy("b.title", "b.id"))
}

func (r *repository) GetBook(ctx context.Context, id int) (model.Book, error) {
	return r.getBook(ctx, r.db, id)
}

func (r *repository) SearchBooks(ctx context.Context, q search.BookQuery) ([]model.Book, error) {
	return r.selectBooks(ctx, r.db, qb.Select(bookColumns...).
		Distinct().
		From(booksTableName+" b").
		LeftJoin(authorsTableName+" a on a.id = b.author_id").
		LeftJoin(bookGenresTableName+" bg on bg.book_id = b.id").
		LeftJoin(genresTableName+" g on g.id = bg.genre_id").
		Where(q.Where()).
		OrderBy("b.title", "b.id"))
}

func (r *repository) CreateBook(ctx context.Context, req model.BookRequest) (model.Book, error) {
	var book model.Book
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		query, args, err := qb.Insert(booksTableName).
			Columns("title", "author_id", "summary", "isbn", "release_day", "cover_image").
			Values(req.Title, req.AuthorID, req.Summary, req.ISBN, req.ReleaseDay, req.CoverImage).
			Suffix(bookReturning).
			ToSql()
		if err != nil {
			return err
		}
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		if book, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Book]); err != nil {
			return mapRefErr(err, "authorId")
		}
		if err = linkGenres(ctx, tx, book.ID, req.GenreIDs); err != nil {
			return err
		}
		book.Genres, err = r.loadGenres(ctx, tx, book.ID)
		return err
	})
	if err != nil {
		r.log.Error("CreateBook", zap.String("isbn", req.ISBN), zap.Error(err))
		return model.Book{}, mapErr(err)
	}
	return book, nil
}

func (r *repository) UpdateBook(ctx context.Context, id int, req model.BookRequest) (model.Book, error) {
	var book model.Book
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		query, args, err := qb.Update(booksTableName).
			SetMap(map[string]interface{}{
				"title":       req.Title,
				"author_id":   req.AuthorID,
				"summary":     req.Summary,
				"isbn":        req.ISBN,
				"release_day": req.ReleaseDay,
				"cover_image": req.CoverImage,
			}).
			Where(sq.Eq{"id": id}).
			Suffix(bookReturning).
			ToSql()
		if err != nil {
			return err
		}
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		if book, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Book]); err != nil {
			return mapRefErr(err, "authorId")
		}

		query, args, err = qb.Delete(bookGenresTableName).Where(sq.Eq{"book_id": id}).ToSql()
		if err != nil {
			return err
		}
		if _, err = tx.Exec(ctx, query, args...); err != nil {
			return err
		}
		if err = linkGenres(ctx, tx, id, req.GenreIDs); err != nil {
			return err
		}
		book.Genres, err = r.loadGenres(ctx, tx, id)
		return err
	})
	if err != nil {
		return model.Book{}, mapErr(err)
	}
	return book, nil
}

// DeleteBook fails with errs.ErrRestricted while instances of the book exist.
func (r *repository) DeleteBook(ctx context.Context, id int) error {
	query, args, err := qb.Delete(booksTableName).Where(sq.Eq{"id": id}).ToSql()
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

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *repository) getBook(ctx context.Context, db querier, id int) (model.Book, error) {
	books, err := r.selectBooks(ctx, db, qb.Select(bookColumns...).
		From(booksTableName+" b").
		Where(sq.Eq{"b.id": id}))
	if err != nil {
		return model.Book{}, err
	}
	if len(books) == 0 {
		return model.Book{}, errs.ErrNotFound
	}
	return books[0], nil
}

func (r *repository) selectBooks(ctx context.Context, db querier, q sq.SelectBuilder) ([]model.Book, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	r.log.Debug("selectBooks", zap.String("query", query), zap.Any("args", args))

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	books, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Book])
	if err != nil {
		return nil, fmt.Errorf("pgx.CollectRows: %w", err)
	}
	if len(books) == 0 {
		return books, nil
	}

	ids := make([]int, 0, len(books))
	for _, b := range books {
		ids = append(ids, b.ID)
	}
	byBook, err := r.genresByBook(ctx, db, ids)
	if err != nil {
		return nil, err
	}
	for i := range books {
		books[i].Genres = byBook[books[i].ID]
	}
	return books, nil
}

func (r *repository) loadGenres(ctx context.Context, db querier, bookID int) ([]model.Genre, error) {
	byBook, err := r.genresByBook(ctx, db, []int{bookID})
	if err != nil {
		return nil, err
	}
	return byBook[bookID], nil
}

func (r *repository) genresByBook(ctx context.Context, db querier, bookIDs []int) (map[int][]model.Genre, error) {
	query, args, err := qb.Select("bg.book_id", "g.id", "g.name").
		From(bookGenresTableName + " bg").
		Join(genresTableName + " g on g.id = bg.genre_id").
		Where(sq.Eq{"bg.book_id": bookIDs}).
		OrderBy("g.name").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byBook := make(map[int][]model.Genre, len(bookIDs))
	for rows.Next() {
		var (
			bookID int
			g      model.Genre
		)
		if err := rows.Scan(&bookID, &g.ID, &g.Name); err != nil {
			return nil, err
		}
		byBook[bookID] = append(byBook[bookID], g)
	}
	return byBook, rows.Err()
}

func linkGenres(ctx context.Context, tx pgx.Tx, bookID int, genreIDs []int) error {
	if len(genreIDs) == 0 {
		return nil
	}
	ins := qb.Insert(bookGenresTableName).Columns("book_id", "genre_id")
	for _, id := range genreIDs {
		ins = ins.Values(bookID, id)
	}
	query, args, err := ins.Suffix("on conflict do nothing").ToSql()
	if err != nil {
		return err
	}
	if _, err = tx.Exec(ctx, query, args...); err != nil {
		return mapRefErr(err, "genreIds")
	}
	return nil
}
