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

var authorColumns = []string{"id", "first_name", "last_name", "date_of_birth", "date_of_death"}

const authorsOrder = "last_name, first_name, id"

func (r *repository) ListAuthors(ctx context.Context, page, size int) (model.ListAuthors, error) {
	total, err := r.count(ctx, qb.Select("count(*)").From(authorsTableName))
	if err != nil {
		return model.ListAuthors{}, err
	}

	q := paginate(qb.Select(authorColumns...).From(authorsTableName).OrderBy(authorsOrder), page, size)
	authors, err := r.selectAuthors(ctx, q)
	if err != nil {
		return model.ListAuthors{}, err
	}
	return model.ListAuthors{
		Paging: model.Paging{
			Page:          page,
			PageSize:      size,
			TotalElements: total,
		},
		Items: authors,
	}, nil
}

func (r *repository) GetAuthor(ctx context.Context, id int) (model.Author, error) {
	query, args, err := qb.Select(authorColumns...).
		From(authorsTableName).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return model.Author{}, err
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return model.Author{}, err
	}
	author, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Author])
	if err != nil {
		return model.Author{}, mapErr(err)
	}
	return author, nil
}

func (r *repository) CreateAuthor(ctx context.Context, req model.AuthorRequest) (model.Author, error) {
	query, args, err := qb.Insert(authorsTableName).
		Columns("first_name", "last_name", "date_of_birth", "date_of_death").
		Values(req.FirstName, req.LastName, req.DateOfBirth, req.DateOfDeath).
		Suffix("returning id, first_name, last_name, date_of_birth, date_of_death").
		ToSql()
	if err != nil {
		return model.Author{}, err
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return model.Author{}, err
	}
	author, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Author])
	if err != nil {
		r.log.Error("CreateAuthor", zap.String("q", query), zap.Error(err))
		return model.Author{}, mapErr(err)
	}
	return author, nil
}

func (r *repository) UpdateAuthor(ctx context.Context, id int, req model.AuthorRequest) (model.Author, error) {
	query, args, err := qb.Update(authorsTableName).
		SetMap(map[string]interface{}{
			"first_name":    req.FirstName,
			"last_name":     req.LastName,
			"date_of_birth": req.DateOfBirth,
			"date_of_death": req.DateOfDeath,
		}).
		Where(sq.Eq{"id": id}).
		Suffix("returning id, first_name, last_name, date_of_birth, date_of_death").
		ToSql()
	if err != nil {
		return model.Author{}, err
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return model.Author{}, err
	}
	author, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Author])
	if err != nil {
		return model.Author{}, mapErr(err)
	}
	return author, nil
}

// DeleteAuthor keeps the author's books; their author_id is set to null by the schema.
func (r *repository) DeleteAuthor(ctx context.Context, id int) error {
	query, args, err := qb.Delete(authorsTableName).Where(sq.Eq{"id": id}).ToSql()
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

func (r *repository) SearchAuthors(ctx context.Context, q search.AuthorQuery) ([]model.Author, error) {
	return r.selectAuthors(ctx, qb.Select(authorColumns...).
		From(authorsTableName).
		Where(q.Where()).
		OrderBy(authorsOrder))
}

func (r *repository) selectAuthors(ctx context.Context, q sq.SelectBuilder) ([]model.Author, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	r.log.Debug("selectAuthors", zap.String("query", query), zap.Any("args", args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	authors, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Author])
	if err != nil {
		return nil, fmt.Errorf("pgx.CollectRows: %w", err)
	}
	return authors, nil
}
