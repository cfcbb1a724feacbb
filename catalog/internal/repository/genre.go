package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/Astemirdum/local-library/catalog/internal/errs"
	"github.com/Astemirdum/local-library/catalog/internal/model"
)

func (r *repository) ListGenres(ctx context.Context) ([]model.Genre, error) {
	query, args, err := qb.Select("id", "name").
		From(genresTableName).
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[model.Genre])
}

func (r *repository) GetGenre(ctx context.Context, id int) (model.Genre, error) {
	query, args, err := qb.Select("id", "name").
		From(genresTableName).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return model.Genre{}, err
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return model.Genre{}, err
	}
	genre, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Genre])
	if err != nil {
		return model.Genre{}, mapErr(err)
	}
	return genre, nil
}

func (r *repository) CreateGenre(ctx context.Context, req model.GenreRequest) (model.Genre, error) {
	query, args, err := qb.Insert(genresTableName).
		Columns("name").
		Values(req.Name).
		Suffix("returning id, name").
		ToSql()
	if err != nil {
		return model.Genre{}, err
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return model.Genre{}, err
	}
	genre, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Genre])
	if err != nil {
		return model.Genre{}, mapErr(err)
	}
	return genre, nil
}

func (r *repository) UpdateGenre(ctx context.Context, id int, req model.GenreRequest) (model.Genre, error) {
	query, args, err := qb.Update(genresTableName).
		Set("name", req.Name).
		Where(sq.Eq{"id": id}).
		Suffix("returning id, name").
		ToSql()
	if err != nil {
		return model.Genre{}, err
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return model.Genre{}, err
	}
	genre, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Genre])
	if err != nil {
		return model.Genre{}, mapErr(err)
	}
	return genre, nil
}

// DeleteGenre unlinks the genre from its books.
func (r *repository) DeleteGenre(ctx context.Context, id int) error {
	query, args, err := qb.Delete(genresTableName).Where(sq.Eq{"id": id}).ToSql()
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
