package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/Astemirdum/local-library/catalog/internal/errs"
	"github.com/Astemirdum/local-library/catalog/internal/model"
)

// InstanceFilter narrows instance listings. Zero values match everything.
type InstanceFilter struct {
	BookID   int
	Borrower string
	Status   model.Status
}

func (f InstanceFilter) where() sq.And {
	and := sq.And{}
	if f.BookID != 0 {
		and = append(and, sq.Eq{"i.book_id": f.BookID})
	}
	if f.Borrower != "" {
		and = append(and, sq.Eq{"i.borrower": f.Borrower})
	}
	if f.Status != "" {
		and = append(and, sq.Eq{"i.status": f.Status.Code()})
	}
	return and
}

func instanceSelect() sq.SelectBuilder {
	return qb.Select("i.id", "i.book_id", "b.title", "i.imprint", "i.due_back", "i.borrower", "i.status").
		From(instancesTableName + " i").
		Join(booksTableName + " b on b.id = i.book_id")
}

// instancesOrder puts copies without a due date first.
const instancesOrder = "i.due_back asc nulls first, i.id"

func scanInstance(row pgx.CollectableRow) (model.BookInstance, error) {
	var (
		inst   model.BookInstance
		status string
	)
	if err := row.Scan(&inst.ID, &inst.BookID, &inst.BookTitle, &inst.Imprint, &inst.DueBack, &inst.Borrower, &status); err != nil {
		return model.BookInstance{}, err
	}
	inst.Status = model.StatusFromCode(status)
	return inst, nil
}

func (r *repository) ListInstances(ctx context.Context, filter InstanceFilter, page, size int) (model.ListInstances, error) {
	where := filter.where()
	total, err := r.count(ctx, qb.Select("count(*)").From(instancesTableName+" i").Where(where))
	if err != nil {
		return model.ListInstances{}, err
	}

	query, args, err := paginate(instanceSelect().Where(where).OrderBy(instancesOrder), page, size).ToSql()
	if err != nil {
		return model.ListInstances{}, err
	}
	r.log.Debug("ListInstances", zap.String("query", query), zap.Any("args", args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return model.ListInstances{}, err
	}
	items, err := pgx.CollectRows(rows, scanInstance)
	if err != nil {
		return model.ListInstances{}, fmt.Errorf("pgx.CollectRows: %w", err)
	}
	return model.ListInstances{
		Paging: model.Paging{
			Page:          page,
			PageSize:      size,
			TotalElements: total,
		},
		Items: items,
	}, nil
}

func (r *repository) GetInstance(ctx context.Context, id uuid.UUID) (model.BookInstance, error) {
	query, args, err := instanceSelect().Where(sq.Eq{"i.id": id}).ToSql()
	if err != nil {
		return model.BookInstance{}, err
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return model.BookInstance{}, err
	}
	inst, err := pgx.CollectOneRow(rows, scanInstance)
	if err != nil {
		return model.BookInstance{}, mapErr(err)
	}
	return inst, nil
}

func (r *repository) CreateInstance(ctx context.Context, inst model.BookInstance) (model.BookInstance, error) {
	if inst.ID == uuid.Nil {
		inst.ID = uuid.New()
	}
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		query, args, err := qb.Insert(instancesTableName).
			Columns("id", "book_id", "imprint", "due_back", "borrower", "status").
			Values(inst.ID, inst.BookID, inst.Imprint, inst.DueBack, inst.Borrower, inst.Status.Code()).
			ToSql()
		if err != nil {
			return err
		}
		if _, err = tx.Exec(ctx, query, args...); err != nil {
			return mapRefErr(err, "bookId")
		}
		book, err := r.getBook(ctx, tx, inst.BookID)
		if err != nil {
			return err
		}
		inst.BookTitle = book.Title
		return nil
	})
	if err != nil {
		return model.BookInstance{}, mapErr(err)
	}
	return inst, nil
}

// UpdateInstance locks the instance row, applies fn and writes the result back in one transaction.
// When fn fails nothing is written.
func (r *repository) UpdateInstance(ctx context.Context, id uuid.UUID, fn func(inst *model.BookInstance) error) (model.BookInstance, error) {
	var inst model.BookInstance
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		query, args, err := instanceSelect().
			Where(sq.Eq{"i.id": id}).
			Suffix("for update of i").
			ToSql()
		if err != nil {
			return err
		}
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		if inst, err = pgx.CollectOneRow(rows, scanInstance); err != nil {
			return mapErr(err)
		}

		if err = fn(&inst); err != nil {
			return err
		}

		if inst.Borrower != nil {
			if err = ensureUser(ctx, tx, *inst.Borrower); err != nil {
				return err
			}
		}
		query, args, err = qb.Update(instancesTableName).
			SetMap(map[string]interface{}{
				"imprint":  inst.Imprint,
				"due_back": inst.DueBack,
				"borrower": inst.Borrower,
				"status":   inst.Status.Code(),
			}).
			Where(sq.Eq{"id": id}).
			ToSql()
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, query, args...)
		return err
	})
	if err != nil {
		return model.BookInstance{}, mapErr(err)
	}
	return inst, nil
}

func (r *repository) DeleteInstance(ctx context.Context, id uuid.UUID) error {
	query, args, err := qb.Delete(instancesTableName).Where(sq.Eq{"id": id}).ToSql()
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

func ensureUser(ctx context.Context, tx pgx.Tx, username string) error {
	query, args, err := qb.Insert(usersTableName).
		Columns("username").
		Values(username).
		Suffix("on conflict (username) do nothing").
		ToSql()
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, query, args...)
	return err
}
