// Package search turns raw keyword input into squirrel predicates for the book and author lookups.
package search

import (
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/Astemirdum/local-library/catalog/internal/errs"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type BookQuery struct {
	Term string
}

// ParseBookQuery trims the input. An empty query matches nothing and is reported as errs.ErrEmptyQuery.
func ParseBookQuery(raw string) (BookQuery, error) {
	term := strings.TrimSpace(raw)
	if term == "" {
		return BookQuery{}, errs.ErrEmptyQuery
	}
	return BookQuery{Term: term}, nil
}

// Where matches a title substring (case-insensitive) or an exact genre, author first or last name.
// Column aliases: b books, g genres, a authors.
func (q BookQuery) Where() sq.Sqlizer {
	return sq.Or{
		sq.ILike{"b.title": "%" + likeEscaper.Replace(q.Term) + "%"},
		sq.Eq{"g.name": q.Term},
		sq.Eq{"a.first_name": q.Term},
		sq.Eq{"a.last_name": q.Term},
	}
}

type AuthorQuery struct {
	Term string
	// Year is set when the term is all digits.
	Year *int
}

func ParseAuthorQuery(raw string) (AuthorQuery, error) {
	term := strings.TrimSpace(raw)
	if term == "" {
		return AuthorQuery{}, errs.ErrEmptyQuery
	}
	q := AuthorQuery{Term: term}
	if isDigits(term) {
		year, err := strconv.Atoi(term)
		if err != nil {
			return AuthorQuery{}, errs.NewValidationError("author", "year is out of range")
		}
		q.Year = &year
	}
	return q, nil
}

func (q AuthorQuery) Where() sq.Sqlizer {
	or := sq.Or{
		sq.Eq{"first_name": q.Term},
		sq.Eq{"last_name": q.Term},
	}
	if q.Year != nil {
		or = append(or, sq.Expr("extract(year from date_of_birth) = ?", *q.Year))
	}
	return or
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
