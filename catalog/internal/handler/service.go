package handler

import (
	"context"

	"github.com/google/uuid"

	"github.com/Astemirdum/local-library/catalog/internal/model"
	"github.com/Astemirdum/local-library/catalog/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type CatalogService interface {
	Counts(ctx context.Context) (model.Counts, error)

	ListGenres(ctx context.Context) ([]model.Genre, error)
	GetGenre(ctx context.Context, id int) (model.Genre, error)
	CreateGenre(ctx context.Context, req model.GenreRequest) (model.Genre, error)
	UpdateGenre(ctx context.Context, id int, req model.GenreRequest) (model.Genre, error)
	DeleteGenre(ctx context.Context, id int) error

	ListAuthors(ctx context.Context, page, size int) (model.ListAuthors, error)
	GetAuthor(ctx context.Context, id int) (model.AuthorDetail, error)
	CreateAuthor(ctx context.Context, req model.AuthorRequest) (model.Author, error)
	UpdateAuthor(ctx context.Context, id int, req model.AuthorRequest) (model.Author, error)
	DeleteAuthor(ctx context.Context, id int) error

	ListBooks(ctx context.Context, page, size int) (model.ListBooks, error)
	GetBook(ctx context.Context, id int) (model.BookDetail, error)
	CreateBook(ctx context.Context, req model.BookRequest) (model.Book, error)
	UpdateBook(ctx context.Context, id int, req model.BookRequest) (model.Book, error)
	DeleteBook(ctx context.Context, id int) error

	SearchBooks(ctx context.Context, raw string) ([]model.Book, error)
	SearchAuthors(ctx context.Context, raw string) ([]model.Author, error)

	GetInstance(ctx context.Context, id uuid.UUID) (model.BookInstance, error)
	CreateInstance(ctx context.Context, req model.InstanceRequest) (model.BookInstance, error)
	UpdateInstance(ctx context.Context, id uuid.UUID, req model.InstanceRequest) (model.BookInstance, error)
	DeleteInstance(ctx context.Context, id uuid.UUID) error

	ProposeBorrow(ctx context.Context, id uuid.UUID) (model.ProposedDate, error)
	Borrow(ctx context.Context, id uuid.UUID, due model.Date) (model.BookInstance, error)
	ProposeRenewal(ctx context.Context, id uuid.UUID) (model.ProposedDate, error)
	Renew(ctx context.Context, id uuid.UUID, due model.Date) (model.BookInstance, error)
	Return(ctx context.Context, id uuid.UUID) (model.BookInstance, error)
	MyLoans(ctx context.Context, page, size int) (model.ListInstances, error)
	AllLoans(ctx context.Context, page, size int) (model.ListInstances, error)

	DeleteUser(ctx context.Context, username string) error
}

var _ CatalogService = (*service.Service)(nil)
