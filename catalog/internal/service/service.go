package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Astemirdum/local-library/catalog/internal/errs"
	"github.com/Astemirdum/local-library/catalog/internal/loan"
	"github.com/Astemirdum/local-library/catalog/internal/model"
	"github.com/Astemirdum/local-library/catalog/internal/repository"
	"github.com/Astemirdum/local-library/catalog/internal/search"
	"github.com/Astemirdum/local-library/pkg/auth"
	"github.com/Astemirdum/local-library/pkg/kafka"
)

const maxPageSize = 100

type Service struct {
	log       *zap.Logger
	repo      repository.Repository
	publisher kafka.Publisher
	now       func() time.Time
}

type Option func(s *Service)

// WithClock replaces time.Now, the source of "today" for loan rules.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(repo repository.Repository, publisher kafka.Publisher, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		log:       log.Named("service"),
		repo:      repo,
		publisher: publisher,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Today() model.Date {
	return model.DateOf(s.now())
}

func (s *Service) Counts(ctx context.Context) (model.Counts, error) {
	return s.repo.Counts(ctx)
}

func (s *Service) ListGenres(ctx context.Context) ([]model.Genre, error) {
	return s.repo.ListGenres(ctx)
}

func (s *Service) GetGenre(ctx context.Context, id int) (model.Genre, error) {
	return s.repo.GetGenre(ctx, id)
}

func (s *Service) CreateGenre(ctx context.Context, req model.GenreRequest) (model.Genre, error) {
	if err := requireLibrarian(ctx); err != nil {
		return model.Genre{}, err
	}
	return s.repo.CreateGenre(ctx, req)
}

func (s *Service) UpdateGenre(ctx context.Context, id int, req model.GenreRequest) (model.Genre, error) {
	if err := requireLibrarian(ctx); err != nil {
		return model.Genre{}, err
	}
	return s.repo.UpdateGenre(ctx, id, req)
}

func (s *Service) DeleteGenre(ctx context.Context, id int) error {
	if err := requireLibrarian(ctx); err != nil {
		return err
	}
	return s.repo.DeleteGenre(ctx, id)
}

func (s *Service) ListAuthors(ctx context.Context, page, size int) (model.ListAuthors, error) {
	page, size = normalizePage(page, size)
	return s.repo.ListAuthors(ctx, page, size)
}

func (s *Service) GetAuthor(ctx context.Context, id int) (model.AuthorDetail, error) {
	author, err := s.repo.GetAuthor(ctx, id)
	if err != nil {
		return model.AuthorDetail{}, err
	}
	books, err := s.repo.ListBooksByAuthor(ctx, id)
	if err != nil {
		return model.AuthorDetail{}, err
	}
	return model.AuthorDetail{Author: author, Books: books}, nil
}

func (s *Service) CreateAuthor(ctx context.Context, req model.AuthorRequest) (model.Author, error) {
	if err := requireLibrarian(ctx); err != nil {
		return model.Author{}, err
	}
	if err := validateLifespan(req); err != nil {
		return model.Author{}, err
	}
	return s.repo.CreateAuthor(ctx, req)
}

func (s *Service) UpdateAuthor(ctx context.Context, id int, req model.AuthorRequest) (model.Author, error) {
	if err := requireLibrarian(ctx); err != nil {
		return model.Author{}, err
	}
	if err := validateLifespan(req); err != nil {
		return model.Author{}, err
	}
	return s.repo.UpdateAuthor(ctx, id, req)
}

func (s *Service) DeleteAuthor(ctx context.Context, id int) error {
	if err := requireLibrarian(ctx); err != nil {
		return err
	}
	return s.repo.DeleteAuthor(ctx, id)
}

func (s *Service) ListBooks(ctx context.Context, page, size int) (model.ListBooks, error) {
	page, size = normalizePage(page, size)
	return s.repo.ListBooks(ctx, page, size)
}

// GetBook returns the book with its author and all of its copies.
func (s *Service) GetBook(ctx context.Context, id int) (model.BookDetail, error) {
	book, err := s.repo.GetBook(ctx, id)
	if err != nil {
		return model.BookDetail{}, err
	}
	detail := model.BookDetail{Book: book}

	gg, gctx := errgroup.WithContext(ctx)
	if book.AuthorID != nil {
		gg.Go(func() error {
			author, err := s.repo.GetAuthor(gctx, *book.AuthorID)
			if err != nil {
				return err
			}
			detail.Author = &author
			return nil
		})
	}
	gg.Go(func() error {
		list, err := s.repo.ListInstances(gctx, repository.InstanceFilter{BookID: id}, 0, 0)
		if err != nil {
			return err
		}
		detail.Instances = s.markOverdue(list.Items)
		return nil
	})
	if err := gg.Wait(); err != nil {
		return model.BookDetail{}, err
	}
	return detail, nil
}

func (s *Service) CreateBook(ctx context.Context, req model.BookRequest) (model.Book, error) {
	if err := requireLibrarian(ctx); err != nil {
		return model.Book{}, err
	}
	return s.repo.CreateBook(ctx, req)
}

func (s *Service) UpdateBook(ctx context.Context, id int, req model.BookRequest) (model.Book, error) {
	if err := requireLibrarian(ctx); err != nil {
		return model.Book{}, err
	}
	return s.repo.UpdateBook(ctx, id, req)
}

func (s *Service) DeleteBook(ctx context.Context, id int) error {
	if err := requireLibrarian(ctx); err != nil {
		return err
	}
	return s.repo.DeleteBook(ctx, id)
}

// SearchBooks returns no books for an empty query.
func (s *Service) SearchBooks(ctx context.Context, raw string) ([]model.Book, error) {
	q, err := search.ParseBookQuery(raw)
	if err != nil {
		if errors.Is(err, errs.ErrEmptyQuery) {
			return []model.Book{}, nil
		}
		return nil, err
	}
	return s.repo.SearchBooks(ctx, q)
}

// SearchAuthors returns no authors for an empty query.
func (s *Service) SearchAuthors(ctx context.Context, raw string) ([]model.Author, error) {
	q, err := search.ParseAuthorQuery(raw)
	if err != nil {
		if errors.Is(err, errs.ErrEmptyQuery) {
			return []model.Author{}, nil
		}
		return nil, err
	}
	return s.repo.SearchAuthors(ctx, q)
}

func (s *Service) DeleteUser(ctx context.Context, username string) error {
	if err := requireLibrarian(ctx); err != nil {
		return err
	}
	return s.repo.DeleteUser(ctx, username)
}

func (s *Service) GetInstance(ctx context.Context, id uuid.UUID) (model.BookInstance, error) {
	inst, err := s.repo.GetInstance(ctx, id)
	if err != nil {
		return model.BookInstance{}, err
	}
	return s.markOverdue([]model.BookInstance{inst})[0], nil
}

func (s *Service) markOverdue(items []model.BookInstance) []model.BookInstance {
	today := s.Today()
	for i := range items {
		items[i].IsOverdue = loan.IsOverdue(items[i], today)
	}
	return items
}

func requireLibrarian(ctx context.Context) error {
	if _, ok := auth.UserName(ctx); !ok {
		return errs.ErrUnauthenticated
	}
	if !auth.CanMarkReturned(ctx) {
		return errors.Wrap(errs.ErrForbidden, "librarian role required")
	}
	return nil
}

func validateLifespan(req model.AuthorRequest) error {
	if req.DateOfBirth != nil && req.DateOfDeath != nil && req.DateOfDeath.Before(*req.DateOfBirth) {
		return errs.NewValidationError("dateOfDeath", "date of death is before date of birth")
	}
	return nil
}

func normalizePage(page, size int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = model.DefaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}
