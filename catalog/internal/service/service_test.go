package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/local-library/catalog/internal/errs"
	"github.com/Astemirdum/local-library/catalog/internal/loan"
	"github.com/Astemirdum/local-library/catalog/internal/model"
	"github.com/Astemirdum/local-library/catalog/internal/repository"
	repo_mocks "github.com/Astemirdum/local-library/catalog/internal/repository/mocks"
	"github.com/Astemirdum/local-library/catalog/internal/search"
	"github.com/Astemirdum/local-library/catalog/internal/service"
	"github.com/Astemirdum/local-library/pkg/auth"
	"github.com/Astemirdum/local-library/pkg/kafka"
)

var (
	now   = time.Date(2024, time.March, 10, 15, 4, 5, 0, time.UTC)
	today = model.DateOf(now)
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []kafka.EventLoan
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event kafka.EventLoan) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func newService(t *testing.T) (*service.Service, *repo_mocks.MockRepository, *recordingPublisher) {
	t.Helper()
	c := gomock.NewController(t)
	repo := repo_mocks.NewMockRepository(c)
	pub := &recordingPublisher{}
	svc := service.NewService(repo, pub, zap.NewExample().Named("test"),
		service.WithClock(func() time.Time { return now }))
	return svc, repo, pub
}

func asUser(name string) context.Context {
	return auth.SetAuthContext(context.Background(), name, auth.RoleUser)
}

func asLibrarian(name string) context.Context {
	return auth.SetAuthContext(context.Background(), name, auth.RoleLibrarian)
}

func ptr[T any](v T) *T { return &v }

// expectUpdate runs the transactional callback against stored like the repository does.
func expectUpdate(repo *repo_mocks.MockRepository, id uuid.UUID, stored model.BookInstance) {
	repo.EXPECT().
		UpdateInstance(gomock.Any(), id, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, fn func(*model.BookInstance) error) (model.BookInstance, error) {
			inst := stored
			if err := fn(&inst); err != nil {
				return model.BookInstance{}, err
			}
			return inst, nil
		})
}

func TestService_Borrow(t *testing.T) {
	t.Parallel()
	id := uuid.New()
	tests := []struct {
		name    string
		ctx     context.Context
		status  model.Status
		due     model.Date
		mock    bool
		wantErr error
	}{
		{name: "ok", ctx: asUser("alice"), status: model.StatusAvailable, due: today.AddDays(21), mock: true},
		{name: "due today", ctx: asUser("alice"), status: model.StatusAvailable, due: today, mock: true},
		{name: "anonymous", ctx: context.Background(), status: model.StatusAvailable, due: today, wantErr: errs.ErrUnauthenticated},
		{name: "in past", ctx: asUser("alice"), status: model.StatusAvailable, due: today.AddDays(-1), wantErr: loan.ErrBorrowInPast},
		{name: "already on loan", ctx: asUser("alice"), status: model.StatusOnLoan, due: today.AddDays(3), mock: true, wantErr: errs.ErrValidation},
		{name: "maintenance", ctx: asUser("alice"), status: model.StatusMaintenance, due: today.AddDays(3), mock: true, wantErr: errs.ErrValidation},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, repo, pub := newService(t)
			if tt.mock {
				expectUpdate(repo, id, model.BookInstance{ID: id, BookID: 7, Imprint: "Tor, 2001", Status: tt.status})
			}

			inst, err := svc.Borrow(tt.ctx, id, tt.due)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Empty(t, pub.events)
				return
			}
			require.NoError(t, err)
			require.Equal(t, model.StatusOnLoan, inst.Status)
			require.Equal(t, "alice", *inst.Borrower)
			require.True(t, tt.due.Equal(*inst.DueBack))
			require.Len(t, pub.events, 1)
			require.Equal(t, kafka.EventBorrowed, pub.events[0].EventType)
			require.Equal(t, "alice", pub.events[0].UserName)
			require.Equal(t, 7, pub.events[0].BookID)
		})
	}
}

func TestService_Borrow_PublishFailureIsIgnored(t *testing.T) {
	t.Parallel()
	svc, repo, pub := newService(t)
	pub.err = errors.New("broker down")
	id := uuid.New()
	expectUpdate(repo, id, model.BookInstance{ID: id, BookID: 1, Status: model.StatusAvailable})

	inst, err := svc.Borrow(asUser("bob"), id, today.AddDays(1))
	require.NoError(t, err)
	require.Equal(t, model.StatusOnLoan, inst.Status)
}

func TestService_Renew(t *testing.T) {
	t.Parallel()
	id := uuid.New()
	stored := model.BookInstance{
		ID:       id,
		BookID:   3,
		Status:   model.StatusOnLoan,
		DueBack:  ptr(today.AddDays(-2)),
		Borrower: ptr("alice"),
	}
	tests := []struct {
		name    string
		ctx     context.Context
		due     model.Date
		mock    bool
		wantErr error
	}{
		{name: "ok", ctx: asLibrarian("lib"), due: today.AddDays(28), mock: true},
		{name: "anonymous", ctx: context.Background(), due: today, wantErr: errs.ErrUnauthenticated},
		{name: "not librarian", ctx: asUser("alice"), due: today, wantErr: errs.ErrForbidden},
		{name: "past", ctx: asLibrarian("lib"), due: today.AddDays(-1), wantErr: loan.ErrRenewalInPast},
		{name: "too far", ctx: asLibrarian("lib"), due: today.AddDays(29), wantErr: loan.ErrRenewalTooFar},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, repo, pub := newService(t)
			if tt.mock {
				expectUpdate(repo, id, stored)
			}

			inst, err := svc.Renew(tt.ctx, id, tt.due)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.True(t, tt.due.Equal(*inst.DueBack))
			require.Equal(t, "alice", *inst.Borrower)
			require.Equal(t, model.StatusOnLoan, inst.Status)
			require.False(t, inst.IsOverdue)
			require.Len(t, pub.events, 1)
			require.Equal(t, kafka.EventRenewed, pub.events[0].EventType)
		})
	}
}

func TestService_Return(t *testing.T) {
	t.Parallel()
	id := uuid.New()
	onLoan := model.BookInstance{
		ID:       id,
		BookID:   3,
		Status:   model.StatusOnLoan,
		DueBack:  ptr(today.AddDays(5)),
		Borrower: ptr("alice"),
	}
	tests := []struct {
		name    string
		ctx     context.Context
		stored  model.BookInstance
		mock    bool
		wantErr error
	}{
		{name: "borrower", ctx: asUser("alice"), stored: onLoan, mock: true},
		{name: "librarian", ctx: asLibrarian("lib"), stored: onLoan, mock: true},
		{name: "librarian returns maintenance copy", ctx: asLibrarian("lib"), stored: model.BookInstance{ID: id, Status: model.StatusMaintenance}, mock: true},
		{name: "someone else", ctx: asUser("mallory"), stored: onLoan, mock: true, wantErr: errs.ErrForbidden},
		{name: "anonymous", ctx: context.Background(), stored: onLoan, wantErr: errs.ErrUnauthenticated},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, repo, pub := newService(t)
			if tt.mock {
				expectUpdate(repo, id, tt.stored)
			}

			inst, err := svc.Return(tt.ctx, id)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Empty(t, pub.events)
				return
			}
			require.NoError(t, err)
			require.Equal(t, model.StatusAvailable, inst.Status)
			require.Nil(t, inst.DueBack)
			require.Nil(t, inst.Borrower)
			require.Len(t, pub.events, 1)
			require.Equal(t, kafka.EventReturned, pub.events[0].EventType)
		})
	}
}

func TestService_Return_NotFound(t *testing.T) {
	t.Parallel()
	svc, repo, _ := newService(t)
	id := uuid.New()
	repo.EXPECT().UpdateInstance(gomock.Any(), id, gomock.Any()).Return(model.BookInstance{}, errs.ErrNotFound)

	_, err := svc.Return(asLibrarian("lib"), id)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestService_ProposeBorrow(t *testing.T) {
	t.Parallel()
	svc, repo, _ := newService(t)
	id := uuid.New()
	repo.EXPECT().GetInstance(gomock.Any(), id).Return(model.BookInstance{ID: id, Status: model.StatusAvailable}, nil)

	proposed, err := svc.ProposeBorrow(asUser("alice"), id)
	require.NoError(t, err)
	require.Equal(t, "2024-03-31", proposed.ProposedDate.String())
	require.Equal(t, id, proposed.Instance.ID)
}

func TestService_ProposeRenewal_NotLibrarian(t *testing.T) {
	t.Parallel()
	svc, _, _ := newService(t)

	_, err := svc.ProposeRenewal(asUser("alice"), uuid.New())
	require.ErrorIs(t, err, errs.ErrForbidden)
}

func TestService_MyLoans(t *testing.T) {
	t.Parallel()
	svc, repo, _ := newService(t)
	items := []model.BookInstance{
		{ID: uuid.New(), Status: model.StatusOnLoan, DueBack: ptr(today.AddDays(-1)), Borrower: ptr("alice")},
		{ID: uuid.New(), Status: model.StatusOnLoan, DueBack: ptr(today), Borrower: ptr("alice")},
	}
	repo.EXPECT().
		ListInstances(gomock.Any(), repository.InstanceFilter{Borrower: "alice", Status: model.StatusOnLoan}, 1, model.DefaultPageSize).
		Return(model.ListInstances{Paging: model.Paging{Page: 1, PageSize: model.DefaultPageSize, TotalElements: 2}, Items: items}, nil)

	list, err := svc.MyLoans(asUser("alice"), 0, 0)
	require.NoError(t, err)
	require.Len(t, list.Items, 2)
	require.True(t, list.Items[0].IsOverdue)
	require.False(t, list.Items[1].IsOverdue)
}

func TestService_AllLoans_Forbidden(t *testing.T) {
	t.Parallel()
	svc, _, _ := newService(t)

	_, err := svc.AllLoans(asUser("alice"), 1, 10)
	require.ErrorIs(t, err, errs.ErrForbidden)
}

func TestService_CreateInstance(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		req        model.InstanceRequest
		wantStatus model.Status
		wantErr    error
	}{
		{name: "default maintenance", req: model.InstanceRequest{BookID: 1, Imprint: "Ace, 1965"}, wantStatus: model.StatusMaintenance},
		{name: "available", req: model.InstanceRequest{BookID: 1, Imprint: "Ace, 1965", Status: model.StatusAvailable}, wantStatus: model.StatusAvailable},
		{name: "on loan rejected", req: model.InstanceRequest{BookID: 1, Imprint: "Ace, 1965", Status: model.StatusOnLoan}, wantErr: loan.ErrStatusOnLoan},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, repo, _ := newService(t)
			if tt.wantErr == nil {
				repo.EXPECT().CreateInstance(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, inst model.BookInstance) (model.BookInstance, error) {
						return inst, nil
					})
			}

			inst, err := svc.CreateInstance(asLibrarian("lib"), tt.req)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantStatus, inst.Status)
			require.NotEqual(t, uuid.Nil, inst.ID)
			require.Nil(t, inst.Borrower)
		})
	}
}

func TestService_UpdateInstance_BookIsImmutable(t *testing.T) {
	t.Parallel()
	svc, repo, _ := newService(t)
	id := uuid.New()
	expectUpdate(repo, id, model.BookInstance{ID: id, BookID: 1, Status: model.StatusAvailable})

	_, err := svc.UpdateInstance(asLibrarian("lib"), id, model.InstanceRequest{BookID: 2, Imprint: "x"})
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestService_CatalogWritesRequireLibrarian(t *testing.T) {
	t.Parallel()
	svc, _, _ := newService(t)
	ctx := asUser("alice")

	_, err := svc.CreateGenre(ctx, model.GenreRequest{Name: "Poetry"})
	require.ErrorIs(t, err, errs.ErrForbidden)
	_, err = svc.CreateBook(ctx, model.BookRequest{Title: "t", ISBN: "9780000000000"})
	require.ErrorIs(t, err, errs.ErrForbidden)
	require.ErrorIs(t, svc.DeleteAuthor(ctx, 1), errs.ErrForbidden)
	require.ErrorIs(t, svc.DeleteUser(context.Background(), "alice"), errs.ErrUnauthenticated)
}

func TestService_CreateAuthor_Lifespan(t *testing.T) {
	t.Parallel()
	svc, _, _ := newService(t)

	_, err := svc.CreateAuthor(asLibrarian("lib"), model.AuthorRequest{
		FirstName:   "Isaac",
		LastName:    "Asimov",
		DateOfBirth: ptr(model.NewDate(1920, time.January, 2)),
		DateOfDeath: ptr(model.NewDate(1910, time.April, 6)),
	})
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestService_SearchEmptyQuery(t *testing.T) {
	t.Parallel()
	svc, _, _ := newService(t)

	books, err := svc.SearchBooks(context.Background(), "   ")
	require.NoError(t, err)
	require.Empty(t, books)

	authors, err := svc.SearchAuthors(context.Background(), "")
	require.NoError(t, err)
	require.Empty(t, authors)
}

func TestService_SearchAuthorsByYear(t *testing.T) {
	t.Parallel()
	svc, repo, _ := newService(t)
	repo.EXPECT().
		SearchAuthors(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, q search.AuthorQuery) ([]model.Author, error) {
			require.Equal(t, "1920", q.Term)
			require.NotNil(t, q.Year)
			require.Equal(t, 1920, *q.Year)
			return []model.Author{{ID: 1, FirstName: "Isaac", LastName: "Asimov"}}, nil
		})

	authors, err := svc.SearchAuthors(context.Background(), " 1920 ")
	require.NoError(t, err)
	require.Len(t, authors, 1)
}

func TestService_GetBook(t *testing.T) {
	t.Parallel()
	svc, repo, _ := newService(t)
	authorID := 4
	repo.EXPECT().GetBook(gomock.Any(), 10).Return(model.Book{ID: 10, Title: "Dune", AuthorID: &authorID}, nil)
	repo.EXPECT().GetAuthor(gomock.Any(), authorID).Return(model.Author{ID: authorID, FirstName: "Frank", LastName: "Herbert"}, nil)
	repo.EXPECT().ListInstances(gomock.Any(), repository.InstanceFilter{BookID: 10}, 0, 0).
		Return(model.ListInstances{Items: []model.BookInstance{
			{ID: uuid.New(), BookID: 10, Status: model.StatusOnLoan, DueBack: ptr(today.AddDays(-3)), Borrower: ptr("alice")},
		}}, nil)

	detail, err := svc.GetBook(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, "Herbert, Frank", detail.Author.String())
	require.Len(t, detail.Instances, 1)
	require.True(t, detail.Instances[0].IsOverdue)
}
