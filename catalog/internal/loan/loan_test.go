package loan_test

import (
	"testing"
	"time"

	"github.com/Astemirdum/local-library/catalog/internal/errs"
	"github.com/Astemirdum/local-library/catalog/internal/loan"
	"github.com/Astemirdum/local-library/catalog/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var today = model.NewDate(2024, time.February, 1)

func ptr[T any](v T) *T { return &v }

func instance(status model.Status) model.BookInstance {
	return model.BookInstance{
		ID:      uuid.New(),
		BookID:  1,
		Imprint: "Penguin, 1999",
		Status:  status,
	}
}

func TestRenew(t *testing.T) {
	t.Parallel()
	oldDue := today.AddDays(2)
	tests := []struct {
		name    string
		due     model.Date
		wantErr error
	}{
		{name: "yesterday", due: today.AddDays(-1), wantErr: loan.ErrRenewalInPast},
		{name: "long ago", due: model.NewDate(2020, time.May, 5), wantErr: loan.ErrRenewalInPast},
		{name: "today", due: today},
		{name: "proposed", due: loan.ProposedDueDate(today)},
		{name: "last allowed day", due: today.AddDays(28)},
		{name: "one day too far", due: today.AddDays(29), wantErr: loan.ErrRenewalTooFar},
		{name: "next year", due: today.AddDays(365), wantErr: loan.ErrRenewalTooFar},
		{name: "zero", due: model.Date{}, wantErr: loan.ErrDueDateRequired},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			// arrange
			inst := instance(model.StatusOnLoan)
			inst.DueBack = &oldDue
			inst.Borrower = ptr("jdoe")

			// act
			err := loan.Renew(&inst, tt.due, today)

			// assert
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.ErrorIs(t, err, errs.ErrValidation)
				require.Equal(t, oldDue, *inst.DueBack)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.due, *inst.DueBack)
			require.Equal(t, model.StatusOnLoan, inst.Status)
			require.Equal(t, "jdoe", *inst.Borrower)
		})
	}
}

// Renewal only moves the due date; the copy keeps whatever status and borrower it had.
func TestRenew_KeepsStatus(t *testing.T) {
	t.Parallel()
	for _, status := range []model.Status{model.StatusAvailable, model.StatusMaintenance, model.StatusReserved} {
		inst := instance(status)
		due := today.AddDays(7)

		require.NoError(t, loan.Renew(&inst, due, today))
		require.Equal(t, status, inst.Status)
		require.Nil(t, inst.Borrower)
		require.Equal(t, due, *inst.DueBack)
		require.False(t, inst.IsOverdue)
		require.True(t, loan.IsOverdue(inst, due.AddDays(1)))

		loan.Return(&inst)
		require.Nil(t, inst.DueBack)
		require.False(t, loan.IsOverdue(inst, due.AddDays(1)))
	}
}

func TestRenew_ErrorReasons(t *testing.T) {
	require.Equal(t, "renewalDate: Invalid date - renewal in past", loan.ErrRenewalInPast.Error())
	require.Equal(t, "renewalDate: Invalid date - renewal more than 4 weeks ahead", loan.ErrRenewalTooFar.Error())
}

func TestBorrow(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		status   model.Status
		due      model.Date
		borrower string
		wantErr  error
	}{
		{name: "ok today", status: model.StatusAvailable, due: today, borrower: "jdoe"},
		{name: "ok far ahead", status: model.StatusAvailable, due: today.AddDays(90), borrower: "jdoe"},
		{name: "in past", status: model.StatusAvailable, due: today.AddDays(-1), borrower: "jdoe", wantErr: loan.ErrBorrowInPast},
		{name: "no borrower", status: model.StatusAvailable, due: today, wantErr: loan.ErrBorrowerRequired},
		{name: "already on loan", status: model.StatusOnLoan, due: today, borrower: "jdoe", wantErr: errs.ErrValidation},
		{name: "reserved", status: model.StatusReserved, due: today, borrower: "jdoe", wantErr: errs.ErrValidation},
		{name: "maintenance", status: model.StatusMaintenance, due: today, borrower: "jdoe", wantErr: errs.ErrValidation},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			inst := instance(tt.status)
			before := inst

			err := loan.Borrow(&inst, tt.due, tt.borrower, today)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Equal(t, before, inst)
				return
			}
			require.NoError(t, err)
			require.Equal(t, model.StatusOnLoan, inst.Status)
			require.Equal(t, tt.due, *inst.DueBack)
			require.Equal(t, tt.borrower, *inst.Borrower)
			require.False(t, inst.IsOverdue)
		})
	}
}

func TestReturn(t *testing.T) {
	t.Parallel()
	for _, status := range []model.Status{model.StatusMaintenance, model.StatusOnLoan, model.StatusAvailable, model.StatusReserved} {
		inst := instance(status)
		inst.DueBack = ptr(today.AddDays(-10))
		inst.Borrower = ptr("jdoe")
		inst.IsOverdue = true

		loan.Return(&inst)

		require.Equal(t, model.StatusAvailable, inst.Status, status)
		require.Nil(t, inst.DueBack)
		require.Nil(t, inst.Borrower)
		require.False(t, inst.IsOverdue)
	}
}

func TestIsOverdue(t *testing.T) {
	t.Parallel()
	inst := instance(model.StatusOnLoan)
	require.False(t, loan.IsOverdue(inst, today))

	inst.DueBack = ptr(model.NewDate(2024, time.January, 1))
	require.True(t, loan.IsOverdue(inst, today))

	inst.DueBack = ptr(today)
	require.False(t, loan.IsOverdue(inst, today))

	inst.DueBack = ptr(today.AddDays(-1))
	require.True(t, loan.IsOverdue(inst, today))
}

func TestProposedDueDate(t *testing.T) {
	require.Equal(t, model.NewDate(2024, time.February, 22), loan.ProposedDueDate(today))
}

func TestSetStatus(t *testing.T) {
	t.Parallel()
	due := today.AddDays(5)

	inst := instance(model.StatusOnLoan)
	inst.DueBack = ptr(today)
	inst.Borrower = ptr("jdoe")
	require.NoError(t, loan.SetStatus(&inst, model.StatusReserved, &due))
	require.Equal(t, model.StatusReserved, inst.Status)
	require.Equal(t, due, *inst.DueBack)
	require.Nil(t, inst.Borrower)

	require.NoError(t, loan.SetStatus(&inst, model.StatusMaintenance, &due))
	require.Nil(t, inst.DueBack)

	before := inst
	require.ErrorIs(t, loan.SetStatus(&inst, model.StatusOnLoan, &due), loan.ErrStatusOnLoan)
	require.ErrorIs(t, loan.SetStatus(&inst, "LOST", nil), errs.ErrValidation)
	require.Equal(t, before, inst)
}
