// Package loan holds the lifecycle rules of a book instance: borrowing, renewal by a librarian,
// return and the overdue check. Functions here are pure; persistence and authorization live in
// the service layer.
package loan

import (
	"fmt"

	"github.com/Astemirdum/local-library/catalog/internal/errs"
	"github.com/Astemirdum/local-library/catalog/internal/model"
)

const (
	// ProposedPeriodDays is the suggested loan or renewal length.
	ProposedPeriodDays = 3 * 7
	// MaxRenewalDays bounds how far ahead a librarian may push the due date.
	MaxRenewalDays = 4 * 7
)

var (
	ErrBorrowInPast     = errs.NewValidationError("dueBack", "Invalid date - borrow in past")
	ErrRenewalInPast    = errs.NewValidationError("renewalDate", "Invalid date - renewal in past")
	ErrRenewalTooFar    = errs.NewValidationError("renewalDate", "Invalid date - renewal more than 4 weeks ahead")
	ErrDueDateRequired  = errs.NewValidationError("dueBack", "due date is required")
	ErrBorrowerRequired = errs.NewValidationError("borrower", "borrower is required")
	ErrStatusOnLoan     = errs.NewValidationError("status", "ON_LOAN can only be set by borrowing")
)

// ProposedDueDate is the default offered when asking for a borrow or renewal date.
func ProposedDueDate(today model.Date) model.Date {
	return today.AddDays(ProposedPeriodDays)
}

func ValidateBorrowDate(today, due model.Date) error {
	if due.IsZero() {
		return ErrDueDateRequired
	}
	if due.Before(today) {
		return ErrBorrowInPast
	}
	return nil
}

func ValidateRenewalDate(today, due model.Date) error {
	if due.IsZero() {
		return ErrDueDateRequired
	}
	if due.Before(today) {
		return ErrRenewalInPast
	}
	if due.After(today.AddDays(MaxRenewalDays)) {
		return ErrRenewalTooFar
	}
	return nil
}

// Borrow lends an available instance to borrower until due.
// The instance is left untouched when any precondition fails.
func Borrow(inst *model.BookInstance, due model.Date, borrower string, today model.Date) error {
	if err := ValidateBorrowDate(today, due); err != nil {
		return err
	}
	if borrower == "" {
		return ErrBorrowerRequired
	}
	if inst.Status != model.StatusAvailable {
		return errs.NewValidationError("status", fmt.Sprintf("instance is not available (status %s)", inst.Status))
	}

	inst.Status = model.StatusOnLoan
	inst.DueBack = &due
	inst.Borrower = &borrower
	inst.IsOverdue = IsOverdue(*inst, today)
	return nil
}

// Renew moves the due date. Status and borrower are kept.
func Renew(inst *model.BookInstance, due model.Date, today model.Date) error {
	if err := ValidateRenewalDate(today, due); err != nil {
		return err
	}

	inst.DueBack = &due
	inst.IsOverdue = IsOverdue(*inst, today)
	return nil
}

// Return makes the instance available again whatever state it was in.
func Return(inst *model.BookInstance) {
	inst.DueBack = nil
	inst.Borrower = nil
	inst.Status = model.StatusAvailable
	inst.IsOverdue = false
}

// SetStatus applies a librarian status change outside of the borrow flow.
// Any borrower is dropped; a due date is kept only for reserved copies.
func SetStatus(inst *model.BookInstance, status model.Status, dueBack *model.Date) error {
	if !status.Valid() {
		return errs.NewValidationError("status", fmt.Sprintf("unknown status %q", status))
	}
	if status == model.StatusOnLoan {
		return ErrStatusOnLoan
	}

	inst.Status = status
	inst.Borrower = nil
	inst.DueBack = nil
	if status == model.StatusReserved {
		inst.DueBack = dueBack
	}
	inst.IsOverdue = false
	return nil
}

func IsOverdue(inst model.BookInstance, today model.Date) bool {
	return inst.DueBack != nil && today.After(*inst.DueBack)
}
