package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/local-library/catalog/internal/errs"
	"github.com/Astemirdum/local-library/catalog/internal/loan"
	"github.com/Astemirdum/local-library/catalog/internal/model"
	"github.com/Astemirdum/local-library/catalog/internal/repository"
	"github.com/Astemirdum/local-library/pkg/auth"
	"github.com/Astemirdum/local-library/pkg/kafka"
)

// Borrow lends an available copy to the caller.
func (s *Service) Borrow(ctx context.Context, id uuid.UUID, due model.Date) (model.BookInstance, error) {
	userName, ok := auth.UserName(ctx)
	if !ok {
		return model.BookInstance{}, errs.ErrUnauthenticated
	}
	today := s.Today()
	if err := loan.ValidateBorrowDate(today, due); err != nil {
		return model.BookInstance{}, err
	}

	inst, err := s.repo.UpdateInstance(ctx, id, func(inst *model.BookInstance) error {
		return loan.Borrow(inst, due, userName, today)
	})
	if err != nil {
		return model.BookInstance{}, err
	}
	s.publish(ctx, kafka.EventBorrowed, userName, inst)
	return inst, nil
}

// Renew changes the due date; only librarians may do it.
func (s *Service) Renew(ctx context.Context, id uuid.UUID, due model.Date) (model.BookInstance, error) {
	if err := requireLibrarian(ctx); err != nil {
		return model.BookInstance{}, err
	}
	userName, _ := auth.UserName(ctx)
	today := s.Today()
	if err := loan.ValidateRenewalDate(today, due); err != nil {
		return model.BookInstance{}, err
	}

	inst, err := s.repo.UpdateInstance(ctx, id, func(inst *model.BookInstance) error {
		return loan.Renew(inst, due, today)
	})
	if err != nil {
		return model.BookInstance{}, err
	}
	s.publish(ctx, kafka.EventRenewed, userName, inst)
	return inst, nil
}

// Return marks the copy available. The caller must be its borrower or a librarian.
func (s *Service) Return(ctx context.Context, id uuid.UUID) (model.BookInstance, error) {
	userName, ok := auth.UserName(ctx)
	if !ok {
		return model.BookInstance{}, errs.ErrUnauthenticated
	}
	librarian := auth.CanMarkReturned(ctx)

	var borrower string
	inst, err := s.repo.UpdateInstance(ctx, id, func(inst *model.BookInstance) error {
		if inst.Borrower != nil {
			borrower = *inst.Borrower
		}
		if !librarian && borrower != userName {
			return errors.Wrap(errs.ErrForbidden, "instance is not borrowed by the caller")
		}
		loan.Return(inst)
		return nil
	})
	if err != nil {
		return model.BookInstance{}, err
	}
	if borrower == "" {
		borrower = userName
	}
	s.publish(ctx, kafka.EventReturned, borrower, inst)
	return inst, nil
}

// ProposeBorrow returns the copy together with the default due date offered to the borrower.
func (s *Service) ProposeBorrow(ctx context.Context, id uuid.UUID) (model.ProposedDate, error) {
	inst, err := s.GetInstance(ctx, id)
	if err != nil {
		return model.ProposedDate{}, err
	}
	return model.ProposedDate{Instance: inst, ProposedDate: loan.ProposedDueDate(s.Today())}, nil
}

func (s *Service) ProposeRenewal(ctx context.Context, id uuid.UUID) (model.ProposedDate, error) {
	if err := requireLibrarian(ctx); err != nil {
		return model.ProposedDate{}, err
	}
	return s.ProposeBorrow(ctx, id)
}

// MyLoans lists copies on loan to the caller ordered by due date.
func (s *Service) MyLoans(ctx context.Context, page, size int) (model.ListInstances, error) {
	userName, ok := auth.UserName(ctx)
	if !ok {
		return model.ListInstances{}, errs.ErrUnauthenticated
	}
	return s.listInstances(ctx, repository.InstanceFilter{Borrower: userName, Status: model.StatusOnLoan}, page, size)
}

func (s *Service) AllLoans(ctx context.Context, page, size int) (model.ListInstances, error) {
	if err := requireLibrarian(ctx); err != nil {
		return model.ListInstances{}, err
	}
	return s.listInstances(ctx, repository.InstanceFilter{Status: model.StatusOnLoan}, page, size)
}

func (s *Service) CreateInstance(ctx context.Context, req model.InstanceRequest) (model.BookInstance, error) {
	if err := requireLibrarian(ctx); err != nil {
		return model.BookInstance{}, err
	}
	inst := model.BookInstance{
		ID:      uuid.New(),
		BookID:  req.BookID,
		Imprint: req.Imprint,
	}
	status := req.Status
	if status == "" {
		status = model.StatusMaintenance
	}
	if err := loan.SetStatus(&inst, status, req.DueBack); err != nil {
		return model.BookInstance{}, err
	}
	return s.repo.CreateInstance(ctx, inst)
}

func (s *Service) UpdateInstance(ctx context.Context, id uuid.UUID, req model.InstanceRequest) (model.BookInstance, error) {
	if err := requireLibrarian(ctx); err != nil {
		return model.BookInstance{}, err
	}
	inst, err := s.repo.UpdateInstance(ctx, id, func(inst *model.BookInstance) error {
		if req.BookID != inst.BookID {
			return errs.NewValidationError("bookId", "an instance cannot be moved to another book")
		}
		inst.Imprint = req.Imprint
		if req.Status == "" {
			return nil
		}
		return loan.SetStatus(inst, req.Status, req.DueBack)
	})
	if err != nil {
		return model.BookInstance{}, err
	}
	return s.markOverdue([]model.BookInstance{inst})[0], nil
}

func (s *Service) DeleteInstance(ctx context.Context, id uuid.UUID) error {
	if err := requireLibrarian(ctx); err != nil {
		return err
	}
	return s.repo.DeleteInstance(ctx, id)
}

func (s *Service) listInstances(ctx context.Context, filter repository.InstanceFilter, page, size int) (model.ListInstances, error) {
	page, size = normalizePage(page, size)
	list, err := s.repo.ListInstances(ctx, filter, page, size)
	if err != nil {
		return model.ListInstances{}, err
	}
	list.Items = s.markOverdue(list.Items)
	return list, nil
}

// publish is best effort: the transition is already committed.
func (s *Service) publish(ctx context.Context, typ kafka.EventType, userName string, inst model.BookInstance) {
	event := kafka.EventLoan{
		Timestamp:  s.now().UTC(),
		UserName:   userName,
		InstanceID: inst.ID.String(),
		BookID:     inst.BookID,
		EventType:  typ,
	}
	if inst.DueBack != nil {
		due := inst.DueBack.Time
		event.DueBack = &due
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn("publish loan event",
			zap.String("type", string(typ)),
			zap.String("instance", event.InstanceID),
			zap.Error(err))
	}
}
