package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Astemirdum/local-library/catalog/internal/model"
)

func (h *Handler) GetInstance(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	inst, err := h.catalogSvc.GetInstance(c.Request().Context(), id)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, inst)
}

func (h *Handler) CreateInstance(c echo.Context) error {
	var req model.InstanceRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	inst, err := h.catalogSvc.CreateInstance(c.Request().Context(), req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusCreated, inst)
}

func (h *Handler) UpdateInstance(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req model.InstanceRequest
	if err = bind(c, &req); err != nil {
		return err
	}
	inst, err := h.catalogSvc.UpdateInstance(c.Request().Context(), id, req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, inst)
}

func (h *Handler) DeleteInstance(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	if err = h.catalogSvc.DeleteInstance(c.Request().Context(), id); err != nil {
		return h.httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ProposeBorrow godoc
// @Summary proposed due date for borrowing a copy
// @Tags loans
// @Security BearerAuth
// @Produce json
// @Param id path string true "instance id"
// @Success 200 {object} model.ProposedDate
// @Router /instances/{id}/borrow [get]
func (h *Handler) ProposeBorrow(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	proposed, err := h.catalogSvc.ProposeBorrow(c.Request().Context(), id)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, proposed)
}

// Borrow godoc
// @Summary borrow an available copy
// @Tags loans
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "instance id"
// @Param request body model.BorrowRequest true "due date"
// @Success 200 {object} model.BookInstance
// @Failure 400 {object} echo.HTTPError
// @Router /instances/{id}/borrow [post]
func (h *Handler) Borrow(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req model.BorrowRequest
	if err = bind(c, &req); err != nil {
		return err
	}
	inst, err := h.catalogSvc.Borrow(c.Request().Context(), id, req.DueBack)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, inst)
}

// ProposeRenewal godoc
// @Summary proposed renewal date
// @Tags loans
// @Security BearerAuth
// @Produce json
// @Param id path string true "instance id"
// @Success 200 {object} model.ProposedDate
// @Router /instances/{id}/renew [get]
func (h *Handler) ProposeRenewal(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	proposed, err := h.catalogSvc.ProposeRenewal(c.Request().Context(), id)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, proposed)
}

// Renew godoc
// @Summary librarian renews a loan
// @Tags loans
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "instance id"
// @Param request body model.RenewRequest true "renewal date"
// @Success 200 {object} model.BookInstance
// @Failure 400 {object} echo.HTTPError
// @Failure 403 {object} echo.HTTPError
// @Router /instances/{id}/renew [post]
func (h *Handler) Renew(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req model.RenewRequest
	if err = bind(c, &req); err != nil {
		return err
	}
	inst, err := h.catalogSvc.Renew(c.Request().Context(), id, req.RenewalDate)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, inst)
}

// Return godoc
// @Summary return a copy
// @Tags loans
// @Security BearerAuth
// @Produce json
// @Param id path string true "instance id"
// @Success 200 {object} model.BookInstance
// @Failure 403 {object} echo.HTTPError
// @Router /instances/{id}/return [post]
func (h *Handler) Return(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	inst, err := h.catalogSvc.Return(c.Request().Context(), id)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, inst)
}

func (h *Handler) MyLoans(c echo.Context) error {
	page, size, err := paging(c)
	if err != nil {
		return err
	}
	loans, err := h.catalogSvc.MyLoans(c.Request().Context(), page, size)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, loans)
}

func (h *Handler) AllLoans(c echo.Context) error {
	page, size, err := paging(c)
	if err != nil {
		return err
	}
	loans, err := h.catalogSvc.AllLoans(c.Request().Context(), page, size)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, loans)
}
