package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Astemirdum/local-library/catalog/internal/model"
)

// ListBooks godoc
// @Summary list books
// @Tags books
// @Produce json
// @Param page query int false "page"
// @Param size query int false "page size"
// @Success 200 {object} model.ListBooks
// @Router /books [get]
func (h *Handler) ListBooks(c echo.Context) error {
	page, size, err := paging(c)
	if err != nil {
		return err
	}
	books, err := h.catalogSvc.ListBooks(c.Request().Context(), page, size)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, books)
}

// GetBook godoc
// @Summary book with author and copies
// @Tags books
// @Produce json
// @Param id path int true "book id"
// @Success 200 {object} model.BookDetail
// @Failure 404 {object} echo.HTTPError
// @Router /books/{id} [get]
func (h *Handler) GetBook(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	book, err := h.catalogSvc.GetBook(c.Request().Context(), id)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, book)
}

func (h *Handler) CreateBook(c echo.Context) error {
	var req model.BookRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	book, err := h.catalogSvc.CreateBook(c.Request().Context(), req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusCreated, book)
}

func (h *Handler) UpdateBook(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	var req model.BookRequest
	if err = bind(c, &req); err != nil {
		return err
	}
	book, err := h.catalogSvc.UpdateBook(c.Request().Context(), id, req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, book)
}

func (h *Handler) DeleteBook(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	if err = h.catalogSvc.DeleteBook(c.Request().Context(), id); err != nil {
		return h.httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListAuthors godoc
// @Summary list authors ordered by last then first name
// @Tags authors
// @Produce json
// @Param page query int false "page"
// @Param size query int false "page size"
// @Success 200 {object} model.ListAuthors
// @Router /authors [get]
func (h *Handler) ListAuthors(c echo.Context) error {
	page, size, err := paging(c)
	if err != nil {
		return err
	}
	authors, err := h.catalogSvc.ListAuthors(c.Request().Context(), page, size)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, authors)
}

func (h *Handler) GetAuthor(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	author, err := h.catalogSvc.GetAuthor(c.Request().Context(), id)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, author)
}

func (h *Handler) CreateAuthor(c echo.Context) error {
	var req model.AuthorRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	author, err := h.catalogSvc.CreateAuthor(c.Request().Context(), req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusCreated, author)
}

func (h *Handler) UpdateAuthor(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	var req model.AuthorRequest
	if err = bind(c, &req); err != nil {
		return err
	}
	author, err := h.catalogSvc.UpdateAuthor(c.Request().Context(), id, req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, author)
}

func (h *Handler) DeleteAuthor(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	if err = h.catalogSvc.DeleteAuthor(c.Request().Context(), id); err != nil {
		return h.httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListGenres(c echo.Context) error {
	genres, err := h.catalogSvc.ListGenres(c.Request().Context())
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, genres)
}

func (h *Handler) GetGenre(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	genre, err := h.catalogSvc.GetGenre(c.Request().Context(), id)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, genre)
}

func (h *Handler) CreateGenre(c echo.Context) error {
	var req model.GenreRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	genre, err := h.catalogSvc.CreateGenre(c.Request().Context(), req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusCreated, genre)
}

func (h *Handler) UpdateGenre(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	var req model.GenreRequest
	if err = bind(c, &req); err != nil {
		return err
	}
	genre, err := h.catalogSvc.UpdateGenre(c.Request().Context(), id, req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, genre)
}

func (h *Handler) DeleteGenre(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	if err = h.catalogSvc.DeleteGenre(c.Request().Context(), id); err != nil {
		return h.httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// SearchBooks godoc
// @Summary search books by title fragment, exact genre name or exact author name
// @Tags search
// @Produce json
// @Param book query string true "query"
// @Success 200 {array} model.Book
// @Router /search/books [get]
func (h *Handler) SearchBooks(c echo.Context) error {
	books, err := h.catalogSvc.SearchBooks(c.Request().Context(), c.QueryParam("book"))
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, books)
}

// SearchAuthors godoc
// @Summary search authors by exact name or birth year
// @Tags search
// @Produce json
// @Param author query string true "query"
// @Success 200 {array} model.Author
// @Router /search/authors [get]
func (h *Handler) SearchAuthors(c echo.Context) error {
	authors, err := h.catalogSvc.SearchAuthors(c.Request().Context(), c.QueryParam("author"))
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, authors)
}

func (h *Handler) DeleteUser(c echo.Context) error {
	username := c.Param("username")
	if username == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username is empty")
	}
	if err := h.catalogSvc.DeleteUser(c.Request().Context(), username); err != nil {
		return h.httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
