package handler

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"github.com/Astemirdum/local-library/catalog/internal/errs"
	"github.com/Astemirdum/local-library/catalog/internal/model"
	md "github.com/Astemirdum/local-library/pkg/middleware"
	"github.com/Astemirdum/local-library/pkg/validate"
	_ "github.com/Astemirdum/local-library/swagger"
)

const (
	sessionName   = "catalog"
	numVisitsKey  = "num_visits"
	pageParam     = "page"
	pageSizeParam = "size"
)

type Handler struct {
	catalogSvc CatalogService
	sessions   sessions.Store
	jwtSecret  []byte
	log        *zap.Logger
}

func New(catalogSvc CatalogService, store sessions.Store, jwtSecret []byte, log *zap.Logger) *Handler {
	return &Handler{
		catalogSvc: catalogSvc,
		sessions:   store,
		jwtSecret:  jwtSecret,
		log:        log.Named("handler"),
	}
}

// @title Local Library Catalog API
// @version 1.0
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)
	base.GET("/swagger/*", echoSwagger.WrapHandler)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig(h.log)),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
	)

	api.GET("/", h.Index)
	api.GET("/books", h.ListBooks)
	api.GET("/books/:id", h.GetBook)
	api.GET("/authors", h.ListAuthors)
	api.GET("/authors/:id", h.GetAuthor)
	api.GET("/genres", h.ListGenres)
	api.GET("/genres/:id", h.GetGenre)
	api.GET("/instances/:id", h.GetInstance)
	api.GET("/search/books", h.SearchBooks)
	api.GET("/search/authors", h.SearchAuthors)

	// auth middleware is attached per route: a group would also guard unknown paths
	authed := md.JwtAuthentication(h.jwtSecret)
	api.GET("/instances/:id/borrow", h.ProposeBorrow, authed)
	api.POST("/instances/:id/borrow", h.Borrow, authed)
	api.POST("/instances/:id/return", h.Return, authed)
	api.GET("/loans/mine", h.MyLoans, authed)

	librarian := []echo.MiddlewareFunc{authed, md.RequireLibrarian}
	api.GET("/instances/:id/renew", h.ProposeRenewal, librarian...)
	api.POST("/instances/:id/renew", h.Renew, librarian...)
	api.GET("/loans", h.AllLoans, librarian...)

	api.POST("/genres", h.CreateGenre, librarian...)
	api.PUT("/genres/:id", h.UpdateGenre, librarian...)
	api.DELETE("/genres/:id", h.DeleteGenre, librarian...)

	api.POST("/authors", h.CreateAuthor, librarian...)
	api.PUT("/authors/:id", h.UpdateAuthor, librarian...)
	api.DELETE("/authors/:id", h.DeleteAuthor, librarian...)

	api.POST("/books", h.CreateBook, librarian...)
	api.PUT("/books/:id", h.UpdateBook, librarian...)
	api.DELETE("/books/:id", h.DeleteBook, librarian...)

	api.POST("/instances", h.CreateInstance, librarian...)
	api.PUT("/instances/:id", h.UpdateInstance, librarian...)
	api.DELETE("/instances/:id", h.DeleteInstance, librarian...)

	api.DELETE("/users/:username", h.DeleteUser, librarian...)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// Index godoc
// @Summary catalog home counters and session visit count
// @Tags catalog
// @Produce json
// @Success 200 {object} model.Home
// @Router / [get]
func (h *Handler) Index(c echo.Context) error {
	counts, err := h.catalogSvc.Counts(c.Request().Context())
	if err != nil {
		return h.httpError(err)
	}

	home := model.Home{Counts: counts}
	sess, err := h.sessions.Get(c.Request(), sessionName)
	if err != nil {
		// a cookie signed with a rotated secret still yields a fresh session
		h.log.Debug("session decode", zap.Error(err))
	}
	if sess != nil {
		n, _ := sess.Values[numVisitsKey].(int)
		home.NumVisits = n
		sess.Values[numVisitsKey] = n + 1
		if err = sess.Save(c.Request(), c.Response()); err != nil {
			h.log.Warn("session save", zap.Error(err))
		}
	}
	return c.JSON(http.StatusOK, home)
}

// httpError maps service errors onto HTTP statuses.
func (h *Handler) httpError(err error) error {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, errs.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, errs.ErrValidation):
		code = http.StatusBadRequest
	case errors.Is(err, errs.ErrDuplicate), errors.Is(err, errs.ErrRestricted):
		code = http.StatusConflict
	case errors.Is(err, errs.ErrUnauthenticated):
		code = http.StatusUnauthorized
	case errors.Is(err, errs.ErrForbidden):
		code = http.StatusForbidden
	default:
		h.log.Error("internal", zap.Error(err))
	}
	return echo.NewHTTPError(code, err.Error())
}

func paging(c echo.Context) (page, size int, err error) {
	if p := c.QueryParam(pageParam); p != "" {
		if page, err = strconv.Atoi(p); err != nil {
			return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "page is invalid")
		}
	}
	if s := c.QueryParam(pageSizeParam); s != "" {
		if size, err = strconv.Atoi(s); err != nil {
			return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "size is invalid")
		}
	}
	return page, size, nil
}

func intParam(c echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" is invalid")
	}
	return id, nil
}

func uuidParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, name+" is invalid")
	}
	return id, nil
}

// bind decodes and validates the request body.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
