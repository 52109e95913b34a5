package book

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Excellent-84/library-api/model"
	booksvc "github.com/Excellent-84/library-api/service/book"
)

type Controller struct {
	Svc booksvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

func (h *Controller) bindFields(c echo.Context) (booksvc.Fields, bool) {
	var req BookReq
	if err := c.Bind(&req); err != nil {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
		return booksvc.Fields{}, false
	}
	if err := h.V.Struct(req); err != nil {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
		return booksvc.Fields{}, false
	}
	pubDate, err := parseDate(req.PublicationDate)
	if err != nil {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid publication_date"})
		return booksvc.Fields{}, false
	}
	return booksvc.Fields{
		Title:           req.Title,
		Description:     req.Description,
		PublicationDate: pubDate,
		Genre:           req.Genre,
		AvailableCopies: req.AvailableCopies,
		AuthorIDs:       req.AuthorIDs,
	}, true
}

// POST /v1/books  (admin)
func (h *Controller) Create(c echo.Context) error {
	f, ok := h.bindFields(c)
	if !ok {
		return nil
	}

	b, err := h.Svc.Create(c.Request().Context(), f)
	if err != nil {
		switch booksvc.Code(err) {
		case booksvc.ErrAuthorNotFound:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "unknown author ids"})
		case booksvc.ErrBadInput:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "bad input"})
		default:
			h.Log.Error("book create failed", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusCreated, b)
}

// GET /v1/books?limit&offset&genre
func (h *Controller) List(c echo.Context) error {
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	offset, _ := strconv.ParseInt(c.QueryParam("offset"), 10, 64)
	genre := c.QueryParam("genre")

	rows, err := h.Svc.List(c.Request().Context(), limit, offset, genre)
	if err != nil {
		h.Log.Error("book list failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	if rows == nil {
		rows = []model.Book{}
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/books/:id
func (h *Controller) Detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	b, err := h.Svc.GetByID(c.Request().Context(), id)
	if err != nil {
		if booksvc.Code(err) == booksvc.ErrBookNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "book not found"})
		}
		h.Log.Error("book detail failed", "err", err, "id", id)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, b)
}

// PUT /v1/books/:id  (admin)
func (h *Controller) Update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	f, ok := h.bindFields(c)
	if !ok {
		return nil
	}

	b, err := h.Svc.Update(c.Request().Context(), id, f)
	if err != nil {
		switch booksvc.Code(err) {
		case booksvc.ErrBookNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "book not found"})
		case booksvc.ErrAuthorNotFound:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "unknown author ids"})
		case booksvc.ErrBadInput:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "bad input"})
		default:
			h.Log.Error("book update failed", "err", err, "id", id)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, b)
}

// DELETE /v1/books/:id  (admin)
func (h *Controller) Delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		if booksvc.Code(err) == booksvc.ErrBookNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "book not found"})
		}
		h.Log.Error("book delete failed", "err", err, "id", id)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.NoContent(http.StatusNoContent)
}
