package author

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Excellent-84/library-api/model"
	authorsvc "github.com/Excellent-84/library-api/service/author"
)

type Controller struct {
	Svc authorsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /v1/authors  (admin)
func (h *Controller) Create(c echo.Context) error {
	var req CreateAuthorReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}

	birthDate, err := parseDate(req.BirthDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid birth_date"})
	}

	a, err := h.Svc.Create(c.Request().Context(), req.Name, req.Biography, birthDate)
	if err != nil {
		switch authorsvc.Code(err) {
		case authorsvc.ErrAuthorExists:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "author with this name already exists"})
		case authorsvc.ErrBadInput:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "bad input"})
		default:
			h.Log.Error("author create failed", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusCreated, a)
}

// GET /v1/authors?limit&offset&name
func (h *Controller) List(c echo.Context) error {
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	offset, _ := strconv.ParseInt(c.QueryParam("offset"), 10, 64)
	name := c.QueryParam("name")

	rows, err := h.Svc.List(c.Request().Context(), limit, offset, name)
	if err != nil {
		h.Log.Error("author list failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	if rows == nil {
		rows = []model.Author{}
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/authors/:id
func (h *Controller) Detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	a, err := h.Svc.GetByID(c.Request().Context(), id)
	if err != nil {
		if authorsvc.Code(err) == authorsvc.ErrAuthorNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "author not found"})
		}
		h.Log.Error("author detail failed", "err", err, "id", id)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, a)
}

// PUT /v1/authors/:id  (admin)
func (h *Controller) Update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	var req UpdateAuthorReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}

	upd := authorsvc.UpdateReq{Name: req.Name, Biography: req.Biography}
	if req.BirthDate != nil {
		birthDate, err := parseDate(*req.BirthDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid birth_date"})
		}
		upd.BirthDate = &birthDate
	}

	a, err := h.Svc.Update(c.Request().Context(), id, upd)
	if err != nil {
		switch authorsvc.Code(err) {
		case authorsvc.ErrAuthorNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "author not found"})
		case authorsvc.ErrAuthorExists:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "author with this name already exists"})
		case authorsvc.ErrBadInput:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "bad input"})
		default:
			h.Log.Error("author update failed", "err", err, "id", id)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, a)
}

// DELETE /v1/authors/:id  (admin)
func (h *Controller) Delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		if authorsvc.Code(err) == authorsvc.ErrAuthorNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "author not found"})
		}
		h.Log.Error("author delete failed", "err", err, "id", id)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.NoContent(http.StatusNoContent)
}
