package rebook

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Excellent-84/library-api/model"
	rs "github.com/Excellent-84/library-api/service/rebook"
)

type Controller struct {
	Svc rs.Service
	V   *validator.Validate
	Log *slog.Logger
}

// Borrow a book
// @Summary      Borrow a book
// @Description  Creates an open loan and takes one available copy
// @Tags         rebooks
// @Accept       json
// @Produce      json
// @Param        payload  body  BorrowReq  true  "Borrow payload"
// @Success      201  {object}  model.Rebook
// @Failure      400  {object}  map[string]any "no copies / borrow limit"
// @Failure      404  {object}  map[string]any "book not found"
// @Failure      409  {object}  map[string]any "transaction conflict, retry"
// @Router       /v1/rebooks [post]
func (h *Controller) Borrow(c echo.Context) error {
	var req BorrowReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}
	uid, _ := c.Get("user_id").(int64)

	rb, err := h.Svc.Borrow(c.Request().Context(), uid, req.BookID)
	if err != nil {
		switch rs.Code(err) {
		case rs.ErrBookNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "book not found", "code": rs.ErrBookNotFound})
		case rs.ErrNoCopies:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "no copies available", "code": rs.ErrNoCopies})
		case rs.ErrBorrowLimit:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "user has reached the borrowing limit", "code": rs.ErrBorrowLimit})
		case rs.ErrTxConflict:
			return c.JSON(http.StatusConflict, echo.Map{"message": "conflicting transaction, retry", "code": rs.ErrTxConflict})
		default:
			h.Log.Error("borrow failed", "err", err, "user_id", uid, "book_id", req.BookID)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}

	return c.JSON(http.StatusCreated, rb)
}

// Return a book
// @Summary      Return a borrowed book
// @Description  Closes the open loan for the caller and frees one copy
// @Tags         rebooks
// @Accept       json
// @Produce      json
// @Param        payload  body  ReturnReq  true  "Return payload"
// @Success      200  {object}  model.Rebook
// @Failure      404  {object}  map[string]any "no open loan for this book"
// @Router       /v1/rebooks/return [post]
func (h *Controller) Return(c echo.Context) error {
	var req ReturnReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}
	uid, _ := c.Get("user_id").(int64)

	rb, err := h.Svc.Return(c.Request().Context(), uid, req.BookID)
	if err != nil {
		switch rs.Code(err) {
		case rs.ErrLoanNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "rebook record not found", "code": rs.ErrLoanNotFound})
		case rs.ErrTxConflict:
			return c.JSON(http.StatusConflict, echo.Map{"message": "conflicting transaction, retry", "code": rs.ErrTxConflict})
		default:
			h.Log.Error("return failed", "err", err, "user_id", uid, "book_id", req.BookID)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}

	return c.JSON(http.StatusOK, rb)
}

// GET /v1/rebooks/:id
func (h *Controller) Detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	rb, err := h.Svc.GetByID(c.Request().Context(), id)
	if err != nil {
		if rs.Code(err) == rs.ErrLoanNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "rebook record not found"})
		}
		h.Log.Error("rebook detail failed", "err", err, "id", id)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, rb)
}

// GET /v1/rebooks?limit&offset&user_id  (admin)
func (h *Controller) List(c echo.Context) error {
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	offset, _ := strconv.ParseInt(c.QueryParam("offset"), 10, 64)

	var userID *int64
	if raw := c.QueryParam("user_id"); raw != "" {
		uid, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || uid <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid user_id"})
		}
		userID = &uid
	}

	rows, err := h.Svc.List(c.Request().Context(), limit, offset, userID)
	if err != nil {
		h.Log.Error("rebook list failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	if rows == nil {
		rows = []model.Rebook{}
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}
