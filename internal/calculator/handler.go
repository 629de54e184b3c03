package calculator

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"bread-calculator/internal/auth"
	"bread-calculator/internal/httpjson"
	"bread-calculator/internal/logger"
	"bread-calculator/internal/models"
	"bread-calculator/internal/storage"

	"go.uber.org/zap"
)

type CalculationRequest struct {
	A    *float64               `json:"a" validate:"required"`
	B    *float64               `json:"b" validate:"required"`
	Type models.CalculationType `json:"type" validate:"required"`
}

type PatchRequest struct {
	A    *float64                `json:"a"`
	B    *float64                `json:"b"`
	Type *models.CalculationType `json:"type"`
}

func (r CalculationRequest) operands() Operands {
	return Operands{A: *r.A, B: *r.B, Type: r.Type}
}

func AddHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		var req CalculationRequest
		if !httpjson.Bind(w, r, &req) {
			return
		}
		calc, err := svc.Add(r.Context(), userID, req.operands())
		if err != nil {
			writeError(w, r, err)
			return
		}
		httpjson.Write(w, http.StatusCreated, calc)
	}
}

func BrowseHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		page, err := pageFromQuery(r)
		if err != nil {
			httpjson.Error(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		calcs, err := svc.Browse(r.Context(), userID, page)
		if err != nil {
			writeError(w, r, err)
			return
		}
		httpjson.Write(w, http.StatusOK, calcs)
	}
}

func ReadHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, id, ok := requireUserAndID(w, r)
		if !ok {
			return
		}
		calc, err := svc.Read(r.Context(), userID, id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		httpjson.Write(w, http.StatusOK, calc)
	}
}

func EditHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, id, ok := requireUserAndID(w, r)
		if !ok {
			return
		}
		var req CalculationRequest
		if !httpjson.Bind(w, r, &req) {
			return
		}
		calc, err := svc.Edit(r.Context(), userID, id, req.operands())
		if err != nil {
			writeError(w, r, err)
			return
		}
		httpjson.Write(w, http.StatusOK, calc)
	}
}

func PatchHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, id, ok := requireUserAndID(w, r)
		if !ok {
			return
		}
		var req PatchRequest
		if !httpjson.Bind(w, r, &req) {
			return
		}
		calc, err := svc.Patch(r.Context(), userID, id, Patch{A: req.A, B: req.B, Type: req.Type})
		if err != nil {
			writeError(w, r, err)
			return
		}
		httpjson.Write(w, http.StatusOK, calc)
	}
}

func DeleteHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, id, ok := requireUserAndID(w, r)
		if !ok {
			return
		}
		if err := svc.Delete(r.Context(), userID, id); err != nil {
			writeError(w, r, err)
			return
		}
		httpjson.Write(w, http.StatusOK, httpjson.MessageResponse{Message: "Calculation deleted successfully"})
	}
}

func requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "unauthorized")
	}
	return userID, ok
}

func requireUserAndID(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	userID, ok := requireUser(w, r)
	if !ok {
		return 0, 0, false
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		// Ids are positive integers; anything else cannot exist.
		httpjson.Error(w, http.StatusNotFound, "Calculation not found")
		return 0, 0, false
	}
	return userID, id, true
}

func pageFromQuery(r *http.Request) (storage.Page, error) {
	var page storage.Page
	q := r.URL.Query()
	if v := q.Get("skip"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return page, errors.New("skip: must be a non-negative integer")
		}
		page.Skip = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > storage.MaxLimit {
			return page, errors.New("limit: must be between 1 and " + strconv.Itoa(storage.MaxLimit))
		}
		page.Limit = n
	}
	return page, nil
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		httpjson.Error(w, http.StatusNotFound, "Calculation not found")
	case errors.Is(err, ErrDivisionByZero):
		httpjson.Error(w, http.StatusUnprocessableEntity, "Cannot divide by zero")
	case errors.Is(err, ErrUnknownType):
		httpjson.Error(w, http.StatusUnprocessableEntity, "type: must be one of: "+typeList())
	case errors.Is(err, ErrNotFinite):
		httpjson.Error(w, http.StatusUnprocessableEntity, "Result is not a finite number")
	default:
		logger.FromContext(r.Context()).Error("calculation request failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
	}
}

func typeList() string {
	names := make([]string, len(models.CalculationTypes))
	for i, t := range models.CalculationTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
