package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dukerupert/foodgram/internal/apperr"
)

const maxPageSize = 100

func parseIDParam(r *http.Request) (int64, error) {
	idStr := r.PathValue("id")
	return strconv.ParseInt(idStr, 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeError maps err onto the response status and body. Unknown errors are
// logged and answered with 500.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	if ve, ok := apperr.AsValidation(err); ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"errors": map[string][]string{ve.Field: {ve.Message}},
		})
		return
	}
	if ce, ok := apperr.AsConflict(err); ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": ce.Message})
		return
	}

	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeDetail(w, http.StatusNotFound, "Not found.")
	case errors.Is(err, apperr.ErrUnauthorized):
		writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
	case errors.Is(err, apperr.ErrForbidden):
		writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
	default:
		logger.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

// decodeJSON reads the request body into v. A malformed body is reported
// as a validation error.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Invalid("non_field_errors", "Invalid JSON body.")
	}
	return nil
}

// page is a resolved page request.
type page struct {
	number int
	limit  int
}

func (p page) offset() int { return (p.number - 1) * p.limit }

// parsePage reads ?page= and ?limit=. A malformed page number is NotFound;
// a malformed limit falls back to the default.
func parsePage(r *http.Request, defaultLimit int) (page, error) {
	p := page{number: 1, limit: defaultLimit}
	q := r.URL.Query()

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return page{}, apperr.ErrNotFound
		}
		p.number = n
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.limit = min(n, maxPageSize)
		}
	}
	return p, nil
}

type paginated struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  any     `json:"results"`
}

// paginate wraps results with count and neighbour links. Requests past the
// last page are NotFound.
func paginate(r *http.Request, p page, count int, results any) (paginated, error) {
	if p.number > 1 && p.offset() >= count {
		return paginated{}, apperr.ErrNotFound
	}

	out := paginated{Count: count, Results: results}
	if p.offset()+p.limit < count {
		next := pageURL(r, p.number+1)
		out.Next = &next
	}
	if p.number > 1 {
		prev := pageURL(r, p.number-1)
		out.Previous = &prev
	}
	return out, nil
}

func pageURL(r *http.Request, n int) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	q := r.URL.Query()
	if n == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(n))
	}
	u := url.URL{Scheme: scheme, Host: r.Host, Path: r.URL.Path, RawQuery: q.Encode()}
	return u.String()
}

// queryInt returns the integer value of key, or 0 when absent or malformed.
func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
