package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/jusunglee/uzscript/internal/db"
	"github.com/jusunglee/uzscript/internal/transliteration"
	"github.com/samber/lo"
)

type ConversionHandler struct {
	repo db.Repository
	log  *slog.Logger
}

func NewConversionHandler(repo db.Repository, log *slog.Logger) *ConversionHandler {
	return &ConversionHandler{repo: repo, log: log}
}

type conversionResponse struct {
	ID         int64  `json:"id"`
	SourceText string `json:"source_text"`
	ResultText string `json:"result_text"`
	Direction  string `json:"direction"`
	Detected   bool   `json:"detected"`
	Source     string `json:"source"`
	CreatedAt  string `json:"created_at"`
}

type paginationMeta struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

type listResponse struct {
	Data       []conversionResponse `json:"data"`
	Pagination paginationMeta       `json:"pagination"`
}

func toConversionResponse(c db.Conversion, _ int) conversionResponse {
	return conversionResponse{
		ID:         c.ID,
		SourceText: c.SourceText,
		ResultText: c.ResultText,
		Direction:  c.Direction,
		Detected:   c.Detected,
		Source:     c.Source,
		CreatedAt:  c.CreatedAt.Format(time.RFC3339),
	}
}

func (h *ConversionHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	dir, err := transliteration.ParseDirection(q.Get("direction"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	source := q.Get("source")
	page, limit, offset := pagination(r)

	total, err := h.repo.CountConversions(r.Context(), db.CountConversionsParams{
		Direction: string(dir),
		Source:    source,
	})
	if err != nil {
		h.log.ErrorContext(r.Context(), "counting conversions", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	conversions, err := h.repo.ListConversions(r.Context(), db.ListConversionsParams{
		Direction: string(dir),
		Source:    source,
		Limit:     int32(limit),
		Offset:    int32(offset),
	})
	if err != nil {
		h.log.ErrorContext(r.Context(), "listing conversions", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, listResponse{
		Data: lo.Map(conversions, toConversionResponse),
		Pagination: paginationMeta{
			Page:  page,
			Limit: limit,
			Total: total,
		},
	})
}

func (h *ConversionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	c, err := h.repo.GetConversion(r.Context(), id)
	if err != nil {
		if db.IsNoRows(err) {
			writeError(w, http.StatusNotFound, "conversion not found")
			return
		}
		h.log.ErrorContext(r.Context(), "getting conversion", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toConversionResponse(c, 0))
}

// pagination reads page and limit, defaulting to page 1 of 25.
func pagination(r *http.Request) (page, limit, offset int) {
	q := r.URL.Query()
	page, _ = strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(q.Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 25
	}
	return page, limit, (page - 1) * limit
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
