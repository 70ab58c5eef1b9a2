package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/jusunglee/uzscript/internal/conversion"
	"github.com/jusunglee/uzscript/internal/db"
	"github.com/samber/lo"
)

type FeedbackHandler struct {
	conv *conversion.Converter
	repo db.Repository
	log  *slog.Logger
}

func NewFeedbackHandler(conv *conversion.Converter, repo db.Repository, log *slog.Logger) *FeedbackHandler {
	return &FeedbackHandler{conv: conv, repo: repo, log: log}
}

type createFeedbackRequest struct {
	Text string `json:"text"`
}

type feedbackResponse struct {
	ID           int64  `json:"id"`
	ConversionID int64  `json:"conversion_id"`
	FeedbackText string `json:"feedback_text"`
	CreatedAt    string `json:"created_at"`
}

type adminFeedbackRow struct {
	ID               int64  `json:"id"`
	ConversionID     *int64 `json:"conversion_id,omitempty"`
	DiscordMessageID string `json:"discord_message_id,omitempty"`
	FeedbackText     string `json:"feedback_text"`
	SourceText       string `json:"source_text,omitempty"`
	ResultText       string `json:"result_text,omitempty"`
	CreatedAt        string `json:"created_at"`
}

func (h *FeedbackHandler) Create(w http.ResponseWriter, r *http.Request) {
	conversionID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || conversionID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req createFeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	fb, err := h.conv.SubmitFeedback(r.Context(), conversion.FeedbackRequest{
		ConversionID: conversionID,
		Text:         req.Text,
		Source:       conversion.SourceWeb,
	})
	if err != nil {
		switch {
		case errors.Is(err, conversion.ErrConversionNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case conversion.IsUserError(err):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.log.ErrorContext(r.Context(), "creating feedback", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, feedbackResponse{
		ID:           fb.ID,
		ConversionID: fb.ConversionID.Int64,
		FeedbackText: fb.FeedbackText,
		CreatedAt:    fb.CreatedAt.Format(time.RFC3339),
	})
}

func (h *FeedbackHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit, offset := pagination(r)

	total, err := h.repo.CountFeedback(r.Context())
	if err != nil {
		h.log.ErrorContext(r.Context(), "counting feedback", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	rows, err := h.repo.ListFeedback(r.Context(), db.ListFeedbackParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		h.log.ErrorContext(r.Context(), "listing feedback", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	data := lo.Map(rows, func(row db.ListFeedbackRow, _ int) adminFeedbackRow {
		out := adminFeedbackRow{
			ID:               row.ID,
			DiscordMessageID: row.DiscordMessageID.String,
			FeedbackText:     row.FeedbackText,
			SourceText:       row.SourceText.String,
			ResultText:       row.ResultText.String,
			CreatedAt:        row.CreatedAt.Format(time.RFC3339),
		}
		if row.ConversionID.Valid {
			out.ConversionID = lo.ToPtr(row.ConversionID.Int64)
		}
		return out
	})

	writeJSON(w, http.StatusOK, struct {
		Data       []adminFeedbackRow `json:"data"`
		Pagination paginationMeta     `json:"pagination"`
	}{
		Data: data,
		Pagination: paginationMeta{
			Page:  page,
			Limit: limit,
			Total: total,
		},
	})
}
