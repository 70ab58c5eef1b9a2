package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jusunglee/uzscript/internal/conversion"
	"github.com/jusunglee/uzscript/internal/transliteration"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

const (
	MaxBatchItems    = 100
	batchConcurrency = 8
)

type TransliterateHandler struct {
	conv *conversion.Converter
	log  *slog.Logger
}

func NewTransliterateHandler(conv *conversion.Converter, log *slog.Logger) *TransliterateHandler {
	return &TransliterateHandler{conv: conv, log: log}
}

type transliterateRequest struct {
	Text      string `json:"text"`
	Direction string `json:"direction"`
	Save      bool   `json:"save"`
}

type transliterateResponse struct {
	Result    string `json:"result"`
	Direction string `json:"direction"`
	Detected  bool   `json:"detected"`
	Spans     int    `json:"spans"`
	ID        int64  `json:"id,omitempty"`
}

func toTransliterateResponse(out conversion.Outcome) transliterateResponse {
	return transliterateResponse{
		Result:    out.Text,
		Direction: string(out.Direction),
		Detected:  out.Detected,
		Spans:     out.Spans,
		ID:        out.ID,
	}
}

func (h *TransliterateHandler) Transliterate(w http.ResponseWriter, r *http.Request) {
	var req transliterateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	dir, err := transliteration.ParseDirection(req.Direction)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := h.conv.Convert(r.Context(), conversion.Request{
		Text:      req.Text,
		Direction: dir,
		Source:    conversion.SourceWeb,
		Save:      req.Save,
	})
	if err != nil {
		if conversion.IsUserError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.ErrorContext(r.Context(), "transliterating", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toTransliterateResponse(out))
}

type batchItem struct {
	Text      string `json:"text"`
	Direction string `json:"direction"`
}

type batchRequest struct {
	Items     []batchItem `json:"items"`
	Direction string      `json:"direction"`
}

type batchResponse struct {
	Results []transliterateResponse `json:"results"`
}

func (h *TransliterateHandler) Batch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "items are required")
		return
	}
	if len(req.Items) > MaxBatchItems {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("at most %d items per batch", MaxBatchItems))
		return
	}

	defaultDir, err := transliteration.ParseDirection(req.Direction)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Validate everything up front so a bad item fails the whole batch
	// before any work is done.
	dirs := make([]transliteration.Direction, len(req.Items))
	for i, item := range req.Items {
		if err := conversion.ValidateText(item.Text); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("item %d: %v", i, err))
			return
		}
		dirs[i] = defaultDir
		if item.Direction != "" {
			d, err := transliteration.ParseDirection(item.Direction)
			if err != nil {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("item %d: %v", i, err))
				return
			}
			dirs[i] = d
		}
	}

	outcomes := make([]conversion.Outcome, len(req.Items))
	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(batchConcurrency)
	for i, item := range req.Items {
		g.Go(func() error {
			out, err := h.conv.Convert(ctx, conversion.Request{
				Text:      item.Text,
				Direction: dirs[i],
				Source:    conversion.SourceWeb,
			})
			if err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, r.Context().Err()) {
			return
		}
		h.log.ErrorContext(r.Context(), "batch transliteration", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, batchResponse{
		Results: lo.Map(outcomes, func(out conversion.Outcome, _ int) transliterateResponse {
			return toTransliterateResponse(out)
		}),
	})
}

type detectResponse struct {
	Script   string `json:"script"`
	Latin    int    `json:"latin"`
	Cyrillic int    `json:"cyrillic"`
}

func (h *TransliterateHandler) Detect(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("text")
	if len(text) > conversion.MaxTextBytes {
		writeError(w, http.StatusBadRequest, conversion.ErrTextTooLong.Error())
		return
	}

	d := h.conv.Detect(text)
	writeJSON(w, http.StatusOK, detectResponse{
		Script:   string(d.Script),
		Latin:    d.Latin,
		Cyrillic: d.Cyrillic,
	})
}
