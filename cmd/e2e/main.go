package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/jusunglee/uzscript/internal/conversion"
	"github.com/jusunglee/uzscript/internal/db/sqlite"
	"github.com/jusunglee/uzscript/internal/logger"
	"github.com/jusunglee/uzscript/internal/web"
)

// roundTrips are Latin inputs whose Cyrillic rendering converts back to
// the same Latin text.
var roundTrips = []struct {
	latin    string
	cyrillic string
}{
	{"Salom, dunyo!", "Салом, дунё!"},
	{"O'zbekiston Respublikasi", "Ўзбекистон Республикаси"},
	{"G'ayrat choy ichdi", "Ғайрат чой ичди"},
	{"<a href=\"https://kun.uz\">Yangiliklar</a>", "<a href=\"https://kun.uz\">Янгиликлар</a>"},
}

func main() {
	if err := run(); err != nil {
		slog.Error("E2E FAILED", "error", err)
		os.Exit(1)
	}
	slog.Info("E2E PASSED")
}

func run() error {
	_ = godotenv.Load()

	log := logger.New()
	ctx := context.Background()

	// Phase 1: point at a running server or start one on a temp database
	baseURL := os.Getenv("E2E_BASE_URL")
	if baseURL == "" {
		log.Info("Phase 1: starting in-process server on temp SQLite...")
		dbPath := fmt.Sprintf("/tmp/uzscript-e2e-%d.db", time.Now().UnixNano())
		defer os.Remove(dbPath)

		repo, err := sqlite.New(ctx, dbPath)
		if err != nil {
			return fmt.Errorf("creating temp SQLite: %w", err)
		}
		defer repo.Close()

		router := web.NewRouter(repo, conversion.NewConverter(repo, log), log, web.Config{})
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("listening: %w", err)
		}
		server := &http.Server{Handler: router.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go server.Serve(ln)
		defer server.Close()

		baseURL = "http://" + ln.Addr().String()
	}
	log.Info("using server", "base_url", baseURL)

	client := &http.Client{Timeout: 10 * time.Second}

	// Phase 2: round trips in both directions
	log.Info("Phase 2: checking round trips...", "cases", len(roundTrips))
	for _, rt := range roundTrips {
		var toCyr, toLat transliterateResult
		if err := post(client, baseURL+"/api/v1/transliterate", map[string]any{"text": rt.latin}, &toCyr); err != nil {
			return fmt.Errorf("transliterating %q: %w", rt.latin, err)
		}
		if toCyr.Result != rt.cyrillic || toCyr.Direction != "latin-to-cyrillic" {
			return fmt.Errorf("latin %q: got %q (%s), want %q", rt.latin, toCyr.Result, toCyr.Direction, rt.cyrillic)
		}
		if err := post(client, baseURL+"/api/v1/transliterate", map[string]any{"text": toCyr.Result}, &toLat); err != nil {
			return fmt.Errorf("transliterating %q: %w", toCyr.Result, err)
		}
		if toLat.Result != rt.latin {
			return fmt.Errorf("round trip of %q came back as %q", rt.latin, toLat.Result)
		}
		log.Info("round trip ok", "latin", rt.latin, "cyrillic", toCyr.Result)
	}

	// Phase 3: saved conversion, fetch, feedback
	log.Info("Phase 3: saving a conversion and leaving feedback...")
	var saved transliterateResult
	if err := post(client, baseURL+"/api/v1/transliterate", map[string]any{"text": "Toshkent", "save": true}, &saved); err != nil {
		return fmt.Errorf("saving conversion: %w", err)
	}
	if saved.ID == 0 {
		return errors.New("saved conversion has no id")
	}

	var fetched struct {
		ResultText string `json:"result_text"`
	}
	if err := get(client, fmt.Sprintf("%s/api/v1/conversions/%d", baseURL, saved.ID), &fetched); err != nil {
		return fmt.Errorf("fetching conversion %d: %w", saved.ID, err)
	}
	if fetched.ResultText != "Тошкент" {
		return fmt.Errorf("stored result is %q, want %q", fetched.ResultText, "Тошкент")
	}

	var fb struct {
		ID int64 `json:"id"`
	}
	if err := post(client, fmt.Sprintf("%s/api/v1/conversions/%d/feedback", baseURL, saved.ID), map[string]any{"text": "looks right"}, &fb); err != nil {
		return fmt.Errorf("creating feedback: %w", err)
	}
	log.Info("feedback stored", "conversion_id", saved.ID, "feedback_id", fb.ID)

	// Phase 4: detection
	log.Info("Phase 4: checking detection...")
	var det struct {
		Script string `json:"script"`
	}
	if err := get(client, baseURL+"/api/v1/detect?text=%D0%A1%D0%B0%D0%BB%D0%BE%D0%BC", &det); err != nil {
		return fmt.Errorf("detecting script: %w", err)
	}
	if det.Script != "cyrillic" {
		return fmt.Errorf("detected %q, want cyrillic", det.Script)
	}

	log.Info("all verifications passed", "round_trips", len(roundTrips), "conversion_id", saved.ID)
	return nil
}

type transliterateResult struct {
	Result    string `json:"result"`
	Direction string `json:"direction"`
	ID        int64  `json:"id"`
}

func post(client *http.Client, url string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		return err
	}
	return decode(resp, out)
}

func get(client *http.Client, url string, out any) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	return decode(resp, out)
}

func decode(resp *http.Response, out any) error {
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
