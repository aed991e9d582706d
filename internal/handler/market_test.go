package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/votemamu/web/internal/api"
)

func TestDownloadReportsConfiguredPause(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"success":true,"data":{"enable_download":true,"download_urls":["https://files.example/a.zip","https://files.example/b.zip"]}}`)
	}))
	t.Cleanup(srv.Close)

	h := NewMarketHandler(api.New(srv.URL), "", 12, nil)
	h.Pause = 250 * time.Millisecond
	e := newEcho(t)
	e.POST("/market/products/:slug/download", h.Download)

	rec := serve(e, http.MethodPost, "/market/products/flyer/download", echo.MIMEApplicationJSON,
		[]byte(`{"name":"Rahim","phone":"01712345678"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["pause_ms"] != float64(250) {
		t.Fatalf("pause_ms = %v", body["pause_ms"])
	}
	if urls := body["download_urls"].([]any); len(urls) != 2 {
		t.Fatalf("urls = %v", urls)
	}
}

func TestDownloadValidatesLocally(t *testing.T) {
	h := NewMarketHandler(api.New("http://127.0.0.1:1"), "", 12, nil)
	e := newEcho(t)
	e.POST("/market/products/:slug/download", h.Download)

	rec := serve(e, http.MethodPost, "/market/products/flyer/download", echo.MIMEApplicationJSON, []byte(`{"name":"R"}`))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
}
