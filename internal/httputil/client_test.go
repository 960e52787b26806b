package httputil

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andybalholm/brotli"
)

func TestGetDecodesBrotli(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		bw := brotli.NewWriter(&buf)
		bw.Write([]byte(`{"date":"2025-03-14"}`))
		bw.Close()
		w.Header().Set("Content-Encoding", "br")
		w.Write(buf.Bytes())
	}))
	defer srv.Close()

	body, err := Get(context.Background(), NewHTTPClient(nil, 0), srv.URL, 0)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(body) != `{"date":"2025-03-14"}` {
		t.Fatalf("body = %q", body)
	}
}

func TestGetNonSuccessIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := Get(context.Background(), NewHTTPClient(nil, 0), srv.URL+"/latest.json", 1)
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusNotFound {
		t.Fatalf("want 404 StatusError, got %v", err)
	}
}

func TestDoWithRetryRecoversFrom5xx(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	page, err := NewPageFetcher(NewHTTPClient(nil, 0), 2).Fetch(context.Background(), srv.URL)
	if err != nil || page != "<html></html>" || calls != 2 {
		t.Fatalf("page=%q err=%v calls=%d", page, err, calls)
	}
}
