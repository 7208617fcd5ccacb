package scan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestService(t *testing.T, malicious bool, completeAfter int) *httptest.Server {
	t.Helper()

	polls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/files", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-apikey") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f, header, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer f.Close()
		if header.Filename == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		io.Copy(io.Discard, f)
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"id": "analysis-42"},
		})
	})
	mux.HandleFunc("/analyses/analysis-42", func(w http.ResponseWriter, r *http.Request) {
		polls++
		status := "completed"
		if polls < completeAfter {
			status = "queued"
		}
		maliciousCount := 0
		if malicious {
			maliciousCount = 3
		}
		fmt.Fprintf(w, `{"data":{"attributes":{"status":%q,"stats":{"malicious":%d,"suspicious":0}}}}`,
			status, maliciousCount)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestScanner(srv *httptest.Server) *HTTPScanner {
	s := NewHTTPScanner(srv.URL, "secret")
	s.pollInterval = time.Millisecond
	return s
}

func TestScanClean(t *testing.T) {
	srv := newTestService(t, false, 1)
	s := newTestScanner(srv)

	v, err := s.Scan(context.Background(), "doc.pdf", strings.NewReader("content"))
	if err != nil {
		t.Fatalf("Scan() err = %v, want nil", err)
	}
	if v.Malicious {
		t.Error("Scan() Malicious = true, want false")
	}
	if v.AnalysisID != "analysis-42" {
		t.Errorf("AnalysisID = %q, want analysis-42", v.AnalysisID)
	}
}

func TestScanMalicious(t *testing.T) {
	srv := newTestService(t, true, 1)
	s := newTestScanner(srv)

	v, err := s.Scan(context.Background(), "payload.exe", strings.NewReader("evil"))
	if err != nil {
		t.Fatalf("Scan() err = %v, want nil", err)
	}
	if !v.Malicious {
		t.Error("Scan() Malicious = false, want true")
	}
}

func TestScanPollsUntilComplete(t *testing.T) {
	srv := newTestService(t, false, 3)
	s := newTestScanner(srv)

	if _, err := s.Scan(context.Background(), "doc.pdf", strings.NewReader("x")); err != nil {
		t.Fatalf("Scan() err = %v, want nil", err)
	}
}

func TestScanGivesUpAfterMaxPolls(t *testing.T) {
	srv := newTestService(t, false, 100)
	s := newTestScanner(srv)
	s.maxPolls = 2

	if _, err := s.Scan(context.Background(), "doc.pdf", strings.NewReader("x")); err == nil {
		t.Fatal("Scan() err = nil, want timeout error")
	}
}

func TestScanBadAPIKey(t *testing.T) {
	srv := newTestService(t, false, 1)
	s := NewHTTPScanner(srv.URL, "wrong")
	s.pollInterval = time.Millisecond

	if _, err := s.Scan(context.Background(), "doc.pdf", strings.NewReader("x")); err == nil {
		t.Fatal("Scan() err = nil, want error on 401")
	}
}
