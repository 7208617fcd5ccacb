// Package scan checks attachment uploads against a malware analysis
// service before they are allowed to persist.
package scan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Verdict is the outcome of scanning one file.
type Verdict struct {
	// Malicious is true when at least one analysis engine flagged the file.
	Malicious bool
	// AnalysisID identifies the analysis on the remote service.
	AnalysisID string
}

// Scanner decides whether an uploaded file is safe to store.
type Scanner interface {
	Scan(ctx context.Context, fileName string, r io.Reader) (Verdict, error)
}

// HTTPScanner submits files to a VirusTotal-compatible v3 API and polls
// the resulting analysis until it completes.
type HTTPScanner struct {
	baseURL      string
	apiKey       string
	httpClient   *http.Client
	pollInterval time.Duration
	maxPolls     int
}

// NewHTTPScanner creates a scanner against the given API root
// (e.g. https://www.virustotal.com/api/v3).
func NewHTTPScanner(baseURL, apiKey string) *HTTPScanner {
	return &HTTPScanner{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		pollInterval: 2 * time.Second,
		maxPolls:     15,
	}
}

type uploadResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

type analysisResponse struct {
	Data struct {
		Attributes struct {
			Status string `json:"status"`
			Stats  struct {
				Malicious  int `json:"malicious"`
				Suspicious int `json:"suspicious"`
			} `json:"stats"`
		} `json:"attributes"`
	} `json:"data"`
}

// Scan uploads the file and waits for the analysis verdict. The file is
// malicious when any engine reported it so.
func (s *HTTPScanner) Scan(ctx context.Context, fileName string, r io.Reader) (Verdict, error) {
	analysisID, err := s.upload(ctx, fileName, r)
	if err != nil {
		return Verdict{}, err
	}

	for attempt := 0; attempt < s.maxPolls; attempt++ {
		analysis, err := s.fetchAnalysis(ctx, analysisID)
		if err != nil {
			return Verdict{}, err
		}
		if analysis.Data.Attributes.Status == "completed" {
			return Verdict{
				Malicious:  analysis.Data.Attributes.Stats.Malicious > 0,
				AnalysisID: analysisID,
			}, nil
		}

		select {
		case <-ctx.Done():
			return Verdict{}, ctx.Err()
		case <-time.After(s.pollInterval):
		}
	}

	return Verdict{}, fmt.Errorf("analysis %s did not complete after %d polls", analysisID, s.maxPolls)
}

// upload posts the file as multipart form data and returns the analysis id.
func (s *HTTPScanner) upload(ctx context.Context, fileName string, r io.Reader) (string, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", fileName)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, r); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/files", pr)
	if err != nil {
		return "", fmt.Errorf("creating upload request: %w", err)
	}
	req.Header.Set("x-apikey", s.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", fileName, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading upload response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %d uploading %s: %s", resp.StatusCode, fileName, string(body))
	}

	var parsed uploadResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("unmarshaling upload response: %w", err)
	}
	if parsed.Data.ID == "" {
		return "", fmt.Errorf("upload response for %s carried no analysis id", fileName)
	}
	return parsed.Data.ID, nil
}

// fetchAnalysis retrieves the current state of an analysis.
func (s *HTTPScanner) fetchAnalysis(ctx context.Context, analysisID string) (*analysisResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/analyses/"+analysisID, nil)
	if err != nil {
		return nil, fmt.Errorf("creating analysis request: %w", err)
	}
	req.Header.Set("x-apikey", s.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching analysis %s: %w", analysisID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading analysis response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d fetching analysis %s: %s", resp.StatusCode, analysisID, string(body))
	}

	var parsed analysisResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshaling analysis response: %w", err)
	}
	return &parsed, nil
}
