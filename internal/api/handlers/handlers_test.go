package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/spendlens/spendlens/internal/domain"
	"github.com/spendlens/spendlens/internal/jobs"
	"github.com/spendlens/spendlens/internal/pipeline"
	"github.com/spendlens/spendlens/internal/session"
	"github.com/spendlens/spendlens/internal/statement"
)

type stubPublisher struct {
	published []*jobs.AnalyzeStatementJob
	err       error
}

func (p *stubPublisher) PublishAnalyzeStatement(_ context.Context, job *jobs.AnalyzeStatementJob) error {
	if p.err != nil {
		return p.err
	}
	job.JobID = "job-1"
	job.Status = jobs.JobStatusPending
	p.published = append(p.published, job)
	return nil
}

func (p *stubPublisher) Close() error { return nil }

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(content))
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func sampleSession(store *session.Store, degraded bool) *session.Session {
	return store.Create("export.csv", []domain.CategorizedTransaction{
		{
			RawTransaction: domain.RawTransaction{Date: "2024-01-05", Description: "COFFEE SHOP", Amount: -4.50},
			ID:             "tx-0",
			Category:       domain.CategoryDining,
			Confidence:     0.9,
		},
	}, degraded)
}

func TestUpload(t *testing.T) {
	pub := &stubPublisher{}
	h := NewStatementsHandler(pub, session.NewStore(), zerolog.Nop())

	body, contentType := multipartBody(t, "file", "export.csv", "Date,Description,Amount\n2024-01-05,SHOP,-1.00\n")
	req := httptest.NewRequest(http.MethodPost, "/api/statements", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.Upload(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp["jobId"] != "job-1" {
		t.Errorf("jobId = %q", resp["jobId"])
	}
	if len(pub.published) != 1 || pub.published[0].Filename != "export.csv" {
		t.Errorf("published = %+v", pub.published)
	}
}

func TestUploadMissingFile(t *testing.T) {
	h := NewStatementsHandler(&stubPublisher{}, session.NewStore(), zerolog.Nop())

	body, contentType := multipartBody(t, "wrong_field", "export.csv", "data")
	req := httptest.NewRequest(http.MethodPost, "/api/statements", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.Upload(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestDashboard(t *testing.T) {
	store := session.NewStore()
	sess := sampleSession(store, false)
	h := NewSessionsHandler(store, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+sess.ID+"/dashboard", nil)
	rec := httptest.NewRecorder()
	h.Dashboard(rec, req, sess.ID)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var dash pipeline.Dashboard
	if err := json.NewDecoder(rec.Body).Decode(&dash); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(dash.Transactions) != 1 || len(dash.Breakdown) != 1 {
		t.Errorf("dashboard = %+v", dash)
	}
	if dash.Warning != "" {
		t.Errorf("unexpected warning %q", dash.Warning)
	}
}

func TestDashboardDegradedWarning(t *testing.T) {
	store := session.NewStore()
	sess := sampleSession(store, true)
	h := NewSessionsHandler(store, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.Dashboard(rec, httptest.NewRequest(http.MethodGet, "/", nil), sess.ID)

	var dash pipeline.Dashboard
	json.NewDecoder(rec.Body).Decode(&dash)
	if dash.Warning != pipeline.CategorizationWarning {
		t.Errorf("warning = %q", dash.Warning)
	}
}

func TestDashboardUnknownSession(t *testing.T) {
	h := NewSessionsHandler(session.NewStore(), zerolog.Nop())
	rec := httptest.NewRecorder()
	h.Dashboard(rec, httptest.NewRequest(http.MethodGet, "/", nil), "nope")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestOverrideCategory(t *testing.T) {
	store := session.NewStore()
	sess := sampleSession(store, false)
	h := NewSessionsHandler(store, zerolog.Nop())

	body := strings.NewReader(`{"category":"Entertainment"}`)
	rec := httptest.NewRecorder()
	h.OverrideCategory(rec, httptest.NewRequest(http.MethodPut, "/", body), sess.ID, "tx-0")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	got, _ := store.Get(sess.ID)
	if got.Transactions[0].Category != domain.CategoryEntertainment || !got.Transactions[0].IsOverridden {
		t.Errorf("transaction = %+v", got.Transactions[0])
	}
}

func TestOverrideCategoryRejectsUnknown(t *testing.T) {
	store := session.NewStore()
	sess := sampleSession(store, false)
	h := NewSessionsHandler(store, zerolog.Nop())

	body := strings.NewReader(`{"category":"Gambling"}`)
	rec := httptest.NewRecorder()
	h.OverrideCategory(rec, httptest.NewRequest(http.MethodPut, "/", body), sess.ID, "tx-0")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestListCategories(t *testing.T) {
	h := NewCategoriesHandler()
	rec := httptest.NewRecorder()
	h.ListCategories(rec, httptest.NewRequest(http.MethodGet, "/api/categories", nil))

	var resp struct {
		Categories []domain.CategoryConfig `json:"categories"`
		Count      int                     `json:"count"`
	}
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Count != 12 || len(resp.Categories) != 12 {
		t.Errorf("count = %d, want the full closed set", resp.Count)
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{pipeline.ErrEmptyFile, http.StatusUnprocessableEntity},
		{pipeline.ErrTooManyRows, http.StatusUnprocessableEntity},
		{statement.ErrNotTextBased, http.StatusUnprocessableEntity},
		{statement.ErrNoTransactions, http.StatusUnprocessableEntity},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := ErrorStatus(tt.err); got != tt.want {
			t.Errorf("ErrorStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
