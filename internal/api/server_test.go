package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MikeSquared-Agency/scribe/internal/servicenow"
	"github.com/MikeSquared-Agency/scribe/internal/summarizer"
	"github.com/MikeSquared-Agency/scribe/internal/transcript"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakePipeline struct {
	result     *summarizer.Result
	err        error
	transcript string
}

func (f *fakePipeline) Run(_ context.Context, text string) (*summarizer.Result, error) {
	f.transcript = text
	return f.result, f.err
}

type fakePusher struct {
	createFn func(servicenow.CreateStoryRequest) (*servicenow.Story, error)
	updateFn func(string, map[string]string) (*servicenow.Story, error)
}

func (f *fakePusher) CreateStory(_ context.Context, req servicenow.CreateStoryRequest) (*servicenow.Story, error) {
	return f.createFn(req)
}

func (f *fakePusher) UpdateStory(_ context.Context, fragment string, updates map[string]string) (*servicenow.Story, error) {
	return f.updateFn(fragment, updates)
}

func newTestServer(store transcript.Store, pipe TranscriptPipeline, pusher StoryPusher) *Server {
	if store == nil {
		store = transcript.NewMemoryStore()
	}
	return NewServer(8760, store, pipe, pusher, nil, discardLogger())
}

func multipartUpload(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	io.WriteString(fw, content)
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(nil, &fakePipeline{}, &fakePusher{})

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
}

func TestStatusEndpoint(t *testing.T) {
	srv := newTestServer(nil, &fakePipeline{}, &fakePusher{})

	req := httptest.NewRequest("GET", "/api/v1/scribe/status", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["agent"] != "scribe" {
		t.Errorf("expected agent scribe, got %q", body["agent"])
	}
}

func TestExtractTranscript_StoresText(t *testing.T) {
	store := transcript.NewMemoryStore()
	srv := newTestServer(store, &fakePipeline{}, &fakePusher{})

	buf, contentType := multipartUpload(t, "standup.txt", "Alice: shipped the exporter\n")
	req := httptest.NewRequest("POST", "/extract-transcript", buf)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["filename"] != "standup.txt" {
		t.Errorf("expected filename echoed, got %q", body["filename"])
	}
	if body["message"] == "" {
		t.Error("expected a message")
	}

	text, err := store.Get(context.Background(), "standup.txt")
	if err != nil {
		t.Fatalf("expected stored transcript: %v", err)
	}
	if text != "Alice: shipped the exporter\n" {
		t.Errorf("unexpected stored text %q", text)
	}
}

func TestExtractTranscript_UnsupportedExtension(t *testing.T) {
	srv := newTestServer(nil, &fakePipeline{}, &fakePusher{})

	buf, contentType := multipartUpload(t, "slides.pdf", "%PDF-1.4")
	req := httptest.NewRequest("POST", "/extract-transcript", buf)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), ".pdf") {
		t.Errorf("expected error naming the extension, got %s", w.Body.String())
	}
}

func TestExtractTranscript_MissingFilePart(t *testing.T) {
	srv := newTestServer(nil, &fakePipeline{}, &fakePusher{})

	req := httptest.NewRequest("POST", "/extract-transcript", strings.NewReader("not multipart"))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestSummarizeTranscript(t *testing.T) {
	store := transcript.NewMemoryStore()
	store.Put(context.Background(), "standup.txt", "the transcript")
	pipe := &fakePipeline{result: &summarizer.Result{
		Summary:   "short recap",
		Requestor: &summarizer.Requestor{User: "Ana", ID: "a@b.com", SysID: "X"},
	}}
	srv := newTestServer(store, pipe, &fakePusher{})

	req := httptest.NewRequest("GET", "/summarize-transcript/standup.txt", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if pipe.transcript != "the transcript" {
		t.Errorf("pipeline received %q", pipe.transcript)
	}

	var result summarizer.Result
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.Summary != "short recap" {
		t.Errorf("expected summary, got %q", result.Summary)
	}
	if result.Requestor == nil || result.Requestor.SysID != "X" {
		t.Errorf("expected enriched requestor, got %+v", result.Requestor)
	}
}

func TestSummarizeTranscript_UnknownFilename(t *testing.T) {
	srv := newTestServer(nil, &fakePipeline{}, &fakePusher{})

	req := httptest.NewRequest("GET", "/summarize-transcript/missing.txt", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestSummarizeTranscript_PipelineFailure(t *testing.T) {
	store := transcript.NewMemoryStore()
	store.Put(context.Background(), "standup.txt", "text")
	pipe := &fakePipeline{err: errors.New("no json block found in model response: garbage")}
	srv := newTestServer(store, pipe, &fakePusher{})

	req := httptest.NewRequest("GET", "/summarize-transcript/standup.txt", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "no json block") {
		t.Errorf("expected pipeline error surfaced, got %s", w.Body.String())
	}
}

func TestPushStories_EmptyBatch(t *testing.T) {
	srv := newTestServer(nil, &fakePipeline{}, &fakePusher{})

	body := `{"requestor_sys_id":"abc","confirmed_stories":[]}`
	req := httptest.NewRequest("POST", "/push-stories", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestPushStories_InvalidJSON(t *testing.T) {
	srv := newTestServer(nil, &fakePipeline{}, &fakePusher{})

	req := httptest.NewRequest("POST", "/push-stories", strings.NewReader("{nope"))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestPushStories_PerItemFailureIsolated(t *testing.T) {
	pusher := &fakePusher{
		createFn: func(req servicenow.CreateStoryRequest) (*servicenow.Story, error) {
			if req.ShortDescription == "second story" {
				return nil, errors.New("servicenow api error 403: insufficient rights")
			}
			return &servicenow.Story{
				SysID:            "sys-" + req.ShortDescription,
				Number:           "STRY-" + req.ShortDescription,
				ShortDescription: req.ShortDescription,
			}, nil
		},
	}
	srv := newTestServer(nil, &fakePipeline{}, pusher)

	body := `{
		"requestor_sys_id": "abc",
		"confirmed_stories": [
			{"short_desc": "first story", "acceptance_criteria": "a", "action_type": "create"},
			{"short_desc": "second story", "acceptance_criteria": "b", "action_type": "create"},
			{"short_desc": "third story", "acceptance_criteria": "c", "action_type": "create"}
		]
	}`
	req := httptest.NewRequest("POST", "/push-stories", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp PushStoriesResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.CreatedStories) != 3 {
		t.Fatalf("expected 3 result slots, got %d", len(resp.CreatedStories))
	}

	if resp.CreatedStories[0].Number != "STRY-first story" || resp.CreatedStories[0].Error != "" {
		t.Errorf("unexpected first result %+v", resp.CreatedStories[0])
	}
	if resp.CreatedStories[1].Error == "" || resp.CreatedStories[1].ShortDesc != "second story" {
		t.Errorf("expected error slot echoing short_desc, got %+v", resp.CreatedStories[1])
	}
	if resp.CreatedStories[2].Number != "STRY-third story" || resp.CreatedStories[2].Error != "" {
		t.Errorf("unexpected third result %+v", resp.CreatedStories[2])
	}
}

func TestPushStories_UpdateNotFound(t *testing.T) {
	pusher := &fakePusher{
		updateFn: func(fragment string, updates map[string]string) (*servicenow.Story, error) {
			return nil, nil
		},
	}
	srv := newTestServer(nil, &fakePipeline{}, pusher)

	body := `{
		"requestor_sys_id": "abc",
		"confirmed_stories": [
			{"short_desc": "vanished story", "acceptance_criteria": "x", "action_type": "update"}
		]
	}`
	req := httptest.NewRequest("POST", "/push-stories", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp PushStoriesResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.CreatedStories) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(resp.CreatedStories))
	}
	if resp.CreatedStories[0].Error != "story not found" {
		t.Errorf("expected story not found error, got %+v", resp.CreatedStories[0])
	}
}

func TestPushStories_UpdateSuccess(t *testing.T) {
	var gotFragment string
	var gotUpdates map[string]string
	pusher := &fakePusher{
		updateFn: func(fragment string, updates map[string]string) (*servicenow.Story, error) {
			gotFragment = fragment
			gotUpdates = updates
			return &servicenow.Story{
				SysID:              "s1",
				Number:             "STRY1",
				ShortDescription:   "Add invoice export",
				AcceptanceCriteria: "new criteria",
			}, nil
		},
	}
	srv := newTestServer(nil, &fakePipeline{}, pusher)

	body := `{
		"requestor_sys_id": "abc",
		"confirmed_stories": [
			{"short_desc": "invoice export", "acceptance_criteria": "new criteria", "action_type": "update"}
		]
	}`
	req := httptest.NewRequest("POST", "/push-stories", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if gotFragment != "invoice export" {
		t.Errorf("expected fragment passed through, got %q", gotFragment)
	}
	if gotUpdates["acceptance_criteria"] != "new criteria" {
		t.Errorf("unexpected updates %+v", gotUpdates)
	}

	var resp PushStoriesResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.CreatedStories[0].Number != "STRY1" {
		t.Errorf("unexpected result %+v", resp.CreatedStories[0])
	}
}

func TestPushStories_UnknownAction(t *testing.T) {
	srv := newTestServer(nil, &fakePipeline{}, &fakePusher{})

	body := `{
		"requestor_sys_id": "abc",
		"confirmed_stories": [
			{"short_desc": "a story", "action_type": "delete"}
		]
	}`
	req := httptest.NewRequest("POST", "/push-stories", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp PushStoriesResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !strings.Contains(resp.CreatedStories[0].Error, "unknown action_type") {
		t.Errorf("expected unknown action error, got %+v", resp.CreatedStories[0])
	}
}
