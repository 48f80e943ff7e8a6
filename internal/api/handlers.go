package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/MikeSquared-Agency/scribe/internal/hermes"
	"github.com/MikeSquared-Agency/scribe/internal/servicenow"
	"github.com/MikeSquared-Agency/scribe/internal/transcript"
)

// StoryItem is one confirmed story action in a push batch.
type StoryItem struct {
	ShortDesc          string `json:"short_desc"`
	AcceptanceCriteria string `json:"acceptance_criteria,omitempty"`
	ActionType         string `json:"action_type"` // "create" | "update"
}

type PushStoriesRequest struct {
	RequestorSysID   string      `json:"requestor_sys_id"`
	ConfirmedStories []StoryItem `json:"confirmed_stories"`
}

// StoryResult is one slot of the push response: either a created/updated
// record or an error echoing the input's short_desc.
type StoryResult struct {
	SysID              string `json:"sys_id,omitempty"`
	Number             string `json:"number,omitempty"`
	ShortDescription   string `json:"short_description,omitempty"`
	AcceptanceCriteria string `json:"acceptance_criteria,omitempty"`
	ShortDesc          string `json:"short_desc,omitempty"`
	Error              string `json:"error,omitempty"`
}

type PushStoriesResponse struct {
	CreatedStories []StoryResult `json:"created_stories"`
}

// extractTranscript handles POST /extract-transcript (multipart "file").
func (s *Server) extractTranscript(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, fmt.Sprintf(`{"error":"missing file upload: %v"}`, err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, fmt.Sprintf(`{"error":"read upload: %v"}`, err), http.StatusInternalServerError)
		return
	}

	ext := filepath.Ext(header.Filename)
	text, err := transcript.Read(data, ext)
	if err != nil {
		if errors.Is(err, transcript.ErrUnsupportedType) {
			http.Error(w, fmt.Sprintf(`{"error":"%v"}`, err), http.StatusBadRequest)
			return
		}
		http.Error(w, fmt.Sprintf(`{"error":"error reading file: %v"}`, err), http.StatusInternalServerError)
		return
	}

	id, err := s.store.Put(r.Context(), header.Filename, text)
	if err != nil {
		http.Error(w, fmt.Sprintf(`{"error":"store transcript: %v"}`, err), http.StatusInternalServerError)
		return
	}

	s.logger.Info("transcript stored", "filename", header.Filename, "id", id, "bytes", len(text))
	s.publish(hermes.SubjectTranscriptStored, hermes.TranscriptStoredEvent{
		Filename: header.Filename,
		ID:       id.String(),
		Bytes:    len(text),
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message":  "Upload successful!",
		"filename": header.Filename,
	})
}

// summarizeTranscript handles GET /summarize-transcript/{filename}.
func (s *Server) summarizeTranscript(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	text, err := s.store.Get(r.Context(), filename)
	if err != nil {
		if errors.Is(err, transcript.ErrNotFound) {
			http.Error(w, fmt.Sprintf(`{"error":"transcript not found: %s"}`, filename), http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf(`{"error":"load transcript: %v"}`, err), http.StatusInternalServerError)
		return
	}

	result, err := s.pipe.Run(r.Context(), text)
	if err != nil {
		http.Error(w, fmt.Sprintf(`{"error":"summarize failed: %v"}`, err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// pushStories handles POST /push-stories. Items are processed one at a
// time in input order; one item's failure is recorded in its result slot
// and never aborts the batch.
func (s *Server) pushStories(w http.ResponseWriter, r *http.Request) {
	var req PushStoriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":"invalid JSON: %v"}`, err), http.StatusBadRequest)
		return
	}
	if len(req.ConfirmedStories) == 0 {
		http.Error(w, `{"error":"confirmed_stories must not be empty"}`, http.StatusBadRequest)
		return
	}

	results := make([]StoryResult, 0, len(req.ConfirmedStories))
	failed := 0

	for _, item := range req.ConfirmedStories {
		switch item.ActionType {
		case "create":
			story, err := s.stories.CreateStory(r.Context(), servicenow.CreateStoryRequest{
				RequestedForSysID:  req.RequestorSysID,
				ShortDescription:   item.ShortDesc,
				AcceptanceCriteria: item.AcceptanceCriteria,
			})
			if err != nil {
				s.logger.Warn("story create failed", "short_desc", item.ShortDesc, "error", err)
				results = append(results, StoryResult{ShortDesc: item.ShortDesc, Error: err.Error()})
				failed++
				continue
			}
			results = append(results, storyResult(story))

		case "update":
			updates := map[string]string{}
			if item.AcceptanceCriteria != "" {
				updates["acceptance_criteria"] = item.AcceptanceCriteria
			}
			story, err := s.stories.UpdateStory(r.Context(), item.ShortDesc, updates)
			if err != nil {
				s.logger.Warn("story update failed", "short_desc", item.ShortDesc, "error", err)
				results = append(results, StoryResult{ShortDesc: item.ShortDesc, Error: err.Error()})
				failed++
				continue
			}
			if story == nil {
				results = append(results, StoryResult{ShortDesc: item.ShortDesc, Error: "story not found"})
				failed++
				continue
			}
			results = append(results, storyResult(story))

		default:
			results = append(results, StoryResult{
				ShortDesc: item.ShortDesc,
				Error:     fmt.Sprintf("unknown action_type: %s", item.ActionType),
			})
			failed++
		}
	}

	s.logger.Info("push batch complete", "count", len(results), "failed", failed)
	s.publish(hermes.SubjectStoriesPushed, hermes.StoriesPushedEvent{
		Count:  len(results),
		Failed: failed,
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(PushStoriesResponse{CreatedStories: results})
}

func storyResult(story *servicenow.Story) StoryResult {
	return StoryResult{
		SysID:              story.SysID,
		Number:             story.Number,
		ShortDescription:   story.ShortDescription,
		AcceptanceCriteria: story.AcceptanceCriteria,
	}
}

func (s *Server) publish(subject string, data any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(subject, data); err != nil {
		s.logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}
