package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kje0316/persona-signal-welfare/internal/consult"
	"github.com/kje0316/persona-signal-welfare/internal/domain"
	"github.com/kje0316/persona-signal-welfare/internal/welfare"
)

// chatRequest accepts both request shapes: a session-scoped message
// ({message, session_id}) and the stateless profile-carrying variant
// ({message, user_profile, conversation_history}).
type chatRequest struct {
	Message             string          `json:"message"`
	SessionID           string          `json:"session_id"`
	UserProfile         *domain.Profile `json:"user_profile"`
	ConversationHistory []historyEntry  `json:"conversation_history"`
}

type historyEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Response        string    `json:"response"`
	SessionID       string    `json:"session_id"`
	Timestamp       time.Time `json:"timestamp"`
	Sources         []string  `json:"sources,omitempty"`
	ShowReportLink  bool      `json:"show_report_link,omitempty"`
	ShowPDFDownload bool      `json:"show_pdf_download,omitempty"`
	Finished        bool      `json:"finished,omitempty"`
}

// HandleChat exchanges one chat turn: persist the user message, select
// the scripted reply, persist and return it.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		Error(w, http.StatusBadRequest, "message is required")
		return
	}

	ctx := r.Context()
	sess, _, err := h.sessions.Resolve(ctx, req.SessionID)
	if err != nil {
		slog.Error("failed to resolve chat session", "error", err)
		Error(w, http.StatusInternalServerError, "failed to resolve session")
		return
	}

	if sess.Profile == nil && req.UserProfile != nil && req.UserProfile.Complete() {
		if err := h.sessions.AttachProfile(ctx, sess.SessionID, req.UserProfile); err != nil {
			slog.Warn("failed to attach profile", "session_id", sess.SessionID, "error", err)
		} else {
			sess.Profile = req.UserProfile
		}
	}

	now := time.Now()
	userMsg := &domain.Message{
		ID:        uuid.NewString(),
		Content:   req.Message,
		Sender:    domain.SenderUser,
		Timestamp: now,
	}
	if err := h.repo.AppendMessage(ctx, sess.SessionID, userMsg); err != nil {
		slog.Error("failed to persist user message", "session_id", sess.SessionID, "error", err)
		JSON(w, http.StatusOK, chatResponse{
			Response:  consult.FallbackMessage,
			SessionID: sess.SessionID,
			Timestamp: now,
		})
		return
	}

	turn, err := h.userTurnCount(r, sess.SessionID, req.ConversationHistory)
	if err != nil {
		slog.Error("failed to count conversation turns", "session_id", sess.SessionID, "error", err)
		JSON(w, http.StatusOK, chatResponse{
			Response:  consult.FallbackMessage,
			SessionID: sess.SessionID,
			Timestamp: now,
		})
		return
	}

	reply := consult.Respond(sess.Profile, turn, req.Message)
	aiMsg := &domain.Message{
		ID:              uuid.NewString(),
		Content:         reply.Content,
		Sender:          domain.SenderAI,
		Timestamp:       time.Now(),
		ShowReportLink:  reply.ShowReportLink,
		ShowPDFDownload: reply.ShowPDFDownload,
	}
	if err := h.repo.AppendMessage(ctx, sess.SessionID, aiMsg); err != nil {
		slog.Warn("failed to persist reply", "session_id", sess.SessionID, "error", err)
	}

	JSON(w, http.StatusOK, chatResponse{
		Response:        reply.Content,
		SessionID:       sess.SessionID,
		Timestamp:       aiMsg.Timestamp,
		Sources:         aiMsg.Sources,
		ShowReportLink:  reply.ShowReportLink,
		ShowPDFDownload: reply.ShowPDFDownload,
		Finished:        reply.Finished,
	})
}

// userTurnCount determines the accumulated user-message count. Stored
// history wins; a stateless client's provided history seeds the count
// when the store only has the current message.
func (h *Handler) userTurnCount(r *http.Request, sessionID string, provided []historyEntry) (int, error) {
	stored, err := h.repo.GetMessages(r.Context(), sessionID, 0)
	if err != nil {
		return 0, err
	}
	turn := domain.UserMessageCount(stored)

	providedTurn := 1
	for _, entry := range provided {
		if entry.Role == "user" {
			providedTurn++
		}
	}
	if providedTurn > turn {
		turn = providedTurn
	}
	return turn, nil
}

// HandleCreateSession issues a fresh server-side session.
func (h *Handler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Profile *domain.Profile `json:"profile"`
	}
	if r.Body != nil {
		// Body is optional; a bare POST creates a profile-less session.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	sess, err := h.sessions.Issue(r.Context(), req.Profile)
	if err != nil {
		slog.Error("failed to issue session", "error", err)
		Error(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	if sess.Profile != nil {
		greeting := &domain.Message{
			ID:        uuid.NewString(),
			Content:   consult.Greeting(sess.Profile),
			Sender:    domain.SenderAI,
			Timestamp: time.Now(),
		}
		if err := h.repo.AppendMessage(r.Context(), sess.SessionID, greeting); err != nil {
			slog.Warn("failed to persist greeting", "session_id", sess.SessionID, "error", err)
		}
	}

	JSON(w, http.StatusCreated, sess)
}

// HandleGetSession returns a session's state by id.
func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		slog.Error("failed to load session", "session_id", id, "error", err)
		Error(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	if sess == nil {
		Error(w, http.StatusNotFound, "session not found")
		return
	}
	JSON(w, http.StatusOK, sess)
}

// HandleDeleteSession discards a session and its conversation.
func (h *Handler) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.sessions.Reset(r.Context(), id); err != nil {
		slog.Error("failed to reset session", "session_id", id, "error", err)
		Error(w, http.StatusInternalServerError, "failed to reset session")
		return
	}
	JSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleAttachProfile stores a completed profile on a session and moves
// it to the preview phase.
func (h *Handler) HandleAttachProfile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var profile domain.Profile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !profile.Complete() {
		Error(w, http.StatusBadRequest, "profile is incomplete")
		return
	}

	sess, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		Error(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	if sess == nil {
		Error(w, http.StatusNotFound, "session not found")
		return
	}

	if err := h.sessions.AttachProfile(r.Context(), id, &profile); err != nil {
		slog.Error("failed to attach profile", "session_id", id, "error", err)
		Error(w, http.StatusInternalServerError, "failed to attach profile")
		return
	}

	greeting := &domain.Message{
		ID:        uuid.NewString(),
		Content:   consult.Greeting(&profile),
		Sender:    domain.SenderAI,
		Timestamp: time.Now(),
	}
	if err := h.repo.AppendMessage(r.Context(), id, greeting); err != nil {
		slog.Warn("failed to persist greeting", "session_id", id, "error", err)
	}

	JSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleAdvancePhase moves a session between consultation phases.
func (h *Handler) HandleAdvancePhase(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		Phase domain.Phase `json:"phase"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	switch req.Phase {
	case domain.PhasePreview, domain.PhaseChat, domain.PhaseResults:
	default:
		Error(w, http.StatusBadRequest, "unknown phase")
		return
	}

	sess, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		Error(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	if sess == nil {
		Error(w, http.StatusNotFound, "session not found")
		return
	}
	if req.Phase == domain.PhaseChat && !sess.CanChat() {
		Error(w, http.StatusBadRequest, "profile must be complete before chat")
		return
	}

	if err := h.sessions.Advance(r.Context(), id, req.Phase); err != nil {
		slog.Error("failed to advance phase", "session_id", id, "error", err)
		Error(w, http.StatusInternalServerError, "failed to advance phase")
		return
	}
	JSON(w, http.StatusOK, map[string]any{"success": true, "phase": req.Phase})
}

// HandleChatHistory returns a session's conversation in order.
func (h *Handler) HandleChatHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sess, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		Error(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	if sess == nil {
		Error(w, http.StatusNotFound, "session not found")
		return
	}

	messages, err := h.repo.GetMessages(r.Context(), id, 0)
	if err != nil {
		slog.Error("failed to load history", "session_id", id, "error", err)
		Error(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	if messages == nil {
		messages = []domain.Message{}
	}

	JSON(w, http.StatusOK, map[string]any{
		"session_id": id,
		"messages":   messages,
		"total":      len(messages),
	})
}

// HandleAssessment derives the risk assessment from a session's
// conversation and pairs it with recommended services for the profile.
func (h *Handler) HandleAssessment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sess, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		Error(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	if sess == nil {
		Error(w, http.StatusNotFound, "session not found")
		return
	}

	messages, err := h.repo.GetMessages(r.Context(), id, 0)
	if err != nil {
		Error(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	assessment := consult.AssessRisk(messages)

	var recommended *welfare.SearchResult
	if sess.Profile != nil {
		recommended = welfare.Search(h.catalog, welfare.SearchParams{
			Gender:             sess.Profile.Gender,
			LifeStage:          sess.Profile.LifeStage,
			Income:             sess.Profile.Income,
			HouseholdSize:      sess.Profile.HouseholdSize,
			HouseholdSituation: sess.Profile.HouseholdSituation,
			Limit:              20,
		})
	}

	JSON(w, http.StatusOK, map[string]any{
		"session_id":           id,
		"risk_assessment":      assessment,
		"recommended_services": recommended,
	})
}
