package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"todoassist/internal/chat"
	"todoassist/internal/observability"
	"todoassist/internal/storage"
)

// chatHistorySeed is how many persisted messages are replayed into a
// freshly created in-memory session.
const chatHistorySeed = 20

type chatRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Message        string `json:"message"`
}

type chatResponse struct {
	ConversationID string `json:"conversation_id"`
	Reply          string `json:"reply"`
}

// handleChat runs one conversational turn: load or create the
// conversation, hand the utterance to the engine, persist both sides.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	ownerID := userID(r)
	ctx := r.Context()

	var conv storage.Conversation
	var err error
	if req.ConversationID == "" {
		conv, err = s.store.CreateConversation(ctx, ownerID)
		if err != nil {
			s.internalError(w, r, "create conversation", err)
			return
		}
	} else {
		conv, err = s.store.GetConversation(ctx, ownerID, req.ConversationID)
		if err != nil {
			if errors.Is(err, storage.ErrConversationNotFound) {
				writeError(w, http.StatusNotFound, "conversation not found")
				return
			}
			s.internalError(w, r, "load conversation", err)
			return
		}
	}

	sess, created := s.sessions.GetOrCreate(conv.ID, ownerID)
	if created && req.ConversationID != "" {
		// Server restart or session expiry: rebuild context from the
		// persisted transcript.
		history, err := s.store.LoadMessages(ctx, conv.ID, chatHistorySeed)
		if err != nil {
			s.internalError(w, r, "load messages", err)
			return
		}
		sess.SeedHistory(history)
	}

	reply := s.engine.HandleUtterance(ctx, sess, req.Message)

	log := observability.LoggerFromContext(ctx)
	if err := s.store.AppendMessage(ctx, conv.ID, chat.Message{Role: chat.RoleUser, Content: req.Message}); err != nil {
		log.Error("persist user message failed", "conversation_id", conv.ID, "error", err)
	}
	if err := s.store.AppendMessage(ctx, conv.ID, chat.Message{Role: chat.RoleAssistant, Content: reply}); err != nil {
		log.Error("persist assistant message failed", "conversation_id", conv.ID, "error", err)
	}

	writeJSON(w, http.StatusOK, chatResponse{ConversationID: conv.ID, Reply: reply})
}
