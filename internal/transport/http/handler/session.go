package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"docuchat/internal/app"
	"docuchat/internal/transport/http/response"
)

const maxUploadBytes = 20 << 20

// SessionHandler exposes one chat session per authenticated user. Every
// mutating endpoint replies with the full timeline and the notifications
// the operation raised, so the client can render both without extra round
// trips.
type SessionHandler struct {
	sessions *app.SessionManager
}

type SendMessageRequest struct {
	Content string `json:"content"`
}

type SubmitURLRequest struct {
	URL string `json:"url"`
}

type SelectConversationRequest struct {
	ConversationID uint `json:"conversation_id" binding:"required,gt=0"`
}

func NewSessionHandler(sessions *app.SessionManager) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

func (h *SessionHandler) State(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	session, notifications := h.sessions.Open(userID)
	response.OKWithNotifications(c, sessionState(session), notifications.Drain())
}

func (h *SessionHandler) Select(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req SelectConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	session, notifications := h.sessions.Open(userID)
	session.LoadConversation(c.Request.Context(), req.ConversationID)
	response.OKWithNotifications(c, sessionState(session), notifications.Drain())
}

func (h *SessionHandler) New(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	session, notifications := h.sessions.Open(userID)
	session.Reset()
	response.OKWithNotifications(c, sessionState(session), notifications.Drain())
}

func (h *SessionHandler) SendMessage(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	session, notifications := h.sessions.Open(userID)
	session.SendMessage(c.Request.Context(), req.Content)
	response.OKWithNotifications(c, sessionState(session), notifications.Drain())
}

func (h *SessionHandler) UploadFile(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file field")
		return
	}
	if fileHeader.Size > maxUploadBytes {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "file too large")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "read file failed")
		return
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "read file failed")
		return
	}

	session, notifications := h.sessions.Open(userID)
	session.UploadFile(c.Request.Context(), app.FileUpload{
		Name:        fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Content:     content,
	})
	response.OKWithNotifications(c, sessionState(session), notifications.Drain())
}

func (h *SessionHandler) SubmitURL(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req SubmitURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	session, notifications := h.sessions.Open(userID)
	session.SubmitURL(c.Request.Context(), req.URL)
	response.OKWithNotifications(c, sessionState(session), notifications.Drain())
}

func (h *SessionHandler) Close(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	h.sessions.Release(userID)
	response.OK(c, gin.H{"closed": true})
}

func sessionState(session *app.Session) gin.H {
	state := gin.H{
		"messages": session.Messages(),
		"busy":     session.Busy(),
	}
	if id := session.ConversationID(); id != 0 {
		state["conversation_id"] = id
	}
	if name := session.DocumentName(); name != "" {
		state["document_name"] = name
	}
	return state
}

func parseUintParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || parsed == 0 {
		return 0, false
	}
	return uint(parsed), true
}
