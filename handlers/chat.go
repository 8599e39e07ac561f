package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"cakebox/config"
	"cakebox/models"
	"cakebox/services/chat"
	"cakebox/services/gateway"
	"cakebox/services/storage"
	"cakebox/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MaxImageSize caps uploaded design images at 5MB.
const MaxImageSize = 5 * 1024 * 1024

// ChatHandler exposes the widget's action surface over HTTP.
type ChatHandler struct {
	Service     chat.ChatService
	Attachments storage.AttachmentStore // nil disables image hosting
}

func NewChatHandler(service chat.ChatService, attachments storage.AttachmentStore) *ChatHandler {
	return &ChatHandler{Service: service, Attachments: attachments}
}

// MessageRequest is the JSON body for a plain text submission.
type MessageRequest struct {
	Text string `json:"text" binding:"required"`
}

// ConfirmRequest is the JSON body for the summary confirm/decline action.
type ConfirmRequest struct {
	Confirm *bool `json:"confirm" binding:"required"`
}

// CreateSessionHandler opens a new chat session and returns its bearer token
// together with the greeting turn.
func (h *ChatHandler) CreateSessionHandler(c *gin.Context) {
	session, err := h.Service.CreateSession(c.Request.Context())
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to create chat session", err.Error())
		return
	}

	ttl := time.Duration(config.AppConfig.SessionTTLMin) * time.Minute
	token, err := utils.GenerateSessionToken(session.ID, ttl)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to issue session token", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessionId": session.ID,
		"token":     token,
		"greeting":  gateway.InitialGreeting,
	})
}

// MessageHandler handles submitText.
func (h *ChatHandler) MessageHandler(c *gin.Context) {
	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid message request", err.Error())
		return
	}
	update, err := h.Service.SubmitText(c.Request.Context(), sessionID(c), req.Text)
	h.respond(c, update, err)
}

// MediaMessageHandler handles submitTextWithMedia: multipart form with an
// optional "text" field and an "image" file. Oversized or non-image uploads
// are rejected before any external call is made.
func (h *ChatHandler) MediaMessageHandler(c *gin.Context) {
	logger := utils.GetLogger()
	text := c.PostForm("text")

	data, fileName, mimeType, ok := readImageUpload(c)
	if !ok {
		return
	}

	var attachment *models.Attachment
	if h.Attachments != nil {
		url, err := h.Attachments.Upload(c.Request.Context(), data, fileName, mimeType)
		if err != nil {
			// Hosting is best-effort; the inline bytes still reach the model.
			logger.Warn("Design image upload failed", zap.Error(err))
		} else {
			attachment = &models.Attachment{URL: url, FileName: fileName, MIMEType: mimeType}
		}
	}

	media := models.ContentPart{MIMEType: mimeType, Data: data}
	update, err := h.Service.SubmitMedia(c.Request.Context(), sessionID(c), text, media, attachment)
	h.respond(c, update, err)
}

// StartOrderHandler handles the explicit "start order" action.
func (h *ChatHandler) StartOrderHandler(c *gin.Context) {
	update, err := h.Service.StartOrder(c.Request.Context(), sessionID(c))
	h.respond(c, update, err)
}

// ConfirmOrderHandler handles confirmSummary.
func (h *ChatHandler) ConfirmOrderHandler(c *gin.Context) {
	var req ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid confirmation request", err.Error())
		return
	}
	update, err := h.Service.ConfirmSummary(c.Request.Context(), sessionID(c), *req.Confirm)
	h.respond(c, update, err)
}

// ResetSessionHandler handles resetSession.
func (h *ChatHandler) ResetSessionHandler(c *gin.Context) {
	update, err := h.Service.ResetSession(c.Request.Context(), sessionID(c))
	h.respond(c, update, err)
}

func sessionID(c *gin.Context) string {
	return c.GetString("sessionID")
}

// readImageUpload pulls the "image" multipart file, enforcing the size cap
// and an image/* content type. On failure it writes the error response and
// returns ok=false.
func readImageUpload(c *gin.Context) (data []byte, fileName, mimeType string, ok bool) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Image file is required", err.Error())
		return nil, "", "", false
	}
	defer file.Close()

	if header.Size > MaxImageSize {
		utils.JSONError(c, http.StatusBadRequest, "File is too large", "Please select an image under 5MB.")
		return nil, "", "", false
	}
	mimeType = header.Header.Get("Content-Type")
	if !strings.HasPrefix(mimeType, "image/") {
		utils.JSONError(c, http.StatusBadRequest, "Invalid file type", "Only image uploads are supported.")
		return nil, "", "", false
	}

	data, err = io.ReadAll(io.LimitReader(file, MaxImageSize+1))
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to read image", err.Error())
		return nil, "", "", false
	}
	if len(data) > MaxImageSize {
		utils.JSONError(c, http.StatusBadRequest, "File is too large", "Please select an image under 5MB.")
		return nil, "", "", false
	}
	return data, header.Filename, mimeType, true
}

func (h *ChatHandler) respond(c *gin.Context, update *chat.Update, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, update)
	case errors.Is(err, chat.ErrSessionNotFound):
		utils.JSONError(c, http.StatusNotFound, "Session not found", "The chat session has expired. Please start a new conversation.")
	case errors.Is(err, chat.ErrSessionBusy):
		utils.JSONError(c, http.StatusConflict, "Session busy", "Please wait for the previous message to finish processing.")
	case errors.Is(err, chat.ErrNotAwaitingConfirmation):
		utils.JSONError(c, http.StatusConflict, "No summary pending", "There is no order summary awaiting confirmation.")
	case errors.Is(err, chat.ErrEmptyMessage):
		utils.JSONError(c, http.StatusBadRequest, "Empty message", "Type a message or attach an image.")
	default:
		utils.JSONError(c, http.StatusInternalServerError, "Chat request failed", err.Error())
	}
}
