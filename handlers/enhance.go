package handlers

import (
	"encoding/base64"
	"errors"
	"net/http"

	"cakebox/models"
	"cakebox/services/gateway"
	"cakebox/services/storage"
	"cakebox/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// EnhanceHandler exposes the image enhancement side feature: an uploaded
// photo comes back as an AI-generated enhanced rendition. It runs outside
// the order flow; design images attached during ordering are used as-is.
type EnhanceHandler struct {
	Enhancer    gateway.ImageEnhancer
	Attachments storage.AttachmentStore // nil disables hosting of the result
}

func NewEnhanceHandler(enhancer gateway.ImageEnhancer, attachments storage.AttachmentStore) *EnhanceHandler {
	return &EnhanceHandler{Enhancer: enhancer, Attachments: attachments}
}

// EnhanceImageHandler handles POST of an image to enhance. The response
// carries the generation prompt, the enhanced image inline, and a hosted URL
// when an attachment store is configured.
func (h *EnhanceHandler) EnhanceImageHandler(c *gin.Context) {
	logger := utils.GetLogger()

	data, fileName, mimeType, ok := readImageUpload(c)
	if !ok {
		return
	}

	result, err := h.Enhancer.EnhanceImage(c.Request.Context(), models.ContentPart{
		MIMEType: mimeType,
		Data:     data,
	})
	if err != nil {
		var malformed *gateway.MalformedReplyError
		if errors.As(err, &malformed) {
			logger.Warn("Enhancement reply failed validation", zap.Error(err))
			utils.JSONError(c, http.StatusBadGateway, "Enhancement failed",
				"We couldn't generate an enhanced version of that image. Please try another one.")
			return
		}
		logger.Error("Enhancement call failed", zap.String("fileName", fileName), zap.Error(err))
		utils.JSONError(c, http.StatusBadGateway, "Enhancement unavailable",
			"Image enhancement isn't available right now. Please try again in a moment.")
		return
	}

	hostedURL := ""
	if h.Attachments != nil {
		url, err := h.Attachments.Upload(c.Request.Context(), result.Image.Data, "enhanced-"+fileName, result.Image.MIMEType)
		if err != nil {
			// Hosting is best-effort; the inline bytes are still returned.
			logger.Warn("Enhanced image upload failed", zap.Error(err))
		} else {
			hostedURL = url
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"prompt":      result.Prompt,
		"mimeType":    result.Image.MIMEType,
		"imageBase64": base64.StdEncoding.EncodeToString(result.Image.Data),
		"url":         hostedURL,
	})
}
