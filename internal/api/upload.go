package api

import (
	"bytes"
	"encoding/base64"
	"net/http"
	"strings"

	"ai-board-of-directors/backend/internal/service"

	"github.com/gin-gonic/gin"
)

type base64UploadRequest struct {
	File struct {
		Name string `json:"name" binding:"required"`
		Type string `json:"type" binding:"required"`
		Size int64  `json:"size"`
		Data string `json:"data" binding:"required"`
	} `json:"file" binding:"required"`
	MessageType string `json:"messageType" binding:"required,oneof=image audio"`
}

// UploadHandler accepts media as multipart form data or as a base64 JSON body
type UploadHandler struct {
	uploads *service.UploadService
	users   *service.UserService
}

func NewUploadHandler(uploads *service.UploadService, users *service.UserService) *UploadHandler {
	return &UploadHandler{uploads: uploads, users: users}
}

func (h *UploadHandler) Upload(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	user, err := h.users.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	if !service.CanUpload(user) {
		fail(c, service.ErrPremiumRequired)
		return
	}

	// leave room for multipart framing and base64 overhead
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.uploads.MaxSize()*2)

	var in service.UploadInput
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		header, err := c.FormFile("file")
		if err != nil {
			badRequest(c, "INVALID_REQUEST", "A file field is required")
			return
		}
		f, err := header.Open()
		if err != nil {
			fail(c, err)
			return
		}
		defer f.Close()

		in = service.UploadInput{
			Kind:     c.PostForm("messageType"),
			Name:     header.Filename,
			MimeType: header.Header.Get("Content-Type"),
			Size:     header.Size,
			Data:     f,
		}
	} else {
		var req base64UploadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "INVALID_REQUEST", "Invalid request data")
			return
		}
		data := req.File.Data
		if i := strings.Index(data, ","); i != -1 && strings.HasPrefix(data, "data:") {
			data = data[i+1:]
		}
		raw, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			badRequest(c, "INVALID_BASE64", "Invalid base64 file data")
			return
		}
		in = service.UploadInput{
			Kind:     req.MessageType,
			Name:     req.File.Name,
			MimeType: req.File.Type,
			Size:     int64(len(raw)),
			Data:     bytes.NewReader(raw),
		}
	}

	result, err := h.uploads.Save(c.Request.Context(), user, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
