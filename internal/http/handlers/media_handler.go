package handlers

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fairticket/ticketing-backend/internal/http/response"
	"github.com/fairticket/ticketing-backend/internal/logger"
	"github.com/fairticket/ticketing-backend/internal/storage"
)

// MediaStorage сохраняет загруженные файлы.
type MediaStorage interface {
	Save(ctx context.Context, originalName string, r io.Reader) (string, int64, error)
	URL(name string) string
}

// MediaHandler управляет загрузкой файлов.
type MediaHandler struct {
	storage MediaStorage
}

// NewMediaHandler создаёт новый хэндлер.
func NewMediaHandler(storage MediaStorage) *MediaHandler {
	return &MediaHandler{storage: storage}
}

// Upload обрабатывает POST /file-upload с полем file.
func (h *MediaHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "No valid file found in the request")
		return
	}

	url, err := h.save(c.Request.Context(), file)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, "File uploaded successfully", url)
}

// UploadMultiple обрабатывает POST /file-upload/multiple с полями files.
// Файлы, не прошедшие проверку, отклоняют весь запрос; сбой записи отдельного файла только логируется.
func (h *MediaHandler) UploadMultiple(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil || len(form.File["files"]) == 0 {
		response.BadRequest(c, "No files found")
		return
	}

	urls := make([]string, 0, len(form.File["files"]))
	for _, file := range form.File["files"] {
		url, err := h.save(c.Request.Context(), file)
		if err != nil {
			if storage.IsRejected(err) {
				response.BadRequest(c, file.Filename+": "+err.Error())
				return
			}
			logger.Log.WithFields(logrus.Fields{
				"error": err.Error(),
				"file":  file.Filename,
			}).Error("Failed to store uploaded file")
			continue
		}
		urls = append(urls, url)
	}

	if len(urls) == 0 {
		response.Fail(c, http.StatusInternalServerError, "Failed to upload all files", response.InternalMessage)
		return
	}

	response.Success(c, "Files uploaded successfully", urls)
}

func (h *MediaHandler) save(ctx context.Context, file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	name, _, err := h.storage.Save(ctx, file.Filename, src)
	if err != nil {
		return "", err
	}
	return h.storage.URL(name), nil
}

func (h *MediaHandler) fail(c *gin.Context, err error) {
	if storage.IsRejected(err) {
		response.BadRequest(c, err.Error())
		return
	}
	response.Error(c, err)
}
