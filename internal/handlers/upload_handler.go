package handlers

import (
	"io"
	"path"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/pinpointlabs/pinpoint-backend/internal/store"
	"github.com/pinpointlabs/pinpoint-backend/internal/upload"
)

// MaxUploadBytes is the hard ceiling on accepted file size.
const MaxUploadBytes = 30 << 20

// allowedUploadTypes maps accepted extensions to their expected MIME prefix.
var allowedUploadTypes = map[string]string{
	".jpg":  "image/",
	".jpeg": "image/",
	".png":  "image/",
	".gif":  "image/",
	".webp": "image/",
	".svg":  "image/",
	".mp3":  "audio/",
	".wav":  "audio/",
	".ogg":  "audio/",
	".webm": "", // audio or video recordings
	".mp4":  "video/",
	".pdf":  "application/pdf",
}

type UploadHandler struct {
	store    store.Store
	uploader *upload.Uploader
}

func NewUploadHandler(st store.Store, uploader *upload.Uploader) *UploadHandler {
	return &UploadHandler{store: st, uploader: uploader}
}

func (h *UploadHandler) Upload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return missingFields(c, []string{"file"})
	}
	if file.Size > MaxUploadBytes {
		return badRequest(c, "File exceeds the 30MB upload limit")
	}

	ext := strings.ToLower(path.Ext(file.Filename))
	mimePrefix, allowed := allowedUploadTypes[ext]
	contentType := file.Header.Get("Content-Type")
	if !allowed || (mimePrefix != "" && !strings.HasPrefix(contentType, mimePrefix)) {
		return badRequest(c, "Unsupported file type: "+file.Filename)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	src, err := file.Open()
	if err != nil {
		return storeError(c, err, "")
	}
	defer src.Close()
	data, err := io.ReadAll(io.LimitReader(src, MaxUploadBytes+1))
	if err != nil {
		return storeError(c, err, "")
	}
	if len(data) > MaxUploadBytes {
		return badRequest(c, "File exceeds the 30MB upload limit")
	}

	folder := c.FormValue("folder", "uploads")
	url, err := h.uploader.Store(c.Context(), folder, file.Filename, contentType, data)
	if err != nil {
		return storeError(c, err, "")
	}

	return ok(c, h.store, fiber.StatusCreated, fiber.Map{"url": url})
}
