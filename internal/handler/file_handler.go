package handler

import (
	"mime"
	"net/http"
	"os"
	"path"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/lapanclass-api/pkg/errors"
	"github.com/noah-isme/lapanclass-api/pkg/response"
)

type signedFileSource interface {
	ResolveToken(token string) (string, error)
	Open(key string) (*os.File, error)
}

// FileHandler streams locally stored proof files behind signed tokens.
type FileHandler struct {
	files  signedFileSource
	logger *zap.Logger
}

// NewFileHandler constructs FileHandler.
func NewFileHandler(files signedFileSource, logger *zap.Logger) *FileHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileHandler{files: files, logger: logger}
}

// Download godoc
// @Summary Download a proof file
// @Description The token comes from a proof_url; it expires
// @Tags Files
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /files/{token} [get]
func (h *FileHandler) Download(c *gin.Context) {
	key, err := h.files.ResolveToken(c.Param("token"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "download link is invalid or expired"))
		return
	}
	file, err := h.files.Open(key)
	if err != nil {
		h.logger.Warn("proof file missing", zap.String("key", key), zap.Error(err))
		response.Error(c, appErrors.NotFound("file"))
		return
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Internal(err, "failed to read file"))
		return
	}
	if contentType := mime.TypeByExtension(path.Ext(key)); contentType != "" {
		c.Header("Content-Type", contentType)
	}
	c.Header("Cache-Control", "private, max-age=300")
	http.ServeContent(c.Writer, c.Request, path.Base(key), info.ModTime(), file)
}
