package resthttp

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/sir_venger/filedrop/internal/models"
	"github.com/sir_venger/filedrop/pkg/fileproto"
)

// getDownload стримит файл клиенту как вложение.
// Невалидное и отсутствующее имя неразличимы для клиента: оба дают 404.
func (s *Server) getDownload(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get(fileproto.QueryFilename)

	d, err := s.FilesService.Resolve(r.Context(), name)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrInvalidFilename) {
			s.Logger.Warn("File '%s' not found on the server!", name)
			s.Logger.Cause(err)
			http.Error(w, fmt.Sprintf("File '%s' not found on the server!", name), http.StatusNotFound)
			return
		}
		s.fail(w, r, err)
		return
	}
	defer d.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": d.Name}))
	w.Header().Set("Content-Length", strconv.FormatInt(d.Size, 10))
	w.Header().Set(fileproto.HeaderContentType, d.MIME)

	s.Logger.Info("File '%s' found, starting download!", name)
	if _, err = io.Copy(w, d); err != nil {
		// заголовки уже ушли, остаётся только залогировать обрыв
		s.Logger.Warn("download of '%s' interrupted: %v", name, err)
	}
}
