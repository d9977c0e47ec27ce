package resthttp

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/sir_venger/filedrop/internal/models"
	"github.com/sir_venger/filedrop/internal/version"
)

type filesResp struct {
	Files []models.Filedata `json:"files"`
}

// getFiles отдаёт список файлов в JSON, отсортированный по имени.
func (s *Server) getFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.sortedFiles(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(filesResp{Files: files})
}

func (s *Server) sortedFiles(r *http.Request) ([]models.Filedata, error) {
	files, err := s.FilesService.List(r.Context())
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Filename < files[j].Filename
	})
	return files, nil
}

func (s *Server) getInfo(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(s.FilesService.Info()))
}

func (s *Server) getVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(version.Version))
}
