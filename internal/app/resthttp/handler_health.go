package resthttp

import (
	"encoding/json"
	"net/http"
)

// healthStats: payload ответа /health.
type healthStats struct {
	OK         bool   `json:"ok"`
	Files      int    `json:"files"`
	TotalBytes int64  `json:"total_bytes"`
	Uploads    uint64 `json:"uploads"`
}

// health возвращает агрегированную статистику по каталогу хранения.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	usage, err := s.FilesService.Usage(r.Context())
	if err != nil {
		s.Logger.Cause(err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(healthStats{OK: false})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	err = json.NewEncoder(w).Encode(healthStats{
		OK:         true,
		Files:      usage.Files,
		TotalBytes: usage.TotalBytes,
		Uploads:    s.FilesService.Count(),
	})
	if err != nil {
		s.Logger.Cause(err)
	}
}
