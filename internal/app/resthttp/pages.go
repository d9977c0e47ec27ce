package resthttp

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/sir_venger/filedrop/internal/models"
	"github.com/sir_venger/filedrop/internal/version"
)

//go:embed templates/*.html
var templateFS embed.FS

// pages держит разобранные HTML-шаблоны страниц.
type pages struct {
	index    *template.Template
	upload   *template.Template
	notFound *template.Template
}

func loadPages() (*pages, error) {
	parse := func(name string) (*template.Template, error) {
		return template.New("").ParseFS(templateFS, "templates/layout.html", "templates/"+name)
	}

	index, err := parse("index.html")
	if err != nil {
		return nil, err
	}
	upload, err := parse("upload.html")
	if err != nil {
		return nil, err
	}
	notFound, err := parse("404.html")
	if err != nil {
		return nil, err
	}

	return &pages{index: index, upload: upload, notFound: notFound}, nil
}

type pageData struct {
	Title   string
	Version string
	Info    string
	Files   []models.Filedata
}

// render рендерит страницу в буфер, чтобы ошибка шаблона не оставила полуответ.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, t *template.Template, data pageData) {
	data.Version = version.Version

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) getIndexPage(w http.ResponseWriter, r *http.Request) {
	files, err := s.sortedFiles(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, s.pages.index, pageData{
		Title: "Files",
		Info:  s.FilesService.Info(),
		Files: files,
	})
}

func (s *Server) getUploadPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, s.pages.upload, pageData{Title: "Upload"})
}

func (s *Server) getNotFoundPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusNotFound, s.pages.notFound, pageData{Title: "Not found"})
}
