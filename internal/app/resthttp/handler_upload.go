package resthttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/sir_venger/filedrop/internal/models"
	"github.com/sir_venger/filedrop/pkg/fileproto"
)

// postUpload принимает multipart-форму (каждая файловая часть становится отдельной загрузкой)
// либо сырое тело запроса с именем из заголовка или query-параметра.
func (s *Server) postUpload(w http.ResponseWriter, r *http.Request) {
	if limit := s.maxUploadBytes(); limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}

	var (
		res models.UploadResult
		err error
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		res, err = s.uploadMultipart(r)
	} else {
		res, err = s.uploadRaw(r)
	}

	// Часть файлов могла сохраниться до ошибки, про них уже написано в лог.
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(res)
}

func (s *Server) uploadMultipart(r *http.Request) (models.UploadResult, error) {
	res := models.UploadResult{Files: []models.Filedata{}}

	mr, err := r.MultipartReader()
	if err != nil {
		return res, fmt.Errorf("%w: %w", models.ErrMalformedUpload, err)
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("%w: %w", models.ErrMalformedUpload, err)
		}

		if !isFilePart(part) {
			_ = part.Close()
			continue
		}

		fd, err := s.store(r, part.FileName(), part)
		_ = part.Close()
		if err != nil {
			return res, err
		}
		res.Files = append(res.Files, fd)
	}

	if len(res.Files) == 0 {
		return res, fmt.Errorf("%w: no file parts in form", models.ErrMalformedUpload)
	}

	return res, nil
}

func (s *Server) uploadRaw(r *http.Request) (models.UploadResult, error) {
	fd, err := s.store(r, extractFileName(r), r.Body)
	if err != nil {
		return models.UploadResult{}, err
	}

	return models.UploadResult{Files: []models.Filedata{fd}}, nil
}

// store передаёт поток в файловый сервис. Ошибка чтения со стороны клиента
// (обрыв multipart, превышение лимита) классифицируется как клиентская.
func (s *Server) store(r *http.Request, name string, body io.Reader) (models.Filedata, error) {
	src := &sourceReader{r: body}

	fd, err := s.FilesService.Upload(r.Context(), name, src)
	if err != nil {
		if src.err != nil {
			return models.Filedata{}, fmt.Errorf("%w: %w", models.ErrMalformedUpload, src.err)
		}
		return models.Filedata{}, err
	}

	s.Logger.Success("File '%s' saved successfully!", fd.Filename)
	return fd, nil
}

func (s *Server) maxUploadBytes() int64 {
	if s.Cfg == nil {
		return 0
	}
	return s.Cfg.MaxUploadBytes
}

func isFilePart(p *multipart.Part) bool {
	return p.FileName() != "" || p.FormName() == fileproto.FormFieldFile
}

// extractFileName пытается вытащить имя файла из заголовков или query-параметра.
func extractFileName(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get(fileproto.HeaderFileName)); v != "" {
		return v
	}
	if v := strings.TrimSpace(r.Header.Get(fileproto.HeaderFileNameAlt)); v != "" {
		return v
	}
	if v := strings.TrimSpace(r.URL.Query().Get(fileproto.QueryFilename)); v != "" {
		return v
	}
	return ""
}

// sourceReader запоминает ошибку чтения входящего потока.
type sourceReader struct {
	r   io.Reader
	err error
}

func (s *sourceReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		s.err = err
	}
	return n, err
}
