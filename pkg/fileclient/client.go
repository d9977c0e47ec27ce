package fileclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sir_venger/filedrop/internal/models"
	"github.com/sir_venger/filedrop/pkg/fileproto"
)

type Client interface {
	// Upload Загрузить поток как один файл; name может быть пустым
	Upload(ctx context.Context, name string, r io.Reader, size int64) (models.Filedata, error)
	// Download Открыть поток с содержимым файла; вызывающий закрывает его
	Download(ctx context.Context, name string) (io.ReadCloser, error)
	// List Список файлов на сервере
	List(ctx context.Context) ([]models.Filedata, error)
	// Info Строка статуса сервера
	Info(ctx context.Context) (string, error)
}

type Option func(*httpClient)

// WithHTTPClient подменяет HTTP-клиент (таймауты, транспорт).
func WithHTTPClient(c *http.Client) Option {
	return func(h *httpClient) {
		if c != nil {
			h.c = c
		}
	}
}

// WithProgress включает вывод прогресса передачи в out (обычно os.Stderr).
func WithProgress(out io.Writer) Option {
	return func(h *httpClient) {
		h.progress = out
	}
}

type httpClient struct {
	base     string
	c        *http.Client
	progress io.Writer
}

// New создаёт клиент сервиса, расположенного по адресу baseURL.
func New(baseURL string, opts ...Option) Client {
	h := &httpClient{
		base: strings.TrimRight(baseURL, "/"),
		c:    &http.Client{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Upload отправляет сырое тело с именем в заголовке X-File-Name.
func (h *httpClient) Upload(ctx context.Context, name string, r io.Reader, size int64) (models.Filedata, error) {
	bar := newProgressBar(h.progress, fmt.Sprintf("Uploading %s", displayName(name)), size)
	body := r
	if bar != nil {
		body = io.TeeReader(r, progressWriter{bar: bar})
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.base+fileproto.PathUpload, body)
	if err != nil {
		bar.Fail(err)
		return models.Filedata{}, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	if size >= 0 {
		req.ContentLength = size
	}
	if name != "" {
		req.Header.Set(fileproto.HeaderFileName, name)
	}

	resp, err := h.c.Do(req)
	if err != nil {
		bar.Fail(err)
		return models.Filedata{}, err
	}
	defer resp.Body.Close()

	if err = checkStatus(resp, "upload"); err != nil {
		bar.Fail(err)
		return models.Filedata{}, err
	}

	var res models.UploadResult
	if err = json.NewDecoder(resp.Body).Decode(&res); err != nil {
		bar.Fail(err)
		return models.Filedata{}, err
	}
	if len(res.Files) == 0 {
		err = fmt.Errorf("upload: empty response")
		bar.Fail(err)
		return models.Filedata{}, err
	}

	bar.Finish()
	return res.Files[0], nil
}

// Download скачивает файл и возвращает поток с телом.
func (h *httpClient) Download(ctx context.Context, name string) (io.ReadCloser, error) {
	u := h.base + fileproto.PathDownload + "?" + url.Values{fileproto.QueryFilename: {name}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := h.c.Do(req)
	if err != nil {
		return nil, err
	}
	if err = checkStatus(resp, "download"); err != nil {
		resp.Body.Close()
		return nil, err
	}

	bar := newProgressBar(h.progress, fmt.Sprintf("Downloading %s", name), resp.ContentLength)
	return newProgressReadCloser(resp.Body, bar), nil
}

// List возвращает список файлов сервера.
func (h *httpClient) List(ctx context.Context) ([]models.Filedata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.base+fileproto.PathFiles, nil)
	if err != nil {
		return nil, err
	}

	resp, err := h.c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err = checkStatus(resp, "list"); err != nil {
		return nil, err
	}

	var out struct {
		Files []models.Filedata `json:"files"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out.Files, nil
}

func (h *httpClient) Info(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.base+fileproto.PathInfo, nil)
	if err != nil {
		return "", err
	}

	resp, err := h.c.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err = checkStatus(resp, "info"); err != nil {
		return "", err
	}

	b, err := io.ReadAll(resp.Body)
	return string(b), err
}

// checkStatus превращает не-2xx ответ в ошибку; 404 оборачивает models.ErrNotFound.
func checkStatus(resp *http.Response, op string) error {
	if resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	text := strings.TrimSpace(string(msg))
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", models.ErrNotFound, text)
	}

	return fmt.Errorf("%s failed: %s: %s", op, resp.Status, text)
}

func displayName(name string) string {
	if name == "" {
		return "(unnamed)"
	}
	return name
}
