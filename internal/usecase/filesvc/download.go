package filesvc

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/sir_venger/filedrop/internal/dirlock"
	"github.com/sir_venger/filedrop/internal/models"
)

// Download — открытый на чтение файл, готовый к стримингу клиенту.
// Вызывающий обязан закрыть его на всех путях выхода.
type Download struct {
	file *os.File
	Name string
	Size int64
	MIME string
}

// Resolve проверяет имя и открывает файл из каталога хранения.
// Невалидное имя возвращает models.ErrInvalidFilename, отсутствующий файл — models.ErrNotFound;
// HTTP-слой сводит оба случая к 404.
func (s *Files) Resolve(_ context.Context, name string) (*Download, error) {
	if err := ValidateName(name); err != nil {
		s.metrics.ObserveDownload("invalid")
		return nil, err
	}

	f, err := os.Open(filepath.Join(s.root, name))
	if err != nil {
		s.metrics.ObserveDownload("not_found")
		return nil, fmt.Errorf("%w: %q", models.ErrNotFound, name)
	}

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		_ = f.Close()
		s.metrics.ObserveDownload("not_found")
		return nil, fmt.Errorf("%w: %q", models.ErrNotFound, name)
	}

	mime := detectMIME(f)
	if _, err = f.Seek(0, io.SeekStart); err != nil {
		_ = f.Close()
		s.metrics.ObserveDownload("not_found")
		return nil, fmt.Errorf("%w: %q: %v", models.ErrNotFound, name, err)
	}

	s.metrics.ObserveDownload("ok")
	return &Download{
		file: f,
		Name: filepath.Base(name),
		Size: info.Size(),
		MIME: mime,
	}, nil
}

// ValidateName отклоняет пустые имена, компоненты "..", абсолютные пути,
// префиксы тома и зарезервированный файл-маркер.
func ValidateName(name string) error {
	if name == "" || strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: %q", models.ErrInvalidFilename, name)
	}
	if strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return fmt.Errorf("%w: %q is absolute", models.ErrInvalidFilename, name)
	}
	if hasDrivePrefix(name) || filepath.VolumeName(name) != "" {
		return fmt.Errorf("%w: %q has a volume prefix", models.ErrInvalidFilename, name)
	}

	parts := strings.FieldsFunc(name, func(r rune) bool { return r == '/' || r == '\\' })
	for _, p := range parts {
		if p == ".." {
			return fmt.Errorf("%w: %q escapes the storage directory", models.ErrInvalidFilename, name)
		}
	}

	if filepath.Clean(name) == dirlock.MarkerName {
		return fmt.Errorf("%w: %q is reserved", models.ErrInvalidFilename, name)
	}

	return nil
}

func detectMIME(r io.Reader) string {
	mt, err := mimetype.DetectReader(r)
	if err != nil {
		return "application/octet-stream"
	}
	return mt.String()
}

func (d *Download) Read(p []byte) (int, error) {
	return d.file.Read(p)
}

func (d *Download) Close() error {
	return d.file.Close()
}
