package filesvc

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/sir_venger/filedrop/internal/dirlock"
	"github.com/sir_venger/filedrop/internal/models"
)

const defaultNameFormat = "file_upload_%d"

// Upload резервирует номер загрузки, вычисляет безопасное имя и пишет поток r на диск.
// Номер расходуется даже при ошибке записи: счётчик считает принятые попытки.
// Одноимённые загрузки не синхронизируются — выигрывает последний писатель.
func (s *Files) Upload(ctx context.Context, nameHint string, r io.Reader) (models.Filedata, error) {
	id, err := s.reserve()
	if err != nil {
		s.metrics.ObserveUpload("overflow", 0)
		return models.Filedata{}, err
	}

	name := SanitizeName(nameHint, fmt.Sprintf(defaultNameFormat, id))
	if name == dirlock.MarkerName {
		s.metrics.ObserveUpload("rejected", 0)
		return models.Filedata{}, fmt.Errorf("%w: %q is reserved", models.ErrInvalidFilename, name)
	}

	n, err := s.write(ctx, name, r)
	if err != nil {
		s.metrics.ObserveUpload("failed", n)
		return models.Filedata{}, fmt.Errorf("%w: %q: %w", models.ErrUploadFailed, name, err)
	}

	s.metrics.ObserveUpload("ok", n)
	s.logger.Debug("upload #%d stored as %q (%d bytes)", id, name, n)

	return models.Filedata{Filename: name, Size: n}, nil
}

// reserve атомарно увеличивает счётчик и возвращает новый номер (начиная с 1).
// Критическая секция не содержит I/O.
func (s *Files) reserve() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.uploads == math.MaxUint64 {
		return 0, models.ErrCounterOverflow
	}
	s.uploads++

	return s.uploads, nil
}

func (s *Files) write(ctx context.Context, name string, r io.Reader) (n int64, err error) {
	f, err := os.Create(filepath.Join(s.root, name))
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	n, err = io.Copy(f, &ctxReader{ctx: ctx, r: r})
	if err != nil {
		return n, err
	}

	return n, f.Sync()
}

// SanitizeName оставляет только последний сегмент пути клиента: каталоги, корень
// и префикс тома отбрасываются. Пустой результат заменяется на def.
func SanitizeName(hint, def string) string {
	name := strings.TrimSpace(hint)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = stripVolume(name)

	switch name {
	case "", ".", "..":
		return def
	}
	if strings.ContainsRune(name, 0) {
		return def
	}

	return name
}

// stripVolume убирает префикс диска вида "C:" независимо от ОС сервера.
func stripVolume(name string) string {
	if hasDrivePrefix(name) {
		return name[2:]
	}
	return name
}

func hasDrivePrefix(name string) bool {
	if len(name) < 2 || name[1] != ':' {
		return false
	}
	c := name[0]
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// ctxReader прерывает чтение при отмене контекста (например, клиент отключился).
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
