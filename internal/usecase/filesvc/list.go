package filesvc

import (
	"context"
	"fmt"
	"os"

	"github.com/sir_venger/filedrop/internal/dirlock"
	"github.com/sir_venger/filedrop/internal/models"
)

// List перечисляет файлы непосредственно в каталоге хранения.
// Подкаталоги и файл-маркер пропускаются; порядок не гарантируется.
func (s *Files) List(ctx context.Context) ([]models.Filedata, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		s.metrics.ObserveList("failed")
		return nil, fmt.Errorf("%w: %v", models.ErrListFailed, err)
	}

	files := make([]models.Filedata, 0, len(entries))
	for _, e := range entries {
		if err = ctx.Err(); err != nil {
			s.metrics.ObserveList("failed")
			return nil, fmt.Errorf("%w: %v", models.ErrListFailed, err)
		}
		if e.IsDir() || e.Name() == dirlock.MarkerName {
			continue
		}

		// Файл мог исчезнуть между ReadDir и Info, тогда просто не показываем размер.
		var size int64
		if info, infoErr := e.Info(); infoErr == nil {
			size = info.Size()
		}
		files = append(files, models.Filedata{Filename: e.Name(), Size: size})
	}

	s.metrics.ObserveList("ok")
	return files, nil
}

// Usage возвращает суммарный размер и количество пользовательских файлов для health-check'ов.
func (s *Files) Usage(ctx context.Context) (models.Usage, error) {
	files, err := s.List(ctx)
	if err != nil {
		return models.Usage{}, err
	}

	var u models.Usage
	for _, f := range files {
		u.Files++
		u.TotalBytes += f.Size
	}

	return u, nil
}
