package filesvc

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/sir_venger/filedrop/internal/dirlock"
	"github.com/sir_venger/filedrop/internal/log"
	"github.com/sir_venger/filedrop/internal/metrics"
	"github.com/sir_venger/filedrop/internal/models"
)

type (
	// Service объединяет операции по загрузке, листингу и выдаче файлов.
	Service interface {
		Upload(ctx context.Context, nameHint string, r io.Reader) (models.Filedata, error)
		List(ctx context.Context) ([]models.Filedata, error)
		Resolve(ctx context.Context, name string) (*Download, error)
		Usage(ctx context.Context) (models.Usage, error)
		Count() uint64
		Info() string
	}

	// Option настраивает Files при создании.
	Option func(*Files)
)

// Files — единственная точка доступа к каталогу хранения.
// Единственное разделяемое изменяемое состояние — счётчик загрузок под mu.
type Files struct {
	root    string
	lock    *dirlock.Lock
	logger  *log.Logger
	metrics *metrics.Metrics

	mu      sync.Mutex
	uploads uint64
}

var _ Service = (*Files)(nil)

// WithLogger подключает логгер; без него используется log.Discard().
func WithLogger(l *log.Logger) Option {
	return func(f *Files) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithMetrics подключает Prometheus-метрики.
func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Files) {
		f.metrics = m
	}
}

// Open захватывает каталог root (создавая его при необходимости) и возвращает готовый сервис.
// Ошибка всегда оборачивает models.ErrInitializationFailed вместе с первопричиной.
func Open(root string, opts ...Option) (*Files, error) {
	lock, err := dirlock.Acquire(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrInitializationFailed, err)
	}

	f := &Files{
		root: root,
		lock: lock,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = log.Discard()
	}

	f.logger.Debug("storage %q locked via %s", root, lock.Path())
	return f, nil
}

// Root возвращает каталог хранения.
func (s *Files) Root() string {
	return s.root
}

// Count возвращает число принятых попыток загрузки.
func (s *Files) Count() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploads
}

// Info — человекочитаемый статус для /info.
func (s *Files) Info() string {
	return fmt.Sprintf("Uploaded %d files to '%s'", s.Count(), s.root)
}

// Close снимает блокировку каталога. После Close сервисом пользоваться нельзя.
func (s *Files) Close() error {
	return s.lock.Release()
}
