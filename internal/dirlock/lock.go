// Package dirlock гарантирует, что каталогом хранения владеет ровно один процесс.
// Эксклюзивность держится на advisory-блокировке ОС поверх служебного файла-маркера,
// поэтому она снимается автоматически при завершении процесса, в том числе аварийном.
package dirlock

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sir_venger/filedrop/internal/models"
)

// MarkerName — зарезервированное имя файла-маркера внутри каталога хранения.
const MarkerName = ".lock"

// Lock — удерживаемая блокировка каталога.
type Lock struct {
	mu   sync.Mutex
	file *os.File
	path string
}

// Acquire создаёт каталог (вместе с родителями), открывает маркер и пытается
// неблокирующе захватить на нём эксклюзивную блокировку.
func Acquire(dir string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %q: %v", models.ErrDirectoryUnavailable, dir, err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: stat %q: %v", models.ErrDirectoryUnavailable, dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %q is not a directory", models.ErrDirectoryUnavailable, dir)
	}

	path := filepath.Join(dir, MarkerName)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: open marker %q: %v", models.ErrDirectoryUnavailable, path, err)
	}

	if err = tryLock(f); err != nil {
		_ = f.Close()
		if isContended(err) {
			return nil, fmt.Errorf("%w: %q", models.ErrAlreadyLocked, dir)
		}
		return nil, fmt.Errorf("%w: lock marker %q: %v", models.ErrDirectoryUnavailable, path, err)
	}

	return &Lock{file: f, path: path}, nil
}

// Path возвращает путь до файла-маркера.
func (l *Lock) Path() string {
	return l.path
}

// Release снимает блокировку и закрывает дескриптор. Повторный вызов ничего не делает.
func (l *Lock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}

	unlockErr := unlock(l.file)
	closeErr := l.file.Close()
	l.file = nil
	if unlockErr != nil {
		return unlockErr
	}

	return closeErr
}
