//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly || windows)

package dirlock

import (
	"errors"
	"os"
)

var errUnsupported = errors.New("advisory file locks are not supported on this platform")

func tryLock(*os.File) error { return errUnsupported }

func unlock(*os.File) error { return nil }

func isContended(error) bool { return false }
