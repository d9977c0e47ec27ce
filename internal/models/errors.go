package models

import "errors"

var (
	ErrNotFound             = errors.New("file not found")
	ErrInvalidFilename      = errors.New("invalid filename")
	ErrDirectoryUnavailable = errors.New("storage directory unavailable")
	ErrAlreadyLocked        = errors.New("storage directory is locked by another instance")
	ErrInitializationFailed = errors.New("storage initialization failed")
	ErrCounterOverflow      = errors.New("upload counter overflow")
	ErrUploadFailed         = errors.New("file upload failed")
	ErrListFailed           = errors.New("file listing failed")
	ErrMalformedUpload      = errors.New("malformed upload")
)
