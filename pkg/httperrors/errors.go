package httperrors

import (
	"errors"
	"net/http"

	"github.com/sir_venger/filedrop/internal/models"
)

// Write отвечает клиенту статусом и стабильным сообщением, соответствующим ошибке.
// Текст первопричины наружу не уходит — его пишет в лог вызывающий.
func Write(w http.ResponseWriter, err error) {
	status, msg := Classify(err)
	http.Error(w, msg, status)
}

// Classify сопоставляет ошибку HTTP-статусу и сообщению для пользователя.
func Classify(err error) (int, string) {
	var tooLarge *http.MaxBytesError

	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "File is too large!"
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, "File not found on the server!"
	case errors.Is(err, models.ErrInvalidFilename):
		return http.StatusBadRequest, "Invalid filename!"
	case errors.Is(err, models.ErrMalformedUpload):
		return http.StatusBadRequest, "Malformed upload!"
	case errors.Is(err, models.ErrCounterOverflow):
		return http.StatusInsufficientStorage, "Upload limit reached!"
	case errors.Is(err, models.ErrUploadFailed):
		return http.StatusInternalServerError, "File upload failed!"
	case errors.Is(err, models.ErrListFailed):
		return http.StatusInternalServerError, "Could not list files!"
	default:
		return http.StatusInternalServerError, "Internal server error!"
	}
}
