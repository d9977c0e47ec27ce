// Package fileproto описывает протокол HTTP-взаимодействия клиента и сервиса загрузки.
package fileproto

// Маршруты сервиса.
const (
	PathUpload   = "/upload"
	PathDownload = "/download"
	PathFiles    = "/api/files"
	PathInfo     = "/info"
	PathVersion  = "/version"
	PathHealth   = "/health"
	PathMetrics  = "/metrics"
)

// Параметры и заголовки.
const (
	QueryFilename     = "filename"
	FormFieldFile     = "file"
	HeaderFileName    = "X-File-Name"
	HeaderFileNameAlt = "X-Filename"
	HeaderRequestID   = "X-Request-ID"
	HeaderContentType = "X-Content-Type"
)
