package models

// UploadResult возвращается HTTP-слоем после обработки запроса на загрузку.
type UploadResult struct {
	Files []Filedata `json:"files"`
}

// Usage — агрегированная статистика каталога хранения для health-check'ов.
type Usage struct {
	Files      int   `json:"files"`
	TotalBytes int64 `json:"total_bytes"`
}
