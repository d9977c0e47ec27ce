package models

// Filedata описывает один файл в каталоге хранения.
// Filename — базовое имя на диске, оно же отдаётся клиенту; разделителей пути в нём нет.
type Filedata struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}
