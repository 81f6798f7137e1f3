package model

import (
	"path/filepath"
	"strings"
)

// MaxUploadBytes is the per-file upload cap
const MaxUploadBytes int64 = 5 * 1024 * 1024

// FileKind groups the accepted upload formats
type FileKind string

const (
	FileKindText    FileKind = "text"
	FileKindPDF     FileKind = "pdf"
	FileKindDOCX    FileKind = "docx"
	FileKindUnknown FileKind = ""
)

const (
	MimeText = "text/plain"
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Upload is a file handed to the extractor
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Data        []byte
}

// Kind resolves the file format. A text/plain type or a .txt name is always
// text; otherwise the content type wins, falling back to the extension.
func (u Upload) Kind() FileKind {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(u.ContentType, ";", 2)[0]))
	ext := strings.ToLower(filepath.Ext(u.Name))
	if ct == MimeText || ext == ".txt" {
		return FileKindText
	}

	switch ct {
	case MimePDF:
		return FileKindPDF
	case MimeDOCX:
		return FileKindDOCX
	}

	switch ext {
	case ".pdf":
		return FileKindPDF
	case ".docx":
		return FileKindDOCX
	}
	return FileKindUnknown
}

// ExtractResponse is the body returned by POST /extract
type ExtractResponse struct {
	Text string `json:"text"`
}

// UploadResponse is returned to the Landing screen after a successful upload
type UploadResponse struct {
	FileName string `json:"fileName"`
	Size     int64  `json:"size"`
	Text     string `json:"text"`
}
