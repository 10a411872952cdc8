package fileserver

// FileInfo is one entry of GET /api/files and the body of GET /api/stat
type FileInfo struct {
	Name        string `json:"name"`
	IsDirectory bool   `json:"isDirectory"`
}

// WriteRequest is the body of POST /api/file.
// Content is required; Encoding is "" / "utf-8" for text or "base64" for binary.
type WriteRequest struct {
	Content  *string `json:"content"`
	Encoding string  `json:"encoding,omitempty"`
}

// ProjectRequest is the body of POST /api/projects
type ProjectRequest struct {
	Name string `json:"name"`
}

// MessageResponse is returned by every mutation and every error.
// Code is set on errors and carries the vfs taxonomy code.
type MessageResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

const (
	EncodingUTF8   = "utf-8"
	EncodingBase64 = "base64"
)

// ParentsParam set to "false" on POST /api/dir and POST /api/file makes the
// server refuse to create missing parent directories or projects; the write
// then fails with 404.
const ParentsParam = "parents"
