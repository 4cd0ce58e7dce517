package handlers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const maxUploadSize = 10 << 20 // 10 MB

var errUnsupportedMedia = fmt.Errorf("unsupported media type")

// saveUpload stores the "file" part of a multipart request under a fresh
// uuid filename and returns the public URL path. Only images are accepted.
func saveUpload(r *http.Request, uploadDir string) (string, error) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return "", fmt.Errorf("invalid multipart form: %v", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", fmt.Errorf("missing file part: %v", err)
	}
	defer file.Close()

	// Sniff the real content type rather than trusting the header.
	buf := make([]byte, 512)
	n, err := file.Read(buf)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read upload: %v", err)
	}
	contentType := http.DetectContentType(buf[:n])
	if !strings.HasPrefix(contentType, "image/") {
		return "", errUnsupportedMedia
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind upload: %v", err)
	}

	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to prepare upload dir: %v", err)
	}

	ext := filepath.Ext(header.Filename)
	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(uploadDir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %v", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", fmt.Errorf("failed to write upload: %v", err)
	}

	log.WithField("file", name).Info("Upload stored")
	return "/uploads/" + name, nil
}

// writeUploadError maps upload failures to their status codes.
func writeUploadError(w http.ResponseWriter, err error) {
	if err == errUnsupportedMedia {
		http.Error(w, "Only image uploads are allowed", http.StatusUnsupportedMediaType)
		return
	}
	http.Error(w, err.Error(), http.StatusBadRequest)
}
