package handler

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/ahmadqo/e-sertifikat/internal/model"
)

var errFileTooLarge = errors.New("file terlalu besar")

// multipartMemory batas memori parser multipart; sisa file disimpan sementara di disk
const multipartMemory = 8 << 20

// readFormFile baca file dari multipart. Return nil, nil jika field tidak dikirim.
func readFormFile(r *http.Request, field string, maxSize int64) (*model.UploadedFile, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	if header.Size > maxSize {
		return nil, errFileTooLarge
	}
	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxSize {
		return nil, errFileTooLarge
	}
	if len(data) == 0 {
		return nil, nil
	}

	return &model.UploadedFile{Data: data, ContentType: detectContentType(header.Header.Get("Content-Type"), data)}, nil
}

// decodeDataURL tanda tangan hasil gambar di canvas: "data:image/png;base64,...."
func decodeDataURL(s string, maxSize int64) (*model.UploadedFile, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	meta, payload, ok := strings.Cut(s, ",")
	if !ok || !strings.HasPrefix(meta, "data:") || !strings.HasSuffix(meta, ";base64") {
		return nil, errors.New("format data tanda tangan tidak valid")
	}
	if int64(base64.StdEncoding.DecodedLen(len(payload))) > maxSize+2 {
		return nil, errFileTooLarge
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("data tanda tangan tidak valid: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, errFileTooLarge
	}

	declared := strings.TrimSuffix(strings.TrimPrefix(meta, "data:"), ";base64")
	return &model.UploadedFile{Data: data, ContentType: detectContentType(declared, data)}, nil
}

func detectContentType(declared string, data []byte) string {
	declared = strings.ToLower(strings.TrimSpace(declared))
	if declared == "" || declared == "application/octet-stream" {
		return http.DetectContentType(data)
	}
	if declared == "image/jpg" {
		return "image/jpeg"
	}
	return declared
}

func parseIntQuery(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	s = strings.TrimSpace(s)
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return defaultVal
	}
	return v
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}
