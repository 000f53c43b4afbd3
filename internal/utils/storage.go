package utils

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ahmadqo/e-sertifikat/internal/config"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	FolderTemplates    = "templates"
	FolderSignatures   = "signatures"
	FolderCertificates = "certificates"
)

type StorageService struct {
	client   *minio.Client
	bucket   string
	endpoint string
}

// AllowedImageTypes untuk template sertifikat dan tanda tangan
var AllowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

func NewStorageService(ctx context.Context, cfg *config.MinIOConfig) (*StorageService, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.User, cfg.Password, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	// Pastikan bucket ada
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}

	return &StorageService{
		client:   client,
		bucket:   cfg.Bucket,
		endpoint: fmt.Sprintf("%s://%s", scheme, cfg.Endpoint),
	}, nil
}

// UploadImage upload gambar (template / tanda tangan) dan kembalikan URL-nya
func (s *StorageService) UploadImage(ctx context.Context, folder, prefix string, data []byte, contentType string) (string, error) {
	ext, ok := AllowedImageTypes[contentType]
	if !ok {
		return "", fmt.Errorf("tipe file tidak diizinkan: %s", contentType)
	}

	objectName := fmt.Sprintf("%s/%s-%s-%s%s",
		folder,
		Slugify(prefix),
		time.Now().Format("20060102"),
		uuid.New().String()[:8],
		ext,
	)
	return s.put(ctx, objectName, data, contentType)
}

// UploadPDF upload file PDF sertifikat. Nama object selalu unik sehingga
// generate ulang menghasilkan URL baru.
func (s *StorageService) UploadPDF(ctx context.Context, folder string, data []byte, name string) (string, error) {
	objectName := fmt.Sprintf("%s/%s-%s.pdf", folder, Slugify(name), uuid.New().String()[:8])
	return s.put(ctx, objectName, data, "application/pdf")
}

func (s *StorageService) put(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("gagal upload file: %w", err)
	}
	return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, objectName), nil
}

// Download ambil isi file beserta content type-nya
func (s *StorageService) Download(ctx context.Context, fileURL string) ([]byte, string, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.objectName(fileURL), minio.GetObjectOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("gagal mengambil file: %w", err)
	}
	defer obj.Close()

	info, err := obj.Stat()
	if err != nil {
		return nil, "", fmt.Errorf("gagal mengambil file: %w", err)
	}

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, "", fmt.Errorf("gagal membaca file: %w", err)
	}
	return data, info.ContentType, nil
}

// DeleteFile hapus file dari MinIO
func (s *StorageService) DeleteFile(ctx context.Context, fileURL string) error {
	return s.client.RemoveObject(ctx, s.bucket, s.objectName(fileURL), minio.RemoveObjectOptions{})
}

func (s *StorageService) objectName(fileURL string) string {
	prefix := fmt.Sprintf("%s/%s/", s.endpoint, s.bucket)
	return strings.TrimPrefix(fileURL, prefix)
}

// Slugify huruf kecil, selain a-z0-9 jadi "-"
func Slugify(text string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(text) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		return "file"
	}
	return slug
}
