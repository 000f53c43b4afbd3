package service

import (
	"context"
	"log"
	"time"

	"github.com/ahmadqo/e-sertifikat/internal/utils"
)

// FileStorage object storage untuk template, tanda tangan dan PDF sertifikat.
// *utils.StorageService memenuhi interface ini.
type FileStorage interface {
	UploadImage(ctx context.Context, folder, prefix string, data []byte, contentType string) (string, error)
	UploadPDF(ctx context.Context, folder string, data []byte, name string) (string, error)
	Download(ctx context.Context, fileURL string) ([]byte, string, error)
	DeleteFile(ctx context.Context, fileURL string) error
}

type CertificateRenderer interface {
	Render(data utils.CertificatePDFData) ([]byte, error)
}

type CertificateMailer interface {
	SendCertificate(ctx context.Context, mail utils.CertificateMail) error
}

var (
	_ FileStorage         = (*utils.StorageService)(nil)
	_ CertificateRenderer = utils.PDFRenderer{}
	_ CertificateMailer   = (*utils.Mailer)(nil)
)

// Clock diganti di test
type Clock func() time.Time

// deleteQuietly hapus object lama; kegagalan cukup dicatat
func deleteQuietly(ctx context.Context, storage FileStorage, fileURL *string) {
	if fileURL == nil || *fileURL == "" {
		return
	}
	if err := storage.DeleteFile(ctx, *fileURL); err != nil {
		log.Printf("warning: failed to delete object %s: %v", *fileURL, err)
	}
}
