package utils

import (
	"fmt"
	"net/url"

	qrcode "github.com/skip2/go-qrcode"
)

// VerifyURL link verifikasi publik untuk nomor sertifikat
func VerifyURL(appURL, nomorSertifikat string) string {
	return fmt.Sprintf("%s/api/v1/verify?nomor=%s", appURL, url.QueryEscape(nomorSertifikat))
}

// GenerateQRCodePNG membuat QR code sebagai PNG bytes
func GenerateQRCodePNG(content string, size int) ([]byte, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("gagal generate QR code: %w", err)
	}
	return png, nil
}
