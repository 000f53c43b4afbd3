package utils

import "fmt"

// FormatCertificateNumber membuat nomor sertifikat format: {urutan}/{nomor_surat}
// tanpa padding. Nilainya disimpan sekali saat absensi dan tidak pernah dihitung ulang.
func FormatCertificateNumber(sequence int, nomorSurat string) string {
	return fmt.Sprintf("%d/%s", sequence, nomorSurat)
}
