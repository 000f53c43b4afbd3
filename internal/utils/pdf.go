package utils

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

var ErrTemplateMissing = errors.New("template sertifikat belum diunggah")

type CertificatePDFData struct {
	TemplateImage   []byte
	TemplateType    string // image/png | image/jpeg
	NamaLengkap     string
	UnitKerja       string
	NomorSertifikat string
	NamaKegiatan    string
	TanggalMulai    time.Time
	TanggalSelesai  time.Time
	IssuerName      string
	IssuerTitle     string
	QRCodePNG       []byte // QR code sebagai bytes PNG
	IssuedAt        time.Time
}

// PDFRenderer merender sertifikat A4 landscape di atas gambar template event
type PDFRenderer struct{}

func (PDFRenderer) Render(data CertificatePDFData) ([]byte, error) {
	return GenerateCertificatePDF(data)
}

func GenerateCertificatePDF(data CertificatePDFData) ([]byte, error) {
	if len(data.TemplateImage) == 0 {
		return nil, ErrTemplateMissing
	}
	imageType, err := pdfImageType(data.TemplateType)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	pageW, pageH := pdf.GetPageSize()

	// ─────────────────────────────────────────
	// BACKGROUND - gambar template dari panitia
	// ─────────────────────────────────────────
	opts := gofpdf.ImageOptions{ImageType: imageType}
	pdf.RegisterImageOptionsReader("template", opts, bytes.NewReader(data.TemplateImage))
	pdf.ImageOptions("template", 0, 0, pageW, pageH, false, opts, 0, "")

	// ─────────────────────────────────────────
	// NOMOR SERTIFIKAT
	// ─────────────────────────────────────────
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Arial", "", 12)
	pdf.SetXY(0, 52)
	pdf.CellFormat(pageW, 6, fmt.Sprintf("Nomor: %s", data.NomorSertifikat), "", 1, "C", false, 0, "")

	// ─────────────────────────────────────────
	// NAMA PESERTA
	// ─────────────────────────────────────────
	pdf.SetFont("Arial", "", 13)
	pdf.SetXY(0, 72)
	pdf.CellFormat(pageW, 6, "Diberikan kepada:", "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "B", 26)
	pdf.SetTextColor(0, 51, 102)
	pdf.SetXY(0, 82)
	pdf.CellFormat(pageW, 12, truncate(data.NamaLengkap, 60), "", 1, "C", false, 0, "")

	if data.UnitKerja != "" {
		pdf.SetFont("Arial", "", 12)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetXY(0, 96)
		pdf.CellFormat(pageW, 6, truncate(data.UnitKerja, 90), "", 1, "C", false, 0, "")
	}

	// ─────────────────────────────────────────
	// KETERANGAN KEGIATAN
	// ─────────────────────────────────────────
	pdf.SetFont("Arial", "", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(30, 110)
	pdf.MultiCell(pageW-60, 6,
		fmt.Sprintf("Atas partisipasinya sebagai peserta dalam kegiatan %s yang dilaksanakan pada %s.",
			data.NamaKegiatan, FormatRentangTanggal(data.TanggalMulai, data.TanggalSelesai)),
		"", "C", false)

	// ─────────────────────────────────────────
	// TANDA TANGAN PENERBIT (kanan) & QR (kiri)
	// ─────────────────────────────────────────
	signX := pageW - 95
	pdf.SetXY(signX, 140)
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(70, 5, FormatTanggal(data.IssuedAt), "", 1, "C", false, 0, "")
	pdf.SetX(signX)
	pdf.CellFormat(70, 5, data.IssuerTitle, "", 1, "C", false, 0, "")
	pdf.SetXY(signX, 168)
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(70, 5, data.IssuerName, "", 1, "C", false, 0, "")

	if len(data.QRCodePNG) > 0 {
		qrOpts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("qrcode", qrOpts, bytes.NewReader(data.QRCodePNG))
		pdf.ImageOptions("qrcode", 25, 140, 30, 30, false, qrOpts, 0, "")
		pdf.SetXY(20, 171)
		pdf.SetFont("Arial", "", 7)
		pdf.CellFormat(40, 4, "Scan untuk verifikasi", "", 1, "C", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("gagal generate PDF: %w", err)
	}

	return buf.Bytes(), nil
}

func pdfImageType(contentType string) (string, error) {
	switch contentType {
	case "image/png":
		return "PNG", nil
	case "image/jpeg", "image/jpg":
		return "JPG", nil
	}
	return "", fmt.Errorf("format template tidak didukung: %q", contentType)
}

var bulan = [...]string{"", "Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember"}

// FormatTanggal format tanggal Indonesia, contoh: 5 Maret 2025
func FormatTanggal(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), bulan[t.Month()], t.Year())
}

func FormatRentangTanggal(start, end time.Time) string {
	if end.IsZero() || start.Equal(end) {
		return FormatTanggal(start)
	}
	return fmt.Sprintf("%s s.d. %s", FormatTanggal(start), FormatTanggal(end))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
