package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"

	"github.com/ahmadqo/e-sertifikat/internal/config"
	"gopkg.in/gomail.v2"
)

var certificateMailTemplate = template.Must(template.New("certificate_mail").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2937;">
  <p>Yth. {{.Name}},</p>
  <p>Terima kasih telah mengikuti kegiatan <strong>{{.NamaKegiatan}}</strong>.</p>
  <p>Bersama email ini kami lampirkan sertifikat Anda dengan nomor <strong>{{.NomorSertifikat}}</strong>.</p>
  <p>Salam,<br>Panitia Penyelenggara</p>
</body>
</html>`))

type CertificateMail struct {
	To              string
	Name            string
	NamaKegiatan    string
	NomorSertifikat string
	FileName        string
	Attachment      []byte
}

type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewMailer membuat SMTP mailer; port 465 otomatis memakai SSL
func NewMailer(cfg config.SMTPConfig) *Mailer {
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &Mailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   from,
	}
}

func (m *Mailer) SendCertificate(ctx context.Context, mail CertificateMail) error {
	if m.dialer.Host == "" {
		return errors.New("smtp host is not configured")
	}
	if m.from == "" {
		return errors.New("smtp from address is not configured")
	}

	msg, err := buildCertificateMessage(m.from, mail)
	if err != nil {
		return err
	}

	// gomail tidak mendukung context. Pembatalan hanya dicek sebelum dial;
	// setelah itu pengiriman ditunggu sampai selesai agar hasilnya pasti.
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.dialer.DialAndSend(msg)
}

func buildCertificateMessage(from string, mail CertificateMail) (*gomail.Message, error) {
	var body bytes.Buffer
	if err := certificateMailTemplate.Execute(&body, mail); err != nil {
		return nil, fmt.Errorf("render certificate mail template: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", mail.To)
	msg.SetHeader("Subject", fmt.Sprintf("Sertifikat %s", mail.NamaKegiatan))
	msg.SetBody("text/html", body.String())

	attachment := mail.Attachment
	msg.Attach(mail.FileName,
		gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(attachment)
			return err
		}),
		gomail.SetHeader(map[string][]string{"Content-Type": {"application/pdf"}}),
	)
	return msg, nil
}
