package utils

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
)

// DecodeJSON decode request body ke struct
func DecodeJSON(r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

// ValidationErrors map field -> pesan error
type ValidationErrors map[string]string

func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneRegex = regexp.MustCompile(`^\+?[0-9]{8,15}$`)
	nipRegex   = regexp.MustCompile(`^[0-9]{8,18}$`)
	timeRegex  = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
)

func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// IsValidPhone menerima angka 8-15 digit, boleh diawali +; spasi dan strip diabaikan
func IsValidPhone(phone string) bool {
	phone = strings.NewReplacer(" ", "", "-", "").Replace(phone)
	return phoneRegex.MatchString(phone)
}

func IsValidNIP(nip string) bool {
	return nipRegex.MatchString(strings.ReplaceAll(nip, " ", ""))
}

// IsValidClock format jam HH:MM
func IsValidClock(s string) bool {
	return timeRegex.MatchString(s)
}

// IsChecked nilai checkbox dari form multipart ("1", "true", "on", "yes")
func IsChecked(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

func SanitizeString(s string) string {
	return strings.TrimSpace(s)
}
