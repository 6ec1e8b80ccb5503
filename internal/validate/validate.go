// Package validate holds input checks shared by the HTTP layer, the services and
// the CLI. Every failure is an *Error, which matches ErrInvalid under errors.Is.
package validate

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mr-tron/base58"
)

var ErrInvalid = errors.New("invalid input")

type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string        { return e.Message }
func (e *Error) Is(target error) bool { return target == ErrInvalid }

func fail(field, format string, args ...any) error {
	return &Error{Field: field, Message: fmt.Sprintf(format, args...)}
}

const (
	MaxFileBytes   = 10 << 20
	MaxBioLength   = 500
	MaxMessageBody = 2000
)

var (
	emailRe    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,30}$`)
	titleRe    = regexp.MustCompile(`^[\w\s\-&]+$`)
)

// AllowedMIME lists attachment types accepted for proofs.
var AllowedMIME = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/jpeg":      true,
	"image/jpg":       true,
}

func Email(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fail("email", "Email is required")
	}
	if !emailRe.MatchString(email) {
		return fail("email", "Invalid email format")
	}
	return nil
}

// TextLength checks the trimmed rune count of a required field.
func TextLength(field, text string, min, max int) error {
	if text == "" {
		return fail(field, "%s is required", field)
	}
	n := utf8.RuneCountInString(strings.TrimSpace(text))
	if n < min {
		return fail(field, "%s must be at least %d characters", field, min)
	}
	if n > max {
		return fail(field, "%s must not exceed %d characters", field, max)
	}
	return nil
}

func DisplayName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fail("displayName", "Display name is required")
	}
	return TextLength("Display name", name, 2, 100)
}

func ProfessionalTitle(title string) error {
	if title == "" {
		return nil
	}
	if err := TextLength("Professional title", title, 2, 100); err != nil {
		return err
	}
	if !titleRe.MatchString(title) {
		return fail("professionalTitle", "Professional title contains invalid characters")
	}
	return nil
}

func Bio(bio string) error {
	if utf8.RuneCountInString(strings.TrimSpace(bio)) > MaxBioLength {
		return fail("bio", "Bio must not exceed %d characters", MaxBioLength)
	}
	return nil
}

func Location(loc string) error {
	if loc == "" {
		return nil
	}
	return TextLength("Location", loc, 2, 100)
}

// URL accepts empty input; otherwise it needs a scheme and a host.
func URL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fail("url", "Invalid URL format")
	}
	return nil
}

func ReferenceLink(link string) error { return URL(link) }

func Username(name string) error {
	if name == "" {
		return fail("username", "Username is required")
	}
	if !usernameRe.MatchString(name) {
		return fail("username", "Username must be 3-30 characters (letters, numbers, underscore, hyphen only)")
	}
	return nil
}

// SolanaAddress requires a base58 string that decodes to a 32-byte public key.
func SolanaAddress(address string) error {
	if address == "" {
		return fail("walletAddress", "Wallet address is required")
	}
	if len(address) < 32 || len(address) > 44 {
		return fail("walletAddress", "Invalid Solana wallet address")
	}
	raw, err := base58.Decode(address)
	if err != nil || len(raw) != 32 {
		return fail("walletAddress", "Invalid Solana wallet address")
	}
	return nil
}

func ProofName(name string) error { return TextLength("Proof name", name, 3, 100) }

func ProofSummary(summary string) error { return TextLength("Proof summary", summary, 10, 1000) }

// File checks an attachment's size and declared content type.
func File(size int64, mime string) error {
	if size <= 0 {
		return fail("file", "File is required")
	}
	if size > MaxFileBytes {
		return fail("file", "File size must not exceed 10MB")
	}
	if !AllowedMIME[strings.ToLower(mime)] {
		return fail("file", "File type not supported. Allowed: application/pdf, image/png, image/jpeg")
	}
	return nil
}

func MessageContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fail("content", "Message content is required")
	}
	if utf8.RuneCountInString(content) > MaxMessageBody {
		return fail("content", "Message must not exceed %d characters", MaxMessageBody)
	}
	return nil
}

func Password(pw string) error {
	if len(pw) < 8 {
		return fail("password", "Password must be at least 8 characters")
	}
	return nil
}
