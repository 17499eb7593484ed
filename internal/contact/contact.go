package contact

import (
	"context"
	"errors"
	"log"
	"strings"
)

const (
	SpamMessage     = "Error: SPAM detectado."
	PrivacyMessage  = "Debes aceptar la política de privacidad."
	RequiredMessage = "Por favor, completa todos los campos obligatorios."
	SuccessMessage  = "¡Mensaje enviado con éxito! Gracias por contactarnos."
)

var (
	ErrSpam          = errors.New("contact: honeypot filled")
	ErrPrivacy       = errors.New("contact: privacy policy not accepted")
	ErrMissingFields = errors.New("contact: missing required fields")
)

type Form struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Subject    string `json:"subject"`
	Message    string `json:"message"`
	Privacy    bool   `json:"privacyAccepted"`
	Newsletter bool   `json:"newsletterSubscribed"`
	// Honeypot is hidden from people; bots fill it in.
	Honeypot   string `json:"honeypot"`
}

// Validate checks the honeypot first so bots never learn which field they
// got wrong.
func (f *Form) Validate() error {
	if strings.TrimSpace(f.Honeypot) != "" {
		return ErrSpam
	}
	if strings.TrimSpace(f.Name) == "" || strings.TrimSpace(f.Email) == "" ||
		strings.TrimSpace(f.Subject) == "" || strings.TrimSpace(f.Message) == "" {
		return ErrMissingFields
	}
	if !f.Privacy {
		return ErrPrivacy
	}
	return nil
}

// UserMessage maps a Validate error to the text shown next to the form.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return SuccessMessage
	case errors.Is(err, ErrSpam):
		return SpamMessage
	case errors.Is(err, ErrPrivacy):
		return PrivacyMessage
	default:
		return RequiredMessage
	}
}

// Service accepts contact submissions. Nothing is delivered anywhere; a
// valid submission is only logged.
type Service struct {
	logger *log.Logger
}

func NewService(logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{logger: logger}
}

func (s *Service) Submit(ctx context.Context, f Form) error {
	if err := f.Validate(); err != nil {
		s.logger.Printf("contact: rejected submission from %q: %v", f.Email, err)
		return err
	}

	s.logger.Printf("contact: message from %s <%s> subject=%q newsletter=%t (%d chars)",
		strings.TrimSpace(f.Name), strings.TrimSpace(f.Email), f.Subject, f.Newsletter, len(f.Message))
	return nil
}
