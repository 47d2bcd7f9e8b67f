package usecase

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xavierca1/zap-relay/internal/entity"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func ValidateSendMessageInput(input SendMessageInput) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(input.GatewayID) == "" {
		errors = append(errors, ValidationError{"gateway_id", "is required"})
	}

	if strings.TrimSpace(input.Phone) == "" {
		errors = append(errors, ValidationError{"phone", "is required"})
	}

	if strings.TrimSpace(input.Message) == "" && strings.TrimSpace(input.TemplateID) == "" {
		errors = append(errors, ValidationError{"message", "message or template_id is required"})
	}

	if input.TemplateID != "" && (input.SourceModel == "" || input.SourceRecordID == 0) {
		errors = append(errors, ValidationError{"source_record_id", "is required when template_id is given"})
	}

	if input.SourceModel == "" && input.SourceRecordID != 0 {
		errors = append(errors, ValidationError{"source_model", "is required when source_record_id is given"})
	}

	return errors
}

var nonPhoneChars = regexp.MustCompile(`[\s\-\.\(\)]`)
var e164Re = regexp.MustCompile(`^\+[1-9][0-9]{7,14}$`)

// NormalizePhone limpa o número e devolve no formato internacional (+DDI...).
//
// Números nacionais curtos (8 a 10 dígitos) ganham o DDI default configurado;
// números de 11+ dígitos sem "+" assumem que o DDI já veio junto. Tudo que
// não fecha com E.164 no final é recusado.
func NormalizePhone(raw, defaultCountryCode string) (string, error) {
	cleaned := nonPhoneChars.ReplaceAllString(strings.TrimSpace(raw), "")
	if cleaned == "" {
		return "", invalidPhone(raw)
	}

	hasPlus := strings.HasPrefix(cleaned, "+")
	digits := strings.TrimPrefix(cleaned, "+")

	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", invalidPhone(raw)
		}
	}

	if !hasPlus {
		switch {
		case len(digits) >= 8 && len(digits) <= 10:
			if defaultCountryCode == "" {
				return "", invalidPhone(raw)
			}
			digits = defaultCountryCode + digits
		case len(digits) >= 11 && len(digits) <= 15:
			// já veio com DDI, só faltou o "+"
		default:
			return "", invalidPhone(raw)
		}
	}

	normalized := "+" + digits
	if !e164Re.MatchString(normalized) {
		return "", invalidPhone(raw)
	}

	return normalized, nil
}

// IsE164 valida o formato internacional já normalizado.
func IsE164(phone string) bool {
	return e164Re.MatchString(phone)
}

func invalidPhone(raw string) error {
	return &entity.InvalidPhoneNumberError{Phone: raw}
}
