package entity

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Regex dos placeholders de conteúdo: ${object.campo}, ${user.campo}, ${company.campo}.
// Não confundir com os placeholders de transporte {phone}/{message} do gateway REST.
var placeholderRe = regexp.MustCompile(`\$\{([^}]+)\}`)

var allowedNamespaces = map[string]bool{
	"object":  true,
	"user":    true,
	"company": true,
}

// Entidade: Template de mensagem
type Template struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ModelName string `json:"model_name"` // ex: crm.lead, res.partner

	// Variantes de gateway compatíveis. Vazio = compatível com todas.
	Variants []GatewayVariant `json:"variants,omitempty"`

	Body             string `json:"body"`
	DefaultGatewayID string `json:"default_gateway_id,omitempty"`
	PreviewText      string `json:"preview_text,omitempty"`
	Active           bool   `json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Factory
func NewTemplate(name, modelName, body string, variants []GatewayVariant) (*Template, error) {
	tpl := &Template{
		ID:        uuid.New().String(),
		Name:      name,
		ModelName: modelName,
		Body:      body,
		Variants:  variants,
		Active:    true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := tpl.Validate(); err != nil {
		return nil, err
	}
	return tpl, nil
}

func (t *Template) Validate() error {
	if t.Name == "" {
		return errors.New("name is required")
	}
	if t.ModelName == "" {
		return errors.New("model_name is required")
	}
	if strings.TrimSpace(t.Body) == "" {
		return errors.New("body is required")
	}

	for _, v := range t.Variants {
		if v != VariantExternalRest && v != VariantMetaCloud {
			return errors.New("unknown gateway variant in template: " + string(v))
		}
	}

	// Valida a sintaxe dos placeholders já no save, não só no render
	for _, ph := range t.Placeholders() {
		ns, _, _ := strings.Cut(ph, ".")
		if !allowedNamespaces[ns] {
			return &TemplateRenderError{Placeholder: ph}
		}
	}

	return nil
}

// Placeholders extrai as expressões ${...} do corpo do template.
func (t *Template) Placeholders() []string {
	matches := placeholderRe.FindAllStringSubmatch(t.Body, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

// AppliesTo informa se o template pode ser usado com a variante dada.
func (t *Template) AppliesTo(variant GatewayVariant) bool {
	if len(t.Variants) == 0 {
		return true
	}
	for _, v := range t.Variants {
		if v == variant {
			return true
		}
	}
	return false
}
