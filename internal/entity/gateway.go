package entity

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	// IMPORTANTE: NÃO adicione imports de usecase ou infra aqui!
)

// Variantes de gateway suportadas. O conjunto é fechado: adicionar um
// provedor novo exige um builder novo em infra/gateway.
type GatewayVariant string

const (
	VariantExternalRest GatewayVariant = "external_rest"
	VariantMetaCloud    GatewayVariant = "meta_cloud_api"
)

const MetaGraphBaseURL = "https://graph.facebook.com/v18.0"

// Config do gateway REST genérico (D360, Z-API, Twilio-like etc).
// O BodyTemplate é um JSON com os placeholders de transporte
// {phone}, {message} e {api_key}, resolvidos na hora de montar a request.
type ExternalRestConfig struct {
	URL            string            `json:"url"`
	Method         string            `json:"method"` // GET ou POST
	HeaderTemplate map[string]string `json:"header_template,omitempty"`
	BodyTemplate   string            `json:"body_template"`
	APIKeyValue    string            `json:"-"` // segredo, nunca serializa
}

// Config da Meta Cloud API (Graph API oficial do WhatsApp Business).
type MetaCloudConfig struct {
	PhoneNumberID string `json:"phone_number_id"`
	AccessToken   string `json:"-"` // segredo, nunca serializa
	SenderName    string `json:"sender_name,omitempty"`
}

// Entidade: Gateway
type Gateway struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Variant GatewayVariant `json:"variant"`
	Active  bool           `json:"active"`

	// Exatamente uma seção preenchida, de acordo com Variant.
	External *ExternalRestConfig `json:"external,omitempty"`
	Meta     *MetaCloudConfig    `json:"meta,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Factory
func NewExternalRestGateway(name string, cfg ExternalRestConfig) (*Gateway, error) {
	gw := &Gateway{
		ID:        uuid.New().String(),
		Name:      name,
		Variant:   VariantExternalRest,
		Active:    true,
		External:  &cfg,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := gw.Validate(); err != nil {
		return nil, err
	}
	return gw, nil
}

// Factory
func NewMetaCloudGateway(name string, cfg MetaCloudConfig) (*Gateway, error) {
	gw := &Gateway{
		ID:        uuid.New().String(),
		Name:      name,
		Variant:   VariantMetaCloud,
		Active:    true,
		Meta:      &cfg,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := gw.Validate(); err != nil {
		return nil, err
	}
	return gw, nil
}

func (g *Gateway) Validate() error {
	if g.Name == "" {
		return errors.New("name is required")
	}

	switch g.Variant {
	case VariantExternalRest:
		if g.Meta != nil {
			return errors.New("meta config must be empty for external_rest gateway")
		}
		if g.External == nil {
			return errors.New("external config is required for external_rest gateway")
		}
		if g.External.URL == "" {
			return errors.New("external url is required")
		}
		if g.External.Method != "GET" && g.External.Method != "POST" {
			return errors.New("external method must be GET or POST")
		}
		if g.External.BodyTemplate != "" && !json.Valid([]byte(g.External.BodyTemplate)) {
			return errors.New("external body template must be valid JSON")
		}

	case VariantMetaCloud:
		if g.External != nil {
			return errors.New("external config must be empty for meta_cloud_api gateway")
		}
		if g.Meta == nil {
			return errors.New("meta config is required for meta_cloud_api gateway")
		}
		if g.Meta.PhoneNumberID == "" {
			return errors.New("meta phone_number_id is required")
		}
		if g.Meta.AccessToken == "" {
			return errors.New("meta access_token is required")
		}

	default:
		return fmt.Errorf("unknown gateway variant: %s", g.Variant)
	}

	return nil
}

// MetaEndpoint monta a URL do endpoint de mensagens da Graph API.
func (g *Gateway) MetaEndpoint() string {
	if g.Meta == nil {
		return ""
	}
	return fmt.Sprintf("%s/%s/messages", MetaGraphBaseURL, g.Meta.PhoneNumberID)
}

// Secrets retorna o material sensível do gateway, usado pela redação
// de payloads antes de persistir qualquer request.
func (g *Gateway) Secrets() []string {
	var secrets []string
	if g.External != nil && g.External.APIKeyValue != "" {
		secrets = append(secrets, g.External.APIKeyValue)
	}
	if g.Meta != nil && g.Meta.AccessToken != "" {
		secrets = append(secrets, g.Meta.AccessToken)
	}
	return secrets
}

func (g *Gateway) Deactivate() {
	g.Active = false
	g.UpdatedAt = time.Now()
}

func (g *Gateway) Activate() {
	g.Active = true
	g.UpdatedAt = time.Now()
}
