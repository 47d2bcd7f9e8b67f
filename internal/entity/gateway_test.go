package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestNewExternalRestGateway - Factory valida e preenche só a seção external
func TestNewExternalRestGateway(t *testing.T) {
	gw, err := NewExternalRestGateway("d360", ExternalRestConfig{
		URL:          "https://waba.360dialog.io/v1/messages",
		Method:       "POST",
		BodyTemplate: `{"to": "{phone}"}`,
		APIKeyValue:  "k1",
	})

	assert.NoError(t, err)
	assert.NotEmpty(t, gw.ID)
	assert.Equal(t, VariantExternalRest, gw.Variant)
	assert.True(t, gw.Active)
	assert.NotNil(t, gw.External)
	assert.Nil(t, gw.Meta)
}

// TestGatewayValidateSecaoTrocada - Exatamente uma seção de config, conforme a variante
func TestGatewayValidateSecaoTrocada(t *testing.T) {
	gw := &Gateway{
		Name:    "misturado",
		Variant: VariantExternalRest,
		External: &ExternalRestConfig{
			URL:    "https://api.example.com",
			Method: "POST",
		},
		Meta: &MetaCloudConfig{PhoneNumberID: "123", AccessToken: "tok"},
	}
	assert.Error(t, gw.Validate())

	gw = &Gateway{Name: "vazio", Variant: VariantMetaCloud}
	assert.Error(t, gw.Validate())

	gw = &Gateway{Name: "desconhecido", Variant: GatewayVariant("sms")}
	assert.Error(t, gw.Validate())
}

// TestGatewayValidateExternalRest - Campos obrigatórios do gateway REST
func TestGatewayValidateExternalRest(t *testing.T) {
	_, err := NewExternalRestGateway("sem-url", ExternalRestConfig{Method: "POST"})
	assert.Error(t, err)

	_, err = NewExternalRestGateway("metodo-ruim", ExternalRestConfig{
		URL:    "https://api.example.com",
		Method: "DELETE",
	})
	assert.Error(t, err)

	_, err = NewExternalRestGateway("json-ruim", ExternalRestConfig{
		URL:          "https://api.example.com",
		Method:       "POST",
		BodyTemplate: `{"to":`,
	})
	assert.Error(t, err)
}

// TestGatewayValidateMetaCloud - Meta exige phone_number_id e access_token
func TestGatewayValidateMetaCloud(t *testing.T) {
	_, err := NewMetaCloudGateway("sem-numero", MetaCloudConfig{AccessToken: "tok"})
	assert.Error(t, err)

	_, err = NewMetaCloudGateway("sem-token", MetaCloudConfig{PhoneNumberID: "123"})
	assert.Error(t, err)
}

// TestGatewaySecrets - Material sensível exposto só para a redação
func TestGatewaySecrets(t *testing.T) {
	gw, err := NewMetaCloudGateway("meta", MetaCloudConfig{
		PhoneNumberID: "123",
		AccessToken:   "tok-abc",
	})
	assert.NoError(t, err)
	assert.Equal(t, []string{"tok-abc"}, gw.Secrets())

	gw, err = NewExternalRestGateway("d360", ExternalRestConfig{
		URL:         "https://api.example.com",
		Method:      "POST",
		APIKeyValue: "k1",
	})
	assert.NoError(t, err)
	assert.Equal(t, []string{"k1"}, gw.Secrets())
}

// TestGatewaySegredoNaoSerializa - Credencial nunca sai no JSON da entidade
func TestGatewaySegredoNaoSerializa(t *testing.T) {
	gw, err := NewMetaCloudGateway("meta", MetaCloudConfig{
		PhoneNumberID: "123",
		AccessToken:   "tok-abc",
	})
	assert.NoError(t, err)

	raw, err := json.Marshal(gw)
	assert.NoError(t, err)
	assert.NotContains(t, string(raw), "tok-abc")

	gw, err = NewExternalRestGateway("d360", ExternalRestConfig{
		URL:         "https://api.example.com",
		Method:      "POST",
		APIKeyValue: "k1",
	})
	assert.NoError(t, err)

	raw, err = json.Marshal(gw)
	assert.NoError(t, err)
	assert.NotContains(t, string(raw), `"k1"`)
}
