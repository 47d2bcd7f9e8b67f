package gateway

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/xavierca1/zap-relay/internal/entity"
)

var metaE164Re = regexp.MustCompile(`^\+[1-9][0-9]{7,14}$`)

// Envelope fixo da Graph API de mensagens (type=text).
type metaTextMessage struct {
	MessagingProduct string   `json:"messaging_product"`
	RecipientType    string   `json:"recipient_type"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             metaText `json:"text"`
}

type metaText struct {
	Body string `json:"body"`
}

func buildMetaCloud(gw *entity.Gateway, message, phone string) (*RequestSpec, error) {
	cfg := gw.Meta
	if cfg == nil {
		return nil, fmt.Errorf("gateway %s has no meta_cloud config", gw.ID)
	}

	// Pré-condição dura: E.164 ou nada. A Meta não perdoa número torto.
	if !metaE164Re.MatchString(phone) {
		return nil, &entity.InvalidPhoneNumberError{Phone: phone}
	}

	payload := metaTextMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               strings.TrimPrefix(phone, "+"), // a Graph API quer sem o "+"
		Type:             "text",
		Text:             metaText{Body: message},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &RequestSpec{
		Method: "POST",
		URL:    gw.MetaEndpoint(),
		Headers: map[string]string{
			"Authorization": "Bearer " + cfg.AccessToken,
			"Content-Type":  "application/json",
		},
		Body: body,
	}, nil
}
