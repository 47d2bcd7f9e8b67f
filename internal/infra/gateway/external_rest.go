package gateway

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xavierca1/zap-relay/internal/entity"
)

// Placeholders de transporte do gateway REST genérico. São resolvidos por
// último, depois que o renderer já produziu a mensagem final — sintaxe
// diferente de propósito para não colidir com os ${...} do template.
const (
	phPhone   = "{phone}"
	phMessage = "{message}"
	phAPIKey  = "{api_key}"
)

func buildExternalRest(gw *entity.Gateway, message, phone string) (*RequestSpec, error) {
	cfg := gw.External
	if cfg == nil {
		return nil, fmt.Errorf("gateway %s has no external_rest config", gw.ID)
	}

	sub := func(s string) string {
		s = strings.ReplaceAll(s, phPhone, phone)
		s = strings.ReplaceAll(s, phMessage, message)
		s = strings.ReplaceAll(s, phAPIKey, cfg.APIKeyValue)
		return s
	}

	headers := map[string]string{"Content-Type": "application/json"}
	for k, v := range cfg.HeaderTemplate {
		headers[k] = sub(v)
	}

	spec := &RequestSpec{
		Method:  cfg.Method,
		URL:     cfg.URL,
		Headers: headers,
	}

	if cfg.BodyTemplate == "" {
		return spec, nil
	}

	// A substituição acontece depois do decode, valor a valor, para que
	// aspas e quebras de linha na mensagem não quebrem o documento JSON.
	var tree any
	if err := json.Unmarshal([]byte(cfg.BodyTemplate), &tree); err != nil {
		return nil, fmt.Errorf("invalid body template for gateway %s: %w", gw.ID, err)
	}
	tree = substituteTree(tree, sub)

	if cfg.Method == "GET" {
		// GET manda os campos de primeiro nível como query params
		top, ok := tree.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("GET gateway %s needs a flat JSON object template", gw.ID)
		}
		spec.Query = make(map[string]string, len(top))
		for k, v := range top {
			if s, isStr := v.(string); isStr {
				spec.Query[k] = s
			} else {
				spec.Query[k] = fmt.Sprintf("%v", v)
			}
		}
		delete(spec.Headers, "Content-Type")
		return spec, nil
	}

	body, err := json.Marshal(tree)
	if err != nil {
		return nil, err
	}
	spec.Body = body

	return spec, nil
}

func substituteTree(node any, sub func(string) string) any {
	switch v := node.(type) {
	case string:
		return sub(v)
	case map[string]any:
		for k, child := range v {
			v[k] = substituteTree(child, sub)
		}
		return v
	case []any:
		for i, child := range v {
			v[i] = substituteTree(child, sub)
		}
		return v
	default:
		return v
	}
}
