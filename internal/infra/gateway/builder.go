package gateway

import (
	"fmt"

	"github.com/xavierca1/zap-relay/internal/entity"
)

// BuildRequest monta a request de entrega para o gateway dado.
// Despacho fechado por variante: provedor novo = builder novo aqui.
func BuildRequest(gw *entity.Gateway, message, phone string) (*RequestSpec, error) {
	switch gw.Variant {
	case entity.VariantExternalRest:
		return buildExternalRest(gw, message, phone)
	case entity.VariantMetaCloud:
		return buildMetaCloud(gw, message, phone)
	default:
		return nil, fmt.Errorf("unknown gateway variant: %s", gw.Variant)
	}
}
