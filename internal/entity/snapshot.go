package entity

// Value Object: RecordSnapshot
//
// Uma foto plana (campo -> valor) de um registro do ERP, tirada pelo
// colaborador de integração no momento do envio. O renderer nunca toca
// o registro vivo, só esse snapshot.
type RecordSnapshot map[string]any

// RenderContext agrupa os três namespaces de placeholder disponíveis
// num render: object (registro de origem), user e company.
type RenderContext struct {
	Object  RecordSnapshot
	User    RecordSnapshot
	Company RecordSnapshot
}

func (c RenderContext) Lookup(namespace, field string) (any, bool) {
	var snap RecordSnapshot
	switch namespace {
	case "object":
		snap = c.Object
	case "user":
		snap = c.User
	case "company":
		snap = c.Company
	default:
		return nil, false
	}

	v, ok := snap[field]
	return v, ok
}
