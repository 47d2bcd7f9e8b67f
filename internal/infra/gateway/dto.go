package gateway

import "encoding/json"

// RequestSpec é a request HTTP já montada, pronta para o worker executar.
// Os builders só produzem esse spec — nenhum I/O acontece aqui.
type RequestSpec struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
	Query   map[string]string `json:"query,omitempty"`
	Body    json.RawMessage   `json:"body,omitempty"`
}

// Response é o resultado bruto de uma execução de RequestSpec.
type Response struct {
	StatusCode int
	Body       []byte
}
