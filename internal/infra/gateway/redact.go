package gateway

import (
	"bytes"
	"strings"
)

// Máscara fixa usada no lugar de qualquer credencial persistida.
const SecretMask = "***"

// Redact devolve uma cópia do spec com todo material sensível mascarado.
// É essa cópia — e só ela — que pode ir para o log de entregas.
func Redact(spec *RequestSpec, secrets []string) *RequestSpec {
	out := &RequestSpec{
		Method: spec.Method,
		URL:    spec.URL,
	}

	if spec.Headers != nil {
		out.Headers = make(map[string]string, len(spec.Headers))
		for k, v := range spec.Headers {
			if strings.EqualFold(k, "Authorization") {
				out.Headers[k] = redactAuthorization(v)
				continue
			}
			out.Headers[k] = maskSecrets(v, secrets)
		}
	}

	if spec.Query != nil {
		out.Query = make(map[string]string, len(spec.Query))
		for k, v := range spec.Query {
			out.Query[k] = maskSecrets(v, secrets)
		}
	}

	if spec.Body != nil {
		body := spec.Body
		for _, s := range secrets {
			body = bytes.ReplaceAll(body, []byte(s), []byte(SecretMask))
		}
		out.Body = body
	}

	return out
}

func redactAuthorization(v string) string {
	if scheme, _, found := strings.Cut(v, " "); found {
		return scheme + " " + SecretMask
	}
	return SecretMask
}

func maskSecrets(v string, secrets []string) string {
	for _, s := range secrets {
		v = strings.ReplaceAll(v, s, SecretMask)
	}
	return v
}
