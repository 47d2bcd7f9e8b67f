package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Sender executa um RequestSpec. É o único ponto de I/O do pacote —
// quem chama é o worker da fila, nunca o dispatcher.
type Sender struct {
	HTTPClient *http.Client
}

func NewSender(timeout time.Duration) *Sender {
	return &Sender{
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

func (s *Sender) Do(ctx context.Context, spec *RequestSpec) (*Response, error) {
	reqURL := spec.URL
	if len(spec.Query) > 0 {
		q := url.Values{}
		for k, v := range spec.Query {
			q.Set(k, v)
		}
		reqURL = reqURL + "?" + q.Encode()
	}

	var bodyReader io.Reader
	if len(spec.Body) > 0 {
		bodyReader = bytes.NewReader(spec.Body)
	}

	req, err := http.NewRequestWithContext(ctx, spec.Method, reqURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("erro ao criar requisição: %w", err)
	}

	for k, v := range spec.Headers {
		req.Header.Set(k, v)
	}

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       respBody,
	}, nil
}
