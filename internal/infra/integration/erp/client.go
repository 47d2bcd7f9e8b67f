package erp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/xavierca1/zap-relay/internal/entity"
)

// Client fala com o host ERP: tira snapshots de registros para o renderer
// e posta resumos de entrega no chatter do registro de origem.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	APIKey     string
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
		BaseURL:    baseURL,
		APIKey:     apiKey,
	}
}

// FetchSnapshot devolve a foto plana (campo -> valor de exibição) do registro.
func (c *Client) FetchSnapshot(ctx context.Context, model string, recordID int64) (entity.RecordSnapshot, error) {
	url := fmt.Sprintf("%s/api/records/%s/%d/snapshot", c.BaseURL, model, recordID)

	var payload snapshotResponse
	if err := c.getJSON(ctx, url, &payload); err != nil {
		var httpErr *httpStatusError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			return nil, &entity.SourceRecordNotFoundError{Model: model, RecordID: recordID}
		}
		return nil, err
	}

	return payload.Fields, nil
}

// FetchEnvironment devolve os snapshots do usuário corrente e da empresa.
func (c *Client) FetchEnvironment(ctx context.Context) (entity.RecordSnapshot, entity.RecordSnapshot, error) {
	url := c.BaseURL + "/api/environment/snapshot"

	var payload environmentResponse
	if err := c.getJSON(ctx, url, &payload); err != nil {
		return nil, nil, err
	}

	return payload.User, payload.Company, nil
}

// PostDeliveryNote posta o resumo no chatter do registro. Quem chama já
// trata falha como best-effort.
func (c *Client) PostDeliveryNote(ctx context.Context, model string, recordID int64, summary string) error {
	url := fmt.Sprintf("%s/api/records/%s/%d/chatter", c.BaseURL, model, recordID)

	body, err := json.Marshal(chatterRequest{Body: summary})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("erp chatter retornou status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return &httpStatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("X-API-Key", c.APIKey)
	}
}

type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("erp retornou status %d: %s", e.StatusCode, e.Body)
}
