// Package exchangerate содержит клиент внешнего API курсов валют.
package exchangerate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Client запрашивает курсы валют к BRL у внешнего API.
type Client struct {
	apiURL     string
	httpClient *http.Client
}

// NewClient создаёт новый клиент API курсов валют.
func NewClient(apiURL string) *Client {
	return &Client{
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type ratesResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

// FetchRates возвращает курсы перечисленных валют к BRL.
// Валюты, отсутствующие в ответе API, просто пропускаются.
func (c *Client) FetchRates(ctx context.Context, currencies []string) (map[string]float64, error) {
	const op = "exchangerate.FetchRates"

	url := fmt.Sprintf("%s/latest?base=BRL", c.apiURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: %w", op, errors.New("unexpected status: "+resp.Status))
	}

	var parsed ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make(map[string]float64, len(currencies))
	for _, currency := range currencies {
		rate, ok := parsed.Rates[currency]
		if !ok || rate == 0 {
			continue
		}
		// API отдает количество валюты за 1 BRL, храним цену валюты в BRL.
		result[currency] = 1 / rate
	}
	return result, nil
}
