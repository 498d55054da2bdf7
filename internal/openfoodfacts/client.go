// Package openfoodfacts provides a small client for the Open Food Facts
// product API. It is used at meal-logging time to pre-fill a packaged
// product's ingredient list from its barcode, so the analysis engine gets
// ingredient-level data even for foods the user didn't type out by hand.
package openfoodfacts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the public Open Food Facts API endpoint.
const DefaultBaseURL = "https://world.openfoodfacts.org"

// Product is the subset of an Open Food Facts record the meal logger needs.
type Product struct {
	Barcode     string
	Name        string
	Brand       string
	Ingredients []string
}

// Client provides access to the Open Food Facts API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new Open Food Facts client. An empty baseURL uses the
// public endpoint.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// productResponse mirrors the API's v2 product payload.
type productResponse struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Product struct {
		ProductName     string `json:"product_name"`
		Brands          string `json:"brands"`
		IngredientsText string `json:"ingredients_text"`
		Ingredients     []struct {
			Text string `json:"text"`
		} `json:"ingredients"`
	} `json:"product"`
}

// FetchProduct retrieves a product by barcode. Ingredients come from the
// structured ingredient list when present, falling back to splitting the
// free-text ingredients field.
func (c *Client) FetchProduct(ctx context.Context, barcode string) (*Product, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, fmt.Errorf("barcode must not be empty")
	}

	url := fmt.Sprintf("%s/api/v2/product/%s.json", c.baseURL, barcode)
	resp, err := c.doRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product %s: %w", barcode, err)
	}
	defer resp.Body.Close()

	var payload productResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode product %s: %w", barcode, err)
	}

	if payload.Status != 1 {
		return nil, fmt.Errorf("product %s not found", barcode)
	}

	product := &Product{
		Barcode: barcode,
		Name:    payload.Product.ProductName,
		Brand:   firstBrand(payload.Product.Brands),
	}

	for _, ingredient := range payload.Product.Ingredients {
		if text := strings.TrimSpace(ingredient.Text); text != "" {
			product.Ingredients = append(product.Ingredients, text)
		}
	}
	if len(product.Ingredients) == 0 && payload.Product.IngredientsText != "" {
		for _, part := range strings.Split(payload.Product.IngredientsText, ",") {
			if text := strings.TrimSpace(part); text != "" {
				product.Ingredients = append(product.Ingredients, text)
			}
		}
	}

	return product, nil
}

// firstBrand picks the leading entry of the comma-separated brands field.
func firstBrand(brands string) string {
	if idx := strings.Index(brands, ","); idx >= 0 {
		brands = brands[:idx]
	}
	return strings.TrimSpace(brands)
}

// doRequest performs an HTTP GET with retry logic
func (c *Client) doRequest(ctx context.Context, url string) (*http.Response, error) {
	maxRetries := 3
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if err := backoff(ctx, i); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			if err := backoff(ctx, i); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
		}

		return resp, nil
	}

	return nil, fmt.Errorf("request failed after %d retries: %w", maxRetries, lastErr)
}

// backoff waits out the linear retry delay, returning early if the context
// is cancelled.
func backoff(ctx context.Context, attempt int) error {
	timer := time.NewTimer(time.Duration(attempt+1) * time.Second)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
