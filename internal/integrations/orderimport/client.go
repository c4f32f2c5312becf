// Package orderimport pulls supplier purchase orders from the external
// order system into the planner's own records.
package orderimport

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/vzolin/cashplan-service/internal/config"
	"github.com/vzolin/cashplan-service/internal/models"
	"github.com/vzolin/cashplan-service/internal/planner"
)

// NameCache memoizes resolved supplier names keyed by supplier id. It is
// scoped to a single import run and must not be shared across runs, so a
// renamed supplier is picked up on the next import.
type NameCache struct {
	names map[string]string
}

// NewNameCache creates an empty cache for one import run
func NewNameCache() *NameCache {
	return &NameCache{names: make(map[string]string)}
}

func (c *NameCache) get(id string) (string, bool) {
	name, ok := c.names[id]
	return name, ok
}

func (c *NameCache) put(id, name string) {
	c.names[id] = name
}

// Client fetches purchase orders from the external order system
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	cb         *gobreaker.CircuitBreaker
	log        *logrus.Logger
}

// NewClient initializes a new import client
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    cfg.ImportURL,
		token:      cfg.ImportToken,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "order-import",
			MaxRequests: 3,
			Interval:    30 * time.Second,
			Timeout:     10 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 5 && failureRatio >= 0.6
			},
		}),
		log: log,
	}
}

// Enabled reports whether an import endpoint is configured
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

type externalOrder struct {
	ID            string  `json:"id"`
	SupplierID    string  `json:"supplier_id"`
	Title         string  `json:"title"`
	TotalAmount   float64 `json:"total_amount"`
	DepositAmount float64 `json:"deposit_amount"`
	DepositPaid   bool    `json:"deposit_paid"`
	DepositDate   string  `json:"deposit_date"`
	DueDate       string  `json:"due_date"`
	Currency      string  `json:"currency"`
	Description   string  `json:"description"`
}

type externalSupplier struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FetchOrders retrieves all open purchase orders and resolves supplier
// names through the given per-run cache
func (c *Client) FetchOrders(ctx context.Context, cache *NameCache) ([]models.SupplierOrder, error) {
	var raw []externalOrder
	url := fmt.Sprintf("%s/v1/purchase-orders?status=open", c.baseURL)
	if err := c.getJSON(ctx, url, &raw); err != nil {
		return nil, fmt.Errorf("failed to fetch purchase orders: %w", err)
	}

	orders := make([]models.SupplierOrder, 0, len(raw))
	for _, eo := range raw {
		name, err := c.supplierName(ctx, cache, eo.SupplierID)
		if err != nil {
			// Import the order anyway; a missing name is cosmetic.
			c.log.Warnf("Failed to resolve supplier %s: %v", eo.SupplierID, err)
		}
		orders = append(orders, models.SupplierOrder{
			ExternalID:    eo.ID,
			SupplierID:    eo.SupplierID,
			SupplierName:  name,
			Title:         eo.Title,
			TotalAmount:   eo.TotalAmount,
			DepositAmount: eo.DepositAmount,
			DepositPaid:   eo.DepositPaid,
			DepositDate:   parseDate(eo.DepositDate),
			DueDate:       parseDate(eo.DueDate),
			Currency:      normalizeCurrency(eo.Currency),
			Description:   eo.Description,
		})
	}
	return orders, nil
}

// supplierName resolves one supplier's display name, hitting the external
// system at most once per id within a run
func (c *Client) supplierName(ctx context.Context, cache *NameCache, supplierID string) (string, error) {
	if supplierID == "" {
		return "", nil
	}
	if name, ok := cache.get(supplierID); ok {
		return name, nil
	}

	var s externalSupplier
	url := fmt.Sprintf("%s/v1/suppliers/%s", c.baseURL, supplierID)
	if err := c.getJSON(ctx, url, &s); err != nil {
		return "", err
	}
	cache.put(supplierID, s.Name)
	return s.Name, nil
}

// getJSON performs a GET with retry and circuit breaker
func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	const maxRetries = 2

	_, err := c.cb.Execute(func() (interface{}, error) {
		var lastErr error
		for attempt := 0; attempt <= maxRetries; attempt++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			lastErr = c.doGet(ctx, url, out)
			if lastErr == nil {
				return nil, nil
			}
			if attempt < maxRetries {
				backoff := time.Duration(math.Pow(2, float64(attempt))) * 250 * time.Millisecond
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(backoff):
				}
			}
		}
		return nil, lastErr
	})
	return err
}

func (c *Client) doGet(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("order system returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation(planner.DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}

func normalizeCurrency(code string) string {
	if code == planner.CurrencyCNY {
		return planner.CurrencyCNY
	}
	return planner.CurrencyRUB
}
