package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"relist/internal/catalog"
	"relist/internal/config"
	"relist/internal/listing"
	"relist/internal/logging"
)

// ErrNoAccount indicates the item is not bound to a marketplace account.
var ErrNoAccount = errors.New("marketplace: item has no account bound")

// Client publishes listings against the external marketplace API. In sandbox
// mode no network calls are made and synthetic listing identifiers are
// returned, which keeps local development and tests offline.
type Client struct {
	accounts   AccountSource
	baseURL    string
	sandbox    bool
	httpClient *http.Client
	maxRetries uint64
	logger     *slog.Logger
}

// NewClient constructs a marketplace client from configuration.
func NewClient(cfg *config.Config, accounts AccountSource, logger *slog.Logger) *Client {
	timeout := time.Duration(cfg.Marketplace.RequestTimeout) * time.Second
	return &Client{
		accounts:   accounts,
		baseURL:    strings.TrimRight(cfg.Marketplace.BaseURL, "/"),
		sandbox:    cfg.Marketplace.Sandbox,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: uint64(cfg.Marketplace.MaxRetries),
		logger:     logging.NewComponentLogger(logger, "marketplace"),
	}
}

type listingPayload struct {
	SKU           string   `json:"sku,omitempty"`
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	Category      string   `json:"category,omitempty"`
	Condition     string   `json:"condition,omitempty"`
	Brand         string   `json:"brand,omitempty"`
	Features      []string `json:"features,omitempty"`
	Keywords      []string `json:"keywords,omitempty"`
	StartingPrice *float64 `json:"starting_price"`
	BuyNowPrice   *float64 `json:"buy_now_price,omitempty"`
	ShippingCost  *float64 `json:"shipping_cost"`
}

type listingResponse struct {
	ListingID string `json:"listing_id"`
	Error     string `json:"error"`
}

// Publish creates a listing for the item and returns the external listing
// identifier. Transient failures (network errors, 5xx, 429) are retried with
// exponential backoff bounded by the configured retry budget and the caller's
// context deadline.
func (c *Client) Publish(ctx context.Context, item *catalog.Item) (string, error) {
	if item == nil {
		return "", errors.New("marketplace: item is nil")
	}
	if item.MarketplaceAccountID == nil {
		return "", ErrNoAccount
	}

	account, err := c.accounts.GetMarketplaceAccount(ctx, *item.MarketplaceAccountID)
	if err != nil {
		return "", fmt.Errorf("resolve account: %w", err)
	}
	if account == nil {
		return "", fmt.Errorf("marketplace: account %d not found", *item.MarketplaceAccountID)
	}

	if c.sandbox || account.Sandbox {
		listingID := "SBX-" + uuid.NewString()
		c.logger.Info("sandbox publish",
			logging.Int64(logging.FieldItemID, item.ID),
			logging.String("listing_id", listingID))
		_ = c.accounts.TouchAccountSync(ctx, account.ID)
		return listingID, nil
	}

	payload, err := buildPayload(item)
	if err != nil {
		return "", err
	}

	var listingID string
	operation := func() error {
		id, opErr := c.createListing(ctx, account, payload)
		if opErr != nil {
			return opErr
		}
		listingID = id
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return "", err
	}

	if err := c.accounts.TouchAccountSync(ctx, account.ID); err != nil {
		c.logger.Warn("record account sync failed", logging.Error(err))
	}
	return listingID, nil
}

func (c *Client) createListing(ctx context.Context, account *catalog.MarketplaceAccount, payload []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/listings", bytes.NewReader(payload))
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+account.AuthToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("publish request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", fmt.Errorf("marketplace returned %d", resp.StatusCode)
	default:
		return "", backoff.Permanent(fmt.Errorf("marketplace rejected listing: %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var decoded listingResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", backoff.Permanent(fmt.Errorf("decode response: %w", err))
	}
	if decoded.ListingID == "" {
		return "", backoff.Permanent(fmt.Errorf("marketplace response missing listing id"))
	}
	return decoded.ListingID, nil
}

func buildPayload(item *catalog.Item) ([]byte, error) {
	payload := listingPayload{
		SKU:           item.SKU,
		Title:         listing.NormalizeTitle(item.Title),
		Description:   item.Description,
		Category:      item.Category,
		Condition:     item.Condition,
		Brand:         item.Brand,
		Features:      decodeStringList(item.FeaturesJSON),
		Keywords:      decodeStringList(item.KeywordsJSON),
		StartingPrice: item.StartingPrice,
		BuyNowPrice:   item.BuyNowPrice,
		ShippingCost:  item.ShippingCost,
	}
	if len(payload.Keywords) == 0 {
		payload.Keywords = listing.Keywords(item.Title+" "+item.Description, 12)
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode listing payload: %w", err)
	}
	return encoded, nil
}

func decodeStringList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil
	}
	return values
}
