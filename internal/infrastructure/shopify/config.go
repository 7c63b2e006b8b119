package shopify

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultAPIVersion is the Admin API version requested when none is
// configured.
const DefaultAPIVersion = "2024-01"

// Config holds the credentials and tunables of the Shopify Admin API client.
type Config struct {
	// ShopDomain is the myshopify domain, e.g. "example.myshopify.com".
	ShopDomain string
	// AccessToken is the Admin API access token.
	AccessToken string
	// APIVersion selects the Admin API version.
	APIVersion string
	// TimeoutSeconds bounds a single HTTP request.
	TimeoutSeconds int
	// MaxRetries caps the retry attempts per page fetch.
	MaxRetries int
	// BaseURL overrides the API endpoint. Used by tests; empty in
	// production, where the URL derives from ShopDomain.
	BaseURL string
}

// ErrInvalidConfig indicates missing or malformed Shopify credentials
var ErrInvalidConfig = errors.New("shopify: invalid configuration")

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.BaseURL == "" && c.ShopDomain == "" {
		return fmt.Errorf("%w: shop domain is required", ErrInvalidConfig)
	}
	if c.AccessToken == "" {
		return fmt.Errorf("%w: access token is required", ErrInvalidConfig)
	}
	return nil
}

// apiBaseURL returns the Admin API base URL for the configured shop.
func (c *Config) apiBaseURL() string {
	if c.BaseURL != "" {
		return strings.TrimSuffix(c.BaseURL, "/")
	}
	version := c.APIVersion
	if version == "" {
		version = DefaultAPIVersion
	}
	return fmt.Sprintf("https://%s/admin/api/%s", c.ShopDomain, version)
}
