package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"phishscan/pkg/logger"
)

// BlocklistMatch is one threat-type hit for a URL
type BlocklistMatch struct {
	ThreatType string `json:"threat_type"`
}

// BlocklistClient checks URLs against a known-threat lookup service
type BlocklistClient interface {
	CheckURL(ctx context.Context, url string) ([]BlocklistMatch, error)
	Enabled() bool
}

// GoogleSafeBrowsingClient implements BlocklistClient for the Safe Browsing
// v4 threatMatches API
type GoogleSafeBrowsingClient struct {
	apiKey     string
	apiURL     string
	httpClient *http.Client
	logger     *logger.Logger
}

// SafeBrowsingConfig holds configuration for Google Safe Browsing
type SafeBrowsingConfig struct {
	APIKey  string
	APIURL  string
	Timeout time.Duration
}

// NewGoogleSafeBrowsingClient creates a new Google Safe Browsing client
func NewGoogleSafeBrowsingClient(config SafeBrowsingConfig, log *logger.Logger) *GoogleSafeBrowsingClient {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	apiURL := config.APIURL
	if apiURL == "" {
		apiURL = "https://safebrowsing.googleapis.com/v4/threatMatches:find"
	}

	return &GoogleSafeBrowsingClient{
		apiKey: config.APIKey,
		apiURL: apiURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: log.WithComponent("safe-browsing"),
	}
}

// Enabled reports whether an API key is configured
func (c *GoogleSafeBrowsingClient) Enabled() bool {
	return c.apiKey != ""
}

// CheckURL checks one URL against the Safe Browsing API
func (c *GoogleSafeBrowsingClient) CheckURL(ctx context.Context, url string) ([]BlocklistMatch, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("Safe Browsing API key not configured")
	}

	reqBody := safeBrowsingRequest{
		Client: safeBrowsingClient{
			ClientID:      "phishscan",
			ClientVersion: "1.0.0",
		},
		ThreatInfo: threatInfo{
			ThreatTypes:      []string{"MALWARE", "SOCIAL_ENGINEERING", "UNWANTED_SOFTWARE", "POTENTIALLY_HARMFUL_APPLICATION"},
			PlatformTypes:    []string{"ANY_PLATFORM"},
			ThreatEntryTypes: []string{"URL"},
			ThreatEntries:    []threatEntry{{URL: url}},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST",
		fmt.Sprintf("%s?key=%s", c.apiURL, c.apiKey),
		bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var apiResp safeBrowsingResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	var matches []BlocklistMatch
	for _, match := range apiResp.Matches {
		matches = append(matches, BlocklistMatch{ThreatType: match.ThreatType})
	}

	c.logger.Debug().
		Str("url", url).
		Int("threats_found", len(matches)).
		Msg("Safe Browsing check completed")

	return matches, nil
}

// API request/response types
type safeBrowsingRequest struct {
	Client     safeBrowsingClient `json:"client"`
	ThreatInfo threatInfo         `json:"threatInfo"`
}

type safeBrowsingClient struct {
	ClientID      string `json:"clientId"`
	ClientVersion string `json:"clientVersion"`
}

type threatInfo struct {
	ThreatTypes      []string      `json:"threatTypes"`
	PlatformTypes    []string      `json:"platformTypes"`
	ThreatEntryTypes []string      `json:"threatEntryTypes"`
	ThreatEntries    []threatEntry `json:"threatEntries"`
}

type threatEntry struct {
	URL string `json:"url"`
}

type safeBrowsingResponse struct {
	Matches []threatMatch `json:"matches"`
}

type threatMatch struct {
	ThreatType    string      `json:"threatType"`
	PlatformType  string      `json:"platformType"`
	Threat        threatEntry `json:"threat"`
	CacheDuration string      `json:"cacheDuration"`
}

// MockBlocklistClient is a mock implementation for testing
type MockBlocklistClient struct {
	// ThreatURLs maps URLs to their threat types
	ThreatURLs map[string][]string
}

// NewMockBlocklistClient creates a mock blocklist client
func NewMockBlocklistClient() *MockBlocklistClient {
	return &MockBlocklistClient{
		ThreatURLs: map[string][]string{},
	}
}

// Enabled always reports true for the mock
func (c *MockBlocklistClient) Enabled() bool {
	return true
}

// CheckURL implements BlocklistClient for testing
func (c *MockBlocklistClient) CheckURL(ctx context.Context, url string) ([]BlocklistMatch, error) {
	var matches []BlocklistMatch
	for _, t := range c.ThreatURLs[url] {
		matches = append(matches, BlocklistMatch{ThreatType: t})
	}
	return matches, nil
}
