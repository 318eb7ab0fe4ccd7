package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"landing-v2/internal/config"
	"landing-v2/internal/domain"
	"landing-v2/pkg/logger"
)

// Outbound throttle for the CRM API. HubSpot enforces burst limits per
// private app token, so the client smooths its own traffic.
const (
	crmRequestsPerSecond = 5
	crmBurst             = 10
)

// HubSpotClient forwards leads to a HubSpot-shaped contacts API. The API is
// treated as a black box: anything other than 2xx or a 404 on update is an
// error for the request being handled.
type HubSpotClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logger.Logger
}

// NewHubSpotClient creates a new CRM client
func NewHubSpotClient(cfg *config.Config, logger *logger.Logger) *HubSpotClient {
	return &HubSpotClient{
		baseURL: strings.TrimRight(cfg.CRMBaseURL, "/"),
		token:   cfg.CRMAccessToken,
		httpClient: &http.Client{
			Timeout: cfg.CRMTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(crmRequestsPerSecond), crmBurst),
		logger:  logger,
	}
}

var _ CRMService = (*HubSpotClient)(nil)

// contactProperties is the property bag HubSpot expects for a contact.
type contactProperties struct {
	Email     string `json:"email"`
	FirstName string `json:"firstname,omitempty"`
	LastName  string `json:"lastname,omitempty"`
}

type contactBody struct {
	Properties contactProperties `json:"properties"`
}

// UpsertContact tries a partial update keyed by email first and falls back
// to a create when the contact does not exist. This costs an extra round
// trip for first-time leads but avoids a separate existence check.
func (c *HubSpotClient) UpsertContact(ctx context.Context, lead *domain.Lead) (domain.ForwardOutcome, error) {
	if c.token == "" {
		c.logger.WithField("email", lead.Email).Debug("CRM token not configured, skipping forward")
		return domain.ForwardSkipped, nil
	}

	body := contactBody{Properties: buildProperties(lead)}

	updateURL := fmt.Sprintf("%s/crm/v3/objects/contacts/%s?idProperty=email",
		c.baseURL, url.PathEscape(lead.Email))
	status, respBody, err := c.doRequest(ctx, http.MethodPatch, updateURL, body)
	if err != nil {
		return "", fmt.Errorf("CRM update failed: %w", err)
	}

	switch {
	case status >= 200 && status < 300:
		c.logger.WithField("email", lead.Email).Debug("CRM contact updated")
		return domain.ForwardUpdated, nil
	case status == http.StatusNotFound:
		// Unknown email, fall through to create.
	default:
		return "", fmt.Errorf("CRM update returned status %d: %s", status, extractCRMError(respBody))
	}

	createURL := c.baseURL + "/crm/v3/objects/contacts"
	status, respBody, err = c.doRequest(ctx, http.MethodPost, createURL, body)
	if err != nil {
		return "", fmt.Errorf("CRM create failed: %w", err)
	}
	if status < 200 || status >= 300 {
		return "", fmt.Errorf("CRM create returned status %d: %s", status, extractCRMError(respBody))
	}

	c.logger.WithField("email", lead.Email).Debug("CRM contact created")
	return domain.ForwardCreated, nil
}

// doRequest issues one bearer-authenticated JSON request and returns the
// status code and raw response body.
func (c *HubSpotClient) doRequest(ctx context.Context, method, requestURL string, payload interface{}) (int, []byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, nil, fmt.Errorf("throttle wait: %w", err)
	}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to call CRM: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return resp.StatusCode, respBody, nil
}

// buildProperties maps a lead onto the CRM contact property bag, splitting
// the visible name into first and last on the first space.
func buildProperties(lead *domain.Lead) contactProperties {
	props := contactProperties{Email: lead.Email}

	fields := strings.Fields(lead.Name)
	if len(fields) > 0 {
		props.FirstName = fields[0]
	}
	if len(fields) > 1 {
		props.LastName = strings.Join(fields[1:], " ")
	}
	return props
}

// extractCRMError pulls a human-readable message out of a CRM error body.
// HubSpot uses {"message": ...}; some gateways use {"error": ...}; anything
// else is returned as raw text.
func extractCRMError(body []byte) string {
	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}

	text := strings.TrimSpace(string(body))
	if len(text) > 512 {
		text = text[:512]
	}
	if text == "" {
		return "no response body"
	}
	return text
}
