package domain

import (
	"time"
)

// LeadRequest represents the raw promo form payload as submitted by the
// browser. The company field is a honeypot: the form renders it invisibly
// and humans leave it empty.
type LeadRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Source    string `json:"source"`
	CreatedAt string `json:"createdAt"`
	PagePath  string `json:"pagePath"`
	UserAgent string `json:"userAgent"`
	Company   string `json:"company"`
}

// Lead represents an accepted lead submission. It is constructed once per
// request, logged, and forwarded to the CRM; it is never persisted here.
type Lead struct {
	Name            string    `json:"name,omitempty"`
	Email           string    `json:"email"`
	Source          string    `json:"source"`
	CreatedAt       time.Time `json:"created_at"`
	CreatedAtClient string    `json:"created_at_client,omitempty"` // client-supplied, not validated
	PagePath        string    `json:"page_path"`
	UserAgent       string    `json:"user_agent,omitempty"`
	ClientIP        string    `json:"client_ip,omitempty"`
}

// ForwardOutcome describes what the CRM forward actually did. Forwarding
// failures are reported as errors, not as an outcome value.
type ForwardOutcome string

const (
	// ForwardSkipped means no CRM credentials are configured; the lead was
	// logged but not forwarded.
	ForwardSkipped ForwardOutcome = "skipped"
	// ForwardUpdated means an existing contact was updated by email.
	ForwardUpdated ForwardOutcome = "updated"
	// ForwardCreated means the contact did not exist and was created.
	ForwardCreated ForwardOutcome = "created"
)
