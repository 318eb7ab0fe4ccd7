package service

import (
	"context"

	"landing-v2/internal/domain"
)

// CRMService defines the interface for forwarding leads to the external CRM
type CRMService interface {
	// UpsertContact updates the contact identified by the lead's email, or
	// creates it when the CRM does not know the address yet.
	UpsertContact(ctx context.Context, lead *domain.Lead) (domain.ForwardOutcome, error)
}
