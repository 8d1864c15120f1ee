package orders

import "github.com/ateliermora/storefront-backend/pkg/db/models"

// ReconcileResult is the outcome of finalizing one checkout session.
type ReconcileResult struct {
	Order models.Order

	// Created is false when the session had already been reconciled and
	// the stored order was returned untouched.
	Created bool

	// Mock marks a synthetic session. The order is ephemeral and was not
	// persisted.
	Mock bool
}

// ConsolidationReport summarizes one fragment merge.
type ConsolidationReport struct {
	FragmentsMerged   int `json:"fragmentsMerged"`
	Orders            int `json:"orders"`
	DuplicatesRemoved int `json:"duplicatesRemoved"`
}
