// Package database defines the persistence gateway port (interface).
package database

import (
	"context"

	"github.com/Huzai911/workspaced/internal/domain/boost"
	"github.com/Huzai911/workspaced/internal/domain/organization"
)

// Store is the port interface for durable workspace storage. Organizations
// are stored wholesale, one record per organization; callers mutate the
// in-memory aggregate and flush the entire tree.
type Store interface {
	// Organizations.
	// SaveOrganization upserts the record and moves the current pointer onto
	// the saved organization.
	SaveOrganization(ctx context.Context, org *organization.Organization) error
	GetOrganization(ctx context.Context, id string) (*organization.Organization, error)
	ListOrganizations(ctx context.Context) ([]organization.Organization, error)
	// DeleteOrganization removes the record. When the deleted organization
	// was current, the current pointer is cleared as well.
	DeleteOrganization(ctx context.Context, id string) error

	// Current organization pointer. Get returns "" when no pointer is set.
	CurrentOrganizationID(ctx context.Context) (string, error)
	// SetCurrentOrganization updates the pointer and touches the
	// organization's last-accessed timestamp.
	SetCurrentOrganization(ctx context.Context, id string) error

	// Boosts
	SaveBoost(ctx context.Context, b *boost.Boost) error
	GetBoost(ctx context.Context, id string) (*boost.Boost, error)
	ListBoosts(ctx context.Context, organizationID string) ([]boost.Boost, error)
}
