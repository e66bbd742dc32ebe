package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Huzai911/workspaced/internal/domain"
	"github.com/Huzai911/workspaced/internal/domain/boost"
	"github.com/Huzai911/workspaced/internal/domain/organization"
)

// Store implements database.Store using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// --- Organizations ---

// SaveOrganization upserts the whole organization record and moves the
// current pointer onto it, matching the save-then-select behavior of the
// persistence contract.
func (s *Store) SaveOrganization(ctx context.Context, org *organization.Organization) error {
	record, err := json.Marshal(org)
	if err != nil {
		return fmt.Errorf("marshal organization: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save organization: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO organizations (id, record, last_accessed, updated_at)
		 VALUES ($1, $2, NOW(), NOW())
		 ON CONFLICT (id) DO UPDATE SET record = EXCLUDED.record, updated_at = NOW()`,
		org.ID, record)
	if err != nil {
		return fmt.Errorf("save organization %s: %w", org.ID, err)
	}

	// Every save moves the pointer: the most recently saved organization is
	// the current one.
	_, err = tx.Exec(ctx,
		`INSERT INTO current_organization (singleton, organization_id, updated_at)
		 VALUES (TRUE, $1, NOW())
		 ON CONFLICT (singleton) DO UPDATE
		 SET organization_id = EXCLUDED.organization_id, updated_at = NOW()`,
		org.ID)
	if err != nil {
		return fmt.Errorf("set current organization: %w", err)
	}

	return tx.Commit(ctx)
}

// GetOrganization loads and normalizes one organization. Stored records are
// treated as untrusted: missing collections and budget fields are repaired
// before the aggregate is returned.
func (s *Store) GetOrganization(ctx context.Context, id string) (*organization.Organization, error) {
	var record []byte
	err := s.pool.QueryRow(ctx,
		`SELECT record FROM organizations WHERE id = $1`, id).Scan(&record)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get organization %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get organization %s: %w", id, err)
	}

	var org organization.Organization
	if err := json.Unmarshal(record, &org); err != nil {
		return nil, fmt.Errorf("unmarshal organization %s: %w", id, err)
	}
	org.Normalize()
	return &org, nil
}

// ListOrganizations returns all stored organizations, most recently accessed
// first.
func (s *Store) ListOrganizations(ctx context.Context) ([]organization.Organization, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT record FROM organizations ORDER BY last_accessed DESC`)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()

	var orgs []organization.Organization
	for rows.Next() {
		var record []byte
		if err := rows.Scan(&record); err != nil {
			return nil, fmt.Errorf("scan organization: %w", err)
		}
		var org organization.Organization
		if err := json.Unmarshal(record, &org); err != nil {
			return nil, fmt.Errorf("unmarshal organization: %w", err)
		}
		org.Normalize()
		orgs = append(orgs, org)
	}
	return orgs, rows.Err()
}

// DeleteOrganization removes the record. The current pointer clears itself
// via ON DELETE SET NULL when it pointed at the deletee.
func (s *Store) DeleteOrganization(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM organizations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete organization %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete organization %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// CurrentOrganizationID returns the current pointer, or "" when unset.
func (s *Store) CurrentOrganizationID(ctx context.Context) (string, error) {
	var id *string
	err := s.pool.QueryRow(ctx,
		`SELECT organization_id FROM current_organization WHERE singleton`).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("current organization: %w", err)
	}
	if id == nil {
		return "", nil
	}
	return *id, nil
}

// SetCurrentOrganization moves the pointer and touches last_accessed.
func (s *Store) SetCurrentOrganization(ctx context.Context, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin set current: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`UPDATE organizations SET last_accessed = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("touch organization %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set current organization %s: %w", id, domain.ErrNotFound)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO current_organization (singleton, organization_id, updated_at)
		 VALUES (TRUE, $1, NOW())
		 ON CONFLICT (singleton) DO UPDATE SET organization_id = EXCLUDED.organization_id, updated_at = NOW()`,
		id)
	if err != nil {
		return fmt.Errorf("set current organization %s: %w", id, err)
	}

	return tx.Commit(ctx)
}

// --- Boosts ---

// SaveBoost upserts a boost record.
func (s *Store) SaveBoost(ctx context.Context, b *boost.Boost) error {
	record, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshal boost: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO boosts (id, organization_id, record, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (id) DO UPDATE SET record = EXCLUDED.record, updated_at = NOW()`,
		b.ID, b.OrganizationID, record)
	if err != nil {
		return fmt.Errorf("save boost %s: %w", b.ID, err)
	}
	return nil
}

// GetBoost loads one boost by id.
func (s *Store) GetBoost(ctx context.Context, id string) (*boost.Boost, error) {
	var record []byte
	err := s.pool.QueryRow(ctx,
		`SELECT record FROM boosts WHERE id = $1`, id).Scan(&record)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get boost %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get boost %s: %w", id, err)
	}

	var b boost.Boost
	if err := json.Unmarshal(record, &b); err != nil {
		return nil, fmt.Errorf("unmarshal boost %s: %w", id, err)
	}
	return &b, nil
}

// ListBoosts returns all boosts for an organization, newest first.
func (s *Store) ListBoosts(ctx context.Context, organizationID string) ([]boost.Boost, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT record FROM boosts WHERE organization_id = $1 ORDER BY updated_at DESC`,
		organizationID)
	if err != nil {
		return nil, fmt.Errorf("list boosts: %w", err)
	}
	defer rows.Close()

	var boosts []boost.Boost
	for rows.Next() {
		var record []byte
		if err := rows.Scan(&record); err != nil {
			return nil, fmt.Errorf("scan boost: %w", err)
		}
		var b boost.Boost
		if err := json.Unmarshal(record, &b); err != nil {
			return nil, fmt.Errorf("unmarshal boost: %w", err)
		}
		boosts = append(boosts, b)
	}
	return boosts, rows.Err()
}
