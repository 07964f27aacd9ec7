package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"idvmgt/internal/idvp/models"
	"idvmgt/pkg/platform/sentinel"
	txcontext "idvmgt/pkg/platform/tx"
)

// PostgresStore persists providers in idvp with child rows in idvp_config and
// idvp_claim_mapping.
type PostgresStore struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

type providerRow struct {
	ID          int64          `db:"id"`
	UUID        string         `db:"uuid"`
	Name        string         `db:"name"`
	Type        sql.NullString `db:"idvp_type"`
	Description sql.NullString `db:"description"`
	Enabled     string         `db:"is_enabled"`
}

type configRow struct {
	ProviderID int64          `db:"idvp_id"`
	TenantID   int            `db:"tenant_id"`
	Key        string         `db:"property_key"`
	Value      sql.NullString `db:"property_value"`
	Secret     string         `db:"is_secret"`
}

type mappingRow struct {
	ProviderID int64  `db:"idvp_id"`
	TenantID   int    `db:"tenant_id"`
	Claim      string `db:"claim"`
	LocalClaim string `db:"local_claim"`
}

const selectProvider = `SELECT id, uuid, name, idvp_type, description, is_enabled FROM idvp`

func (s *PostgresStore) Get(ctx context.Context, tenantID int, id string) (*models.Provider, error) {
	return s.getOne(ctx, selectProvider+` WHERE tenant_id = $1 AND uuid = $2`, tenantID, id)
}

func (s *PostgresStore) GetByName(ctx context.Context, tenantID int, name string) (*models.Provider, error) {
	return s.getOne(ctx, selectProvider+` WHERE tenant_id = $1 AND name = $2`, tenantID, name)
}

func (s *PostgresStore) getOne(ctx context.Context, query string, tenantID int, key string) (*models.Provider, error) {
	var row providerRow
	err := s.execer(ctx).GetContext(ctx, &row, query, tenantID, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find provider: %w", err)
	}
	providers, err := s.hydrate(ctx, tenantID, []providerRow{row})
	if err != nil {
		return nil, err
	}
	return providers[0], nil
}

func (s *PostgresStore) List(ctx context.Context, tenantID, limit, offset int, filter []models.Expression) ([]*models.Provider, error) {
	where, args, err := whereClause(tenantID, filter)
	if err != nil {
		return nil, err
	}
	n := len(args)
	query := selectProvider + ` WHERE ` + where +
		` ORDER BY uuid ASC LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)
	args = append(args, limit, offset)

	var rows []providerRow
	if err := s.execer(ctx).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	return s.hydrate(ctx, tenantID, rows)
}

func (s *PostgresStore) Count(ctx context.Context, tenantID int, filter []models.Expression) (int, error) {
	where, args, err := whereClause(tenantID, filter)
	if err != nil {
		return 0, err
	}
	var n int
	if err := s.execer(ctx).GetContext(ctx, &n, `SELECT COUNT(*) FROM idvp WHERE `+where, args...); err != nil {
		return 0, fmt.Errorf("count providers: %w", err)
	}
	return n, nil
}

// hydrate loads config and claim mapping rows for all providers in two queries.
func (s *PostgresStore) hydrate(ctx context.Context, tenantID int, rows []providerRow) ([]*models.Provider, error) {
	out := make([]*models.Provider, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	byRowID := make(map[int64]*models.Provider, len(rows))
	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		p := &models.Provider{
			ID:            r.ID,
			UUID:          r.UUID,
			Name:          r.Name,
			Type:          r.Type.String,
			Description:   r.Description.String,
			Enabled:       r.Enabled == "1",
			ClaimMappings: map[string]string{},
		}
		out = append(out, p)
		byRowID[r.ID] = p
		ids = append(ids, r.ID)
	}

	var configs []configRow
	err := s.execer(ctx).SelectContext(ctx, &configs, `
		SELECT idvp_id, tenant_id, property_key, property_value, is_secret
		FROM idvp_config
		WHERE tenant_id = $1 AND idvp_id = ANY($2)
		ORDER BY id`, tenantID, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("list provider configs: %w", err)
	}
	for _, c := range configs {
		p := byRowID[c.ProviderID]
		p.ConfigProperties = append(p.ConfigProperties, models.ConfigProperty{
			Name:         c.Key,
			Value:        c.Value.String,
			Confidential: c.Secret == "1",
		})
	}

	var mappings []mappingRow
	err = s.execer(ctx).SelectContext(ctx, &mappings, `
		SELECT idvp_id, tenant_id, claim, local_claim
		FROM idvp_claim_mapping
		WHERE tenant_id = $1 AND idvp_id = ANY($2)`, tenantID, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("list provider claim mappings: %w", err)
	}
	for _, m := range mappings {
		byRowID[m.ProviderID].ClaimMappings[m.LocalClaim] = m.Claim
	}
	return out, nil
}

func (s *PostgresStore) Exists(ctx context.Context, tenantID int, id string) (bool, error) {
	var ok bool
	err := s.execer(ctx).GetContext(ctx, &ok,
		`SELECT EXISTS (SELECT 1 FROM idvp WHERE tenant_id = $1 AND uuid = $2)`, tenantID, id)
	if err != nil {
		return false, fmt.Errorf("check provider: %w", err)
	}
	return ok, nil
}

func (s *PostgresStore) ExistsByName(ctx context.Context, tenantID int, name string) (bool, error) {
	var ok bool
	err := s.execer(ctx).GetContext(ctx, &ok,
		`SELECT EXISTS (SELECT 1 FROM idvp WHERE tenant_id = $1 AND name = $2)`, tenantID, name)
	if err != nil {
		return false, fmt.Errorf("check provider name: %w", err)
	}
	return ok, nil
}

func (s *PostgresStore) Create(ctx context.Context, tenantID int, provider *models.Provider) error {
	return txcontext.RunInTx(ctx, s.db, func(ctx context.Context) error {
		var rowID int64
		err := s.execer(ctx).GetContext(ctx, &rowID, `
			INSERT INTO idvp (uuid, tenant_id, name, idvp_type, description, is_enabled)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			provider.UUID, tenantID, provider.Name, provider.Type,
			provider.Description, models.BoolFlag(provider.Enabled))
		if err != nil {
			if isUniqueViolation(err) {
				return sentinel.ErrConflict
			}
			return fmt.Errorf("insert provider: %w", err)
		}
		return s.insertChildren(ctx, tenantID, rowID, provider)
	})
}

func (s *PostgresStore) Update(ctx context.Context, tenantID int, old, updated *models.Provider) error {
	return txcontext.RunInTx(ctx, s.db, func(ctx context.Context) error {
		var rowID int64
		err := s.execer(ctx).GetContext(ctx, &rowID, `
			UPDATE idvp SET name = $1, description = $2, is_enabled = $3
			WHERE tenant_id = $4 AND uuid = $5
			RETURNING id`,
			updated.Name, updated.Description, models.BoolFlag(updated.Enabled), tenantID, old.UUID)
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrNotFound
		}
		if err != nil {
			if isUniqueViolation(err) {
				return sentinel.ErrConflict
			}
			return fmt.Errorf("update provider: %w", err)
		}

		if _, err := s.execer(ctx).ExecContext(ctx,
			`DELETE FROM idvp_config WHERE tenant_id = $1 AND idvp_id = $2`, tenantID, rowID); err != nil {
			return fmt.Errorf("delete provider configs: %w", err)
		}
		if _, err := s.execer(ctx).ExecContext(ctx,
			`DELETE FROM idvp_claim_mapping WHERE tenant_id = $1 AND idvp_id = $2`, tenantID, rowID); err != nil {
			return fmt.Errorf("delete provider claim mappings: %w", err)
		}
		return s.insertChildren(ctx, tenantID, rowID, updated)
	})
}

func (s *PostgresStore) insertChildren(ctx context.Context, tenantID int, rowID int64, provider *models.Provider) error {
	if len(provider.ConfigProperties) > 0 {
		rows := make([]configRow, 0, len(provider.ConfigProperties))
		for _, prop := range provider.ConfigProperties {
			rows = append(rows, configRow{
				ProviderID: rowID,
				TenantID:   tenantID,
				Key:        prop.Name,
				Value:      sql.NullString{String: prop.Value, Valid: true},
				Secret:     models.BoolFlag(prop.Confidential),
			})
		}
		_, err := sqlx.NamedExecContext(ctx, s.execer(ctx), `
			INSERT INTO idvp_config (idvp_id, tenant_id, property_key, property_value, is_secret)
			VALUES (:idvp_id, :tenant_id, :property_key, :property_value, :is_secret)`, rows)
		if err != nil {
			return fmt.Errorf("insert provider configs: %w", err)
		}
	}
	if len(provider.ClaimMappings) > 0 {
		rows := make([]mappingRow, 0, len(provider.ClaimMappings))
		for local, claim := range provider.ClaimMappings {
			rows = append(rows, mappingRow{ProviderID: rowID, TenantID: tenantID, Claim: claim, LocalClaim: local})
		}
		_, err := sqlx.NamedExecContext(ctx, s.execer(ctx), `
			INSERT INTO idvp_claim_mapping (idvp_id, tenant_id, claim, local_claim)
			VALUES (:idvp_id, :tenant_id, :claim, :local_claim)`, rows)
		if err != nil {
			return fmt.Errorf("insert provider claim mappings: %w", err)
		}
	}
	return nil
}

// Delete removes the provider. Child rows go with it through ON DELETE CASCADE.
func (s *PostgresStore) Delete(ctx context.Context, tenantID int, id string) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM idvp WHERE tenant_id = $1 AND uuid = $2`, tenantID, id)
	if err != nil {
		return fmt.Errorf("delete provider: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
