package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"idvmgt/internal/idv/models"
	"idvmgt/pkg/platform/sentinel"
	txcontext "idvmgt/pkg/platform/tx"
)

// PostgresStore persists claims in idv_claim. Metadata is stored as UTF-8 JSON
// in a BYTEA column.
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

type claimRow struct {
	ID         int64          `db:"id"`
	UUID       string         `db:"uuid"`
	UserID     string         `db:"user_id"`
	ClaimURI   sql.NullString `db:"claim_uri"`
	ProviderID string         `db:"idvp_id"`
	TenantID   int            `db:"tenant_id"`
	IsVerified string         `db:"is_verified"`
	Metadata   []byte         `db:"metadata"`
}

func (r claimRow) toModel() (*models.Claim, error) {
	c := &models.Claim{
		ID:         r.ID,
		UUID:       r.UUID,
		UserID:     r.UserID,
		ClaimURI:   r.ClaimURI.String,
		ProviderID: r.ProviderID,
		IsVerified: r.IsVerified == "1",
	}
	if len(r.Metadata) > 0 {
		if err := json.Unmarshal(r.Metadata, &c.Metadata); err != nil {
			return nil, fmt.Errorf("decode claim %s metadata: %w", r.UUID, err)
		}
	}
	return c, nil
}

func toRow(tenantID int, c *models.Claim) (claimRow, error) {
	row := claimRow{
		UUID:       c.UUID,
		UserID:     c.UserID,
		ClaimURI:   sql.NullString{String: c.ClaimURI, Valid: c.ClaimURI != ""},
		ProviderID: c.ProviderID,
		TenantID:   tenantID,
		IsVerified: flag(c.IsVerified),
	}
	if c.Metadata != nil {
		raw, err := json.Marshal(c.Metadata)
		if err != nil {
			return claimRow{}, fmt.Errorf("encode claim %s metadata: %w", c.UUID, err)
		}
		row.Metadata = raw
	}
	return row, nil
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

const selectClaim = `SELECT id, uuid, user_id, claim_uri, idvp_id, tenant_id, is_verified, metadata FROM idv_claim`

func (s *PostgresStore) Add(ctx context.Context, tenantID int, claims []*models.Claim) error {
	if len(claims) == 0 {
		return nil
	}
	return txcontext.RunInTx(ctx, s.db, func(ctx context.Context) error {
		return s.insert(ctx, tenantID, claims)
	})
}

func (s *PostgresStore) insert(ctx context.Context, tenantID int, claims []*models.Claim) error {
	if len(claims) == 0 {
		return nil
	}
	rows := make([]claimRow, 0, len(claims))
	for _, c := range claims {
		row, err := toRow(tenantID, c)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	_, err := sqlx.NamedExecContext(ctx, s.execer(ctx), `
		INSERT INTO idv_claim (uuid, user_id, claim_uri, idvp_id, tenant_id, is_verified, metadata)
		VALUES (:uuid, :user_id, :claim_uri, :idvp_id, :tenant_id, :is_verified, :metadata)`, rows)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert claims: %w", err)
	}
	return nil
}

// Replace deletes all of the user's claims and inserts claims in one transaction.
func (s *PostgresStore) Replace(ctx context.Context, tenantID int, userID string, claims []*models.Claim) error {
	return txcontext.RunInTx(ctx, s.db, func(ctx context.Context) error {
		if _, err := s.execer(ctx).ExecContext(ctx,
			`DELETE FROM idv_claim WHERE user_id = $1 AND tenant_id = $2`, userID, tenantID); err != nil {
			return fmt.Errorf("delete user claims: %w", err)
		}
		return s.insert(ctx, tenantID, claims)
	})
}

func (s *PostgresStore) Update(ctx context.Context, tenantID int, claim *models.Claim) error {
	row, err := toRow(tenantID, claim)
	if err != nil {
		return err
	}
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE idv_claim SET is_verified = $1, metadata = $2
		WHERE user_id = $3 AND uuid = $4 AND tenant_id = $5`,
		row.IsVerified, row.Metadata, claim.UserID, claim.UUID, tenantID)
	if err != nil {
		return fmt.Errorf("update claim: %w", err)
	}
	return requireAffected(res)
}

func (s *PostgresStore) Get(ctx context.Context, tenantID int, userID, claimID string) (*models.Claim, error) {
	return s.getOne(ctx, selectClaim+` WHERE user_id = $1 AND uuid = $2 AND tenant_id = $3`,
		userID, claimID, tenantID)
}

func (s *PostgresStore) GetByURI(ctx context.Context, tenantID int, userID, claimURI, providerID string) (*models.Claim, error) {
	query := selectClaim + ` WHERE user_id = $1 AND claim_uri = $2 AND tenant_id = $3`
	args := []any{userID, claimURI, tenantID}
	if providerID != "" {
		query += ` AND idvp_id = $4`
		args = append(args, providerID)
	}
	return s.getOne(ctx, query+` ORDER BY id LIMIT 1`, args...)
}

func (s *PostgresStore) getOne(ctx context.Context, query string, args ...any) (*models.Claim, error) {
	var row claimRow
	err := s.execer(ctx).GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find claim: %w", err)
	}
	return row.toModel()
}

func (s *PostgresStore) List(ctx context.Context, tenantID int, userID, providerID string) ([]*models.Claim, error) {
	query := selectClaim + ` WHERE user_id = $1 AND tenant_id = $2`
	args := []any{userID, tenantID}
	if providerID != "" {
		query += ` AND idvp_id = $3`
		args = append(args, providerID)
	}
	return s.selectMany(ctx, query+` ORDER BY id`, args...)
}

// ListByMetadata matches a string valued metadata entry in the stored JSON text.
func (s *PostgresStore) ListByMetadata(ctx context.Context, tenantID int, key, value, providerID string) ([]*models.Claim, error) {
	pattern, err := metadataPattern(key, value)
	if err != nil {
		return nil, err
	}
	query := selectClaim + ` WHERE tenant_id = $1 AND convert_from(metadata, 'UTF8') LIKE $2 ESCAPE '\'`
	args := []any{tenantID, pattern}
	if providerID != "" {
		query += ` AND idvp_id = $3`
		args = append(args, providerID)
	}
	return s.selectMany(ctx, query+` ORDER BY id`, args...)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func metadataPattern(key, value string) (string, error) {
	raw, err := json.Marshal(map[string]string{key: value})
	if err != nil {
		return "", fmt.Errorf("encode metadata filter: %w", err)
	}
	// strip the surrounding braces to match the entry anywhere in the object
	entry := string(raw[1 : len(raw)-1])
	return "%" + likeEscaper.Replace(entry) + "%", nil
}

func (s *PostgresStore) selectMany(ctx context.Context, query string, args ...any) ([]*models.Claim, error) {
	var rows []claimRow
	if err := s.execer(ctx).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	out := make([]*models.Claim, 0, len(rows))
	for _, r := range rows {
		c, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, tenantID int, userID, claimID string) error {
	_, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM idv_claim WHERE user_id = $1 AND uuid = $2 AND tenant_id = $3`, userID, claimID, tenantID)
	if err != nil {
		return fmt.Errorf("delete claim: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteByUser(ctx context.Context, tenantID int, userID string) error {
	_, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM idv_claim WHERE user_id = $1 AND tenant_id = $2`, userID, tenantID)
	if err != nil {
		return fmt.Errorf("delete user claims: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteByURI(ctx context.Context, tenantID int, userID, providerID, claimURI string) error {
	query := `DELETE FROM idv_claim WHERE user_id = $1 AND tenant_id = $2`
	args := []any{userID, tenantID}
	if providerID != "" {
		args = append(args, providerID)
		query += ` AND idvp_id = $` + strconv.Itoa(len(args))
	}
	if claimURI != "" {
		args = append(args, claimURI)
		query += ` AND claim_uri = $` + strconv.Itoa(len(args))
	}
	if _, err := s.execer(ctx).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete claims by uri: %w", err)
	}
	return nil
}

func (s *PostgresStore) Exists(ctx context.Context, tenantID int, key models.ClaimKey) (bool, error) {
	var ok bool
	err := s.execer(ctx).GetContext(ctx, &ok, `
		SELECT EXISTS (SELECT 1 FROM idv_claim
		WHERE user_id = $1 AND idvp_id = $2 AND claim_uri = $3 AND tenant_id = $4)`,
		key.UserID, key.ProviderID, key.ClaimURI, tenantID)
	if err != nil {
		return false, fmt.Errorf("check claim: %w", err)
	}
	return ok, nil
}

func (s *PostgresStore) ExistsByID(ctx context.Context, tenantID int, claimID string) (bool, error) {
	var ok bool
	err := s.execer(ctx).GetContext(ctx, &ok,
		`SELECT EXISTS (SELECT 1 FROM idv_claim WHERE uuid = $1 AND tenant_id = $2)`, claimID, tenantID)
	if err != nil {
		return false, fmt.Errorf("check claim id: %w", err)
	}
	return ok, nil
}

func requireAffected(res sql.Result) error {
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
