package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"idvmgt/internal/secretvault/models"
	"idvmgt/pkg/platform/sentinel"
	txcontext "idvmgt/pkg/platform/tx"
)

// PostgresStore persists sealed secrets in idn_secret.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgres(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

type secretTypeRow struct {
	ID          string         `db:"id"`
	Name        string         `db:"name"`
	Description sql.NullString `db:"description"`
}

type secretRow struct {
	ID           string         `db:"id"`
	TenantID     int            `db:"tenant_id"`
	Name         string         `db:"secret_name"`
	TypeID       string         `db:"type_id"`
	Value        []byte         `db:"secret_value"`
	KeyVersion   string         `db:"key_version"`
	Description  sql.NullString `db:"description"`
	LastModified time.Time      `db:"last_modified"`
}

func (s *PostgresStore) GetType(ctx context.Context, name string) (*models.SecretType, error) {
	var row secretTypeRow
	err := s.execer(ctx).GetContext(ctx, &row,
		`SELECT id, name, description FROM idn_secret_type WHERE name = $1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find secret type: %w", err)
	}
	return &models.SecretType{ID: row.ID, Name: row.Name, Description: row.Description.String}, nil
}

func (s *PostgresStore) Get(ctx context.Context, tenantID int, typeID, name string) (*models.Secret, error) {
	var row secretRow
	err := s.execer(ctx).GetContext(ctx, &row, `
		SELECT id, tenant_id, secret_name, type_id, secret_value, key_version, description, last_modified
		FROM idn_secret
		WHERE tenant_id = $1 AND type_id = $2 AND secret_name = $3`,
		tenantID, typeID, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find secret: %w", err)
	}
	return &models.Secret{
		ID:           row.ID,
		TenantID:     row.TenantID,
		TypeID:       row.TypeID,
		Name:         row.Name,
		Ciphertext:   row.Value,
		KeyVersion:   row.KeyVersion,
		Description:  row.Description.String,
		LastModified: row.LastModified,
	}, nil
}

func (s *PostgresStore) Create(ctx context.Context, secret *models.Secret) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO idn_secret (id, tenant_id, secret_name, type_id, secret_value, key_version, description, last_modified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		secret.ID, secret.TenantID, secret.Name, secret.TypeID, secret.Ciphertext,
		secret.KeyVersion, nullString(secret.Description), secret.LastModified)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert secret: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, secret *models.Secret) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE idn_secret SET secret_value = $1, key_version = $2, last_modified = $3
		WHERE tenant_id = $4 AND type_id = $5 AND secret_name = $6`,
		secret.Ciphertext, secret.KeyVersion, secret.LastModified,
		secret.TenantID, secret.TypeID, secret.Name)
	if err != nil {
		return fmt.Errorf("update secret: %w", err)
	}
	return requireAffected(res)
}

func (s *PostgresStore) Delete(ctx context.Context, tenantID int, typeID, name string) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM idn_secret WHERE tenant_id = $1 AND type_id = $2 AND secret_name = $3`,
		tenantID, typeID, name)
	if err != nil {
		return fmt.Errorf("delete secret: %w", err)
	}
	return requireAffected(res)
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

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
