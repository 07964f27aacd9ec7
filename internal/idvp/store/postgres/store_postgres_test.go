package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/suite"

	"idvmgt/internal/idvp/models"
	"idvmgt/pkg/platform/sentinel"
)

type PostgresStoreSuite struct {
	suite.Suite
	ctx   context.Context
	mock  sqlmock.Sqlmock
	store *PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupTest() {
	db, mock, err := sqlmock.New()
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = db.Close() })
	s.ctx = context.Background()
	s.mock = mock
	s.store = New(sqlx.NewDb(db, "postgres"))
}

func (s *PostgresStoreSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
}

var providerColumns = []string{"id", "uuid", "name", "idvp_type", "description", "is_enabled"}

func (s *PostgresStoreSuite) expectChildren(rowID int64) {
	s.mock.ExpectQuery(regexp.QuoteMeta("FROM idvp_config")).
		WithArgs(1, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"idvp_id", "tenant_id", "property_key", "property_value", "is_secret"}).
			AddRow(rowID, 1, "token", "c508ca6a:uuid-1:token", "1").
			AddRow(rowID, 1, "apiUrl", "https://api.example.com", "0"))
	s.mock.ExpectQuery(regexp.QuoteMeta("FROM idvp_claim_mapping")).
		WithArgs(1, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"idvp_id", "tenant_id", "claim", "local_claim"}).
			AddRow(rowID, 1, "first_name", "http://wso2.org/claims/givenname"))
}

func (s *PostgresStoreSuite) TestGetHydratesChildren() {
	s.mock.ExpectQuery(regexp.QuoteMeta("FROM idvp WHERE tenant_id = $1 AND uuid = $2")).
		WithArgs(1, "uuid-1").
		WillReturnRows(sqlmock.NewRows(providerColumns).AddRow(7, "uuid-1", "Onfido", "ONFIDO", nil, "1"))
	s.expectChildren(7)

	p, err := s.store.Get(s.ctx, 1, "uuid-1")
	s.Require().NoError(err)
	s.Equal(int64(7), p.ID)
	s.True(p.Enabled)
	s.Equal("", p.Description)
	s.Equal([]models.ConfigProperty{
		{Name: "token", Value: "c508ca6a:uuid-1:token", Confidential: true},
		{Name: "apiUrl", Value: "https://api.example.com"},
	}, p.ConfigProperties)
	s.Equal(map[string]string{"http://wso2.org/claims/givenname": "first_name"}, p.ClaimMappings)
}

func (s *PostgresStoreSuite) TestGetMissing() {
	s.mock.ExpectQuery(regexp.QuoteMeta("FROM idvp WHERE")).
		WillReturnRows(sqlmock.NewRows(providerColumns))

	_, err := s.store.GetByName(s.ctx, 1, "nope")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListAppliesFilterAndPaging() {
	filter := []models.Expression{
		{Attribute: models.FilterName, Operator: models.OpStartsWith, Value: "On_"},
		{Attribute: models.FilterIsEnabled, Operator: models.OpEquals, Value: "1"},
	}
	s.mock.ExpectQuery(regexp.QuoteMeta(
		"WHERE tenant_id = $1 AND name LIKE $2 AND is_enabled = $3 ORDER BY uuid ASC LIMIT $4 OFFSET $5")).
		WithArgs(1, `On\_%`, "1", 15, 0).
		WillReturnRows(sqlmock.NewRows(providerColumns).AddRow(7, "uuid-1", "On_fido", "ONFIDO", "kyc", "1"))
	s.expectChildren(7)

	got, err := s.store.List(s.ctx, 1, 15, 0, filter)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal("On_fido", got[0].Name)
}

func (s *PostgresStoreSuite) TestListEmptySkipsChildQueries() {
	s.mock.ExpectQuery(regexp.QuoteMeta("FROM idvp WHERE")).
		WillReturnRows(sqlmock.NewRows(providerColumns))

	got, err := s.store.List(s.ctx, 1, 15, 0, nil)
	s.Require().NoError(err)
	s.Empty(got)
}

func (s *PostgresStoreSuite) TestCount() {
	s.mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM idvp WHERE tenant_id = $1 AND description LIKE $2")).
		WithArgs(1, "%100\\%%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := s.store.Count(s.ctx, 1, []models.Expression{
		{Attribute: models.FilterDescription, Operator: models.OpContains, Value: "100%"},
	})
	s.Require().NoError(err)
	s.Equal(3, n)
}

func (s *PostgresStoreSuite) TestCreateInsertsChildrenInTx() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO idvp (")).
		WithArgs("uuid-1", 1, "Onfido", "ONFIDO", "", "1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	s.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO idvp_config")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO idvp_claim_mapping")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	err := s.store.Create(s.ctx, 1, &models.Provider{
		UUID:             "uuid-1",
		Name:             "Onfido",
		Type:             "ONFIDO",
		Enabled:          true,
		ConfigProperties: []models.ConfigProperty{{Name: "apiUrl", Value: "https://api.example.com"}},
		ClaimMappings:    map[string]string{"http://wso2.org/claims/givenname": "first_name"},
	})
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) TestCreateNameConflictRollsBack() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO idvp (")).
		WillReturnError(&pq.Error{Code: "23505"})
	s.mock.ExpectRollback()

	err := s.store.Create(s.ctx, 1, &models.Provider{UUID: "uuid-2", Name: "Onfido"})
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestUpdateReplacesChildren() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(regexp.QuoteMeta("UPDATE idvp SET")).
		WithArgs("Onfido v2", "desc", "0", 1, "uuid-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	s.mock.ExpectExec(regexp.QuoteMeta("DELETE FROM idvp_config")).
		WithArgs(1, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	s.mock.ExpectExec(regexp.QuoteMeta("DELETE FROM idvp_claim_mapping")).
		WithArgs(1, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO idvp_config")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	old := &models.Provider{UUID: "uuid-1", Name: "Onfido"}
	updated := &models.Provider{
		UUID:             "uuid-1",
		Name:             "Onfido v2",
		Description:      "desc",
		ConfigProperties: []models.ConfigProperty{{Name: "apiUrl", Value: "https://v2.example.com"}},
	}
	s.Require().NoError(s.store.Update(s.ctx, 1, old, updated))
}

func (s *PostgresStoreSuite) TestUpdateFailureRollsBack() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(regexp.QuoteMeta("UPDATE idvp SET")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	s.mock.ExpectExec(regexp.QuoteMeta("DELETE FROM idvp_config")).
		WillReturnError(errors.New("connection reset"))
	s.mock.ExpectRollback()

	err := s.store.Update(s.ctx, 1, &models.Provider{UUID: "uuid-1"}, &models.Provider{Name: "x"})
	s.ErrorContains(err, "delete provider configs")
}

func (s *PostgresStoreSuite) TestDelete() {
	s.mock.ExpectExec(regexp.QuoteMeta("DELETE FROM idvp WHERE tenant_id = $1 AND uuid = $2")).
		WithArgs(1, "uuid-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.Require().NoError(s.store.Delete(s.ctx, 1, "uuid-1"))

	s.mock.ExpectExec(regexp.QuoteMeta("DELETE FROM idvp WHERE")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	s.ErrorIs(s.store.Delete(s.ctx, 1, "uuid-1"), sentinel.ErrNotFound)
}
