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

	"idvmgt/internal/idv/models"
	"idvmgt/pkg/platform/sentinel"
)

type ClaimStoreSuite struct {
	suite.Suite
	ctx   context.Context
	mock  sqlmock.Sqlmock
	store *PostgresStore
}

func TestClaimStoreSuite(t *testing.T) {
	suite.Run(t, new(ClaimStoreSuite))
}

func (s *ClaimStoreSuite) SetupTest() {
	db, mock, err := sqlmock.New()
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = db.Close() })
	s.ctx = context.Background()
	s.mock = mock
	s.store = New(sqlx.NewDb(db, "postgres"))
}

func (s *ClaimStoreSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
}

var claimColumns = []string{"id", "uuid", "user_id", "claim_uri", "idvp_id", "tenant_id", "is_verified", "metadata"}

func sampleClaims() []*models.Claim {
	return []*models.Claim{
		{UUID: "c1", UserID: "alice", ProviderID: "p1", ClaimURI: "http://wso2.org/claims/givenname",
			Metadata: map[string]any{"source": "onfido"}},
		{UUID: "c2", UserID: "alice", ProviderID: "p1", ClaimURI: "http://wso2.org/claims/lastname"},
	}
}

func (s *ClaimStoreSuite) TestAddInsertsBatchInTransaction() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO idv_claim")).
		WillReturnResult(sqlmock.NewResult(0, 2))
	s.mock.ExpectCommit()

	s.Require().NoError(s.store.Add(s.ctx, 1, sampleClaims()))
}

func (s *ClaimStoreSuite) TestAddDuplicateRollsBack() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO idv_claim")).
		WillReturnError(&pq.Error{Code: "23505"})
	s.mock.ExpectRollback()

	s.ErrorIs(s.store.Add(s.ctx, 1, sampleClaims()), sentinel.ErrConflict)
}

func (s *ClaimStoreSuite) TestReplaceDeletesThenInserts() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta("DELETE FROM idv_claim WHERE user_id = $1 AND tenant_id = $2")).
		WithArgs("alice", 1).
		WillReturnResult(sqlmock.NewResult(0, 5))
	s.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO idv_claim")).
		WillReturnResult(sqlmock.NewResult(0, 2))
	s.mock.ExpectCommit()

	s.Require().NoError(s.store.Replace(s.ctx, 1, "alice", sampleClaims()))
}

func (s *ClaimStoreSuite) TestReplaceFailureKeepsExistingClaims() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta("DELETE FROM idv_claim")).
		WillReturnResult(sqlmock.NewResult(0, 5))
	s.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO idv_claim")).
		WillReturnError(errors.New("disk full"))
	s.mock.ExpectRollback()

	s.Error(s.store.Replace(s.ctx, 1, "alice", sampleClaims()))
}

func (s *ClaimStoreSuite) TestGetDecodesMetadata() {
	s.mock.ExpectQuery(regexp.QuoteMeta("FROM idv_claim WHERE user_id = $1 AND uuid = $2 AND tenant_id = $3")).
		WithArgs("alice", "c1", 1).
		WillReturnRows(sqlmock.NewRows(claimColumns).
			AddRow(3, "c1", "alice", "http://wso2.org/claims/givenname", "p1", 1, "1", []byte(`{"source":"onfido","score":0.9}`)))

	c, err := s.store.Get(s.ctx, 1, "alice", "c1")
	s.Require().NoError(err)
	s.True(c.IsVerified)
	s.Equal(int64(3), c.ID)
	s.Equal(map[string]any{"source": "onfido", "score": 0.9}, c.Metadata)
}

func (s *ClaimStoreSuite) TestGetMissing() {
	s.mock.ExpectQuery(regexp.QuoteMeta("FROM idv_claim")).
		WillReturnRows(sqlmock.NewRows(claimColumns))

	_, err := s.store.Get(s.ctx, 1, "alice", "nope")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *ClaimStoreSuite) TestGetByURIProviderIsOptional() {
	s.mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 AND claim_uri = $2 AND tenant_id = $3 ORDER BY id LIMIT 1")).
		WithArgs("alice", "http://wso2.org/claims/givenname", 1).
		WillReturnRows(sqlmock.NewRows(claimColumns).
			AddRow(3, "c1", "alice", "http://wso2.org/claims/givenname", "p1", 1, "0", nil))

	c, err := s.store.GetByURI(s.ctx, 1, "alice", "http://wso2.org/claims/givenname", "")
	s.Require().NoError(err)
	s.Nil(c.Metadata)
}

func (s *ClaimStoreSuite) TestListByProvider() {
	s.mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 AND tenant_id = $2 AND idvp_id = $3 ORDER BY id")).
		WithArgs("alice", 1, "p1").
		WillReturnRows(sqlmock.NewRows(claimColumns).
			AddRow(3, "c1", "alice", "u1", "p1", 1, "0", nil).
			AddRow(4, "c2", "alice", "u2", "p1", 1, "1", nil))

	claims, err := s.store.List(s.ctx, 1, "alice", "p1")
	s.Require().NoError(err)
	s.Len(claims, 2)
}

func (s *ClaimStoreSuite) TestListByMetadataEscapesPattern() {
	s.mock.ExpectQuery(regexp.QuoteMeta("convert_from(metadata, 'UTF8') LIKE $2")).
		WithArgs(1, `%"check\_id":"50\%"%`, "p1").
		WillReturnRows(sqlmock.NewRows(claimColumns))

	claims, err := s.store.ListByMetadata(s.ctx, 1, "check_id", "50%", "p1")
	s.Require().NoError(err)
	s.Empty(claims)
}

func (s *ClaimStoreSuite) TestUpdateMissing() {
	s.mock.ExpectExec(regexp.QuoteMeta("UPDATE idv_claim SET is_verified = $1, metadata = $2")).
		WithArgs("1", []byte(`{"status":"clear"}`), "alice", "c9", 1).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.store.Update(s.ctx, 1, &models.Claim{
		UUID: "c9", UserID: "alice", IsVerified: true, Metadata: map[string]any{"status": "clear"},
	})
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *ClaimStoreSuite) TestDeleteByURIBuildsOptionalFilters() {
	s.mock.ExpectExec(regexp.QuoteMeta(
		"DELETE FROM idv_claim WHERE user_id = $1 AND tenant_id = $2 AND claim_uri = $3")).
		WithArgs("alice", 1, "http://wso2.org/claims/givenname").
		WillReturnResult(sqlmock.NewResult(0, 1))

	s.Require().NoError(s.store.DeleteByURI(s.ctx, 1, "alice", "", "http://wso2.org/claims/givenname"))
}

func (s *ClaimStoreSuite) TestExists() {
	s.mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("alice", "p1", "u1", 1).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := s.store.Exists(s.ctx, 1, models.ClaimKey{UserID: "alice", ProviderID: "p1", ClaimURI: "u1"})
	s.Require().NoError(err)
	s.True(ok)
}
