package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"idvmgt/internal/idv/metrics"
	"idvmgt/internal/idv/models"
	"idvmgt/internal/idv/store"
	"idvmgt/internal/idv/store/memory"
	"idvmgt/internal/idv/verifier"
	"idvmgt/internal/idv/verifier/echo"
	idvpmodels "idvmgt/internal/idvp/models"
	"idvmgt/internal/platform/cache"
	"idvmgt/internal/platform/config"
	"idvmgt/internal/platform/registry"
	"idvmgt/internal/userstore"
	dErrors "idvmgt/pkg/domain-errors"
	"idvmgt/pkg/platform/audit"
	"idvmgt/pkg/platform/audit/publisher"
	auditmemory "idvmgt/pkg/platform/audit/store/memory"
)

const (
	tenantID   = 1
	userID     = "u-1"
	providerID = "idvp-1"
	givenName  = "http://wso2.org/claims/givenname"
	lastName   = "http://wso2.org/claims/lastname"
)

type fakeProviders map[string]*idvpmodels.Provider

func (f fakeProviders) Exists(_ context.Context, _ int, id string) (bool, error) {
	_, ok := f[id]
	return ok, nil
}

func (f fakeProviders) Get(_ context.Context, _ int, id string) (*idvpmodels.Provider, error) {
	p, ok := f[id]
	if !ok {
		return nil, idvpmodels.ErrNotFound(id)
	}
	return p.Clone(), nil
}

type ClaimManagerSuite struct {
	suite.Suite
	ctx        context.Context
	claims     *memory.InMemoryStore
	users      *userstore.InMemory
	providers  fakeProviders
	verifiers  *verifier.Registry
	auditStore *auditmemory.InMemoryStore
	metrics    *metrics.Metrics
	manager    *Manager
}

func TestClaimManagerSuite(t *testing.T) {
	suite.Run(t, new(ClaimManagerSuite))
}

func (s *ClaimManagerSuite) SetupTest() {
	s.ctx = context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	stores := registry.New[store.Store]("claim store")
	s.claims = memory.New()
	s.Require().NoError(stores.Register(config.BackendMemory, s.claims))

	s.users = userstore.NewInMemory()
	s.Require().NoError(s.users.Upsert(s.ctx, tenantID, userID, map[string]string{
		givenName: "Ada",
	}))
	s.providers = fakeProviders{
		providerID: {
			UUID: providerID,
			Name: "Echo",
			Type: echo.Type,
			ClaimMappings: map[string]string{
				givenName: "first_name",
				lastName:  "last_name",
			},
		},
		"idvp-2": {UUID: "idvp-2", Name: "Other", Type: "UNKNOWN"},
	}

	claimCache, err := cache.New[*models.Claim]("idv", config.Cache{MaxEntries: 100}, nil)
	s.Require().NoError(err)
	s.T().Cleanup(claimCache.Close)

	s.auditStore = auditmemory.NewInMemoryStore()
	s.metrics = metrics.NewWithRegisterer(prometheus.NewRegistry())
	s.verifiers = verifier.NewRegistry()
	s.manager = New(stores, config.BackendMemory, s.providers, s.users, s.verifiers,
		WithLogger(logger),
		WithCache(claimCache),
		WithMetrics(s.metrics),
		WithAuditPublisher(publisher.NewPublisher(s.auditStore)),
	)
	s.Require().NoError(s.verifiers.Register(echo.Type,
		echo.Factory(verifier.NewBase(s.providers, s.manager, s.users))))
}

func claim(uri string) *models.Claim {
	return &models.Claim{
		ClaimURI:   uri,
		ProviderID: providerID,
		IsVerified: true,
		Metadata:   map[string]any{"source": "evidence"},
	}
}

func (s *ClaimManagerSuite) requireReason(err error, reason string, code dErrors.Code) {
	s.Require().Error(err)
	de, ok := dErrors.As(err)
	s.Require().True(ok, "expected domain error, got %v", err)
	s.Equal(reason, de.Reason)
	s.Equal(code, de.Code)
}

func (s *ClaimManagerSuite) stored() []*models.Claim {
	claims, err := s.claims.List(s.ctx, tenantID, userID, "")
	s.Require().NoError(err)
	return claims
}

func (s *ClaimManagerSuite) TestAddClaims() {
	s.Run("assigns ids and stores the batch", func() {
		added, err := s.manager.AddClaims(s.ctx, tenantID, userID, []*models.Claim{claim(givenName), claim(lastName)})
		s.Require().NoError(err)
		s.Require().Len(added, 2)
		s.NotEmpty(added[0].UUID)
		s.NotEqual(added[0].UUID, added[1].UUID)
		s.Equal(userID, added[0].UserID)
		s.Len(s.stored(), 2)
	})

	s.Run("existing triple conflicts", func() {
		_, err := s.manager.AddClaims(s.ctx, tenantID, userID, []*models.Claim{claim(givenName)})
		s.requireReason(err, models.ReasonClaimExists, dErrors.CodeConflict)
	})

	s.Run("records audit events", func() {
		events, err := s.auditStore.ListByTenant(s.ctx, tenantID)
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(string(audit.EventClaimsAdded), events[0].Action)
		s.Equal(userID, events[0].UserID)
	})
}

func (s *ClaimManagerSuite) TestAddClaimsRejectsWholeBatch() {
	cases := []struct {
		name   string
		batch  []*models.Claim
		reason string
		code   dErrors.Code
	}{
		{
			name:   "blank claim uri",
			batch:  []*models.Claim{claim(givenName), claim("  ")},
			reason: models.ReasonInvalidClaimURI,
			code:   dErrors.CodeBadRequest,
		},
		{
			name:   "nil entry",
			batch:  []*models.Claim{claim(givenName), nil},
			reason: models.ReasonInvalidClaimURI,
			code:   dErrors.CodeBadRequest,
		},
		{
			name:   "unknown provider",
			batch:  []*models.Claim{claim(givenName), {ClaimURI: lastName, ProviderID: "missing", Metadata: map[string]any{}}},
			reason: models.ReasonInvalidProvider,
			code:   dErrors.CodeBadRequest,
		},
		{
			name:   "duplicate inside batch",
			batch:  []*models.Claim{claim(givenName), claim(givenName)},
			reason: models.ReasonClaimExists,
			code:   dErrors.CodeConflict,
		},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.manager.AddClaims(s.ctx, tenantID, userID, tc.batch)
			s.requireReason(err, tc.reason, tc.code)
			s.Empty(s.stored())
		})
	}
}

func (s *ClaimManagerSuite) TestUnknownUser() {
	_, err := s.manager.AddClaims(s.ctx, tenantID, "ghost", []*models.Claim{claim(givenName)})
	s.requireReason(err, models.ReasonInvalidUser, dErrors.CodeNotFound)

	_, err = s.manager.GetClaims(s.ctx, tenantID, "ghost", "")
	s.requireReason(err, models.ReasonInvalidUser, dErrors.CodeNotFound)

	err = s.manager.DeleteClaims(s.ctx, tenantID, "ghost")
	s.requireReason(err, models.ReasonInvalidUser, dErrors.CodeNotFound)
}

func (s *ClaimManagerSuite) TestUpdateClaim() {
	added, err := s.manager.AddClaims(s.ctx, tenantID, userID, []*models.Claim{claim(givenName)})
	s.Require().NoError(err)
	original := added[0]

	s.Run("changes status and metadata only", func() {
		// Prime the cache so the update has to evict it.
		_, err := s.manager.GetClaim(s.ctx, tenantID, userID, original.UUID)
		s.Require().NoError(err)

		change := original.Clone()
		change.IsVerified = false
		change.ClaimURI = "http://wso2.org/claims/other"
		change.Metadata = map[string]any{"status": "rejected"}
		updated, err := s.manager.UpdateClaim(s.ctx, tenantID, userID, change)
		s.Require().NoError(err)
		s.False(updated.IsVerified)
		s.Equal(givenName, updated.ClaimURI)

		got, err := s.manager.GetClaim(s.ctx, tenantID, userID, original.UUID)
		s.Require().NoError(err)
		s.False(got.IsVerified)
		s.Equal("rejected", got.Metadata["status"])
	})

	s.Run("unknown claim", func() {
		_, err := s.manager.UpdateClaim(s.ctx, tenantID, userID, &models.Claim{UUID: "nope", Metadata: map[string]any{}})
		s.requireReason(err, models.ReasonInvalidClaimID, dErrors.CodeNotFound)
	})

	s.Run("nil metadata", func() {
		change := original.Clone()
		change.Metadata = nil
		_, err := s.manager.UpdateClaim(s.ctx, tenantID, userID, change)
		s.requireReason(err, models.ReasonEmptyMetadata, dErrors.CodeBadRequest)
	})
}

func (s *ClaimManagerSuite) TestUpdateClaimsReplacesEverything() {
	_, err := s.manager.AddClaims(s.ctx, tenantID, userID, []*models.Claim{claim(givenName), claim(lastName)})
	s.Require().NoError(err)

	replaced, err := s.manager.UpdateClaims(s.ctx, tenantID, userID, []*models.Claim{claim(lastName)})
	s.Require().NoError(err)
	s.Require().Len(replaced, 1)

	stored := s.stored()
	s.Require().Len(stored, 1)
	s.Equal(lastName, stored[0].ClaimURI)

	s.Run("invalid batch leaves claims untouched", func() {
		_, err := s.manager.UpdateClaims(s.ctx, tenantID, userID, []*models.Claim{claim("")})
		s.requireReason(err, models.ReasonInvalidClaimURI, dErrors.CodeBadRequest)
		s.Len(s.stored(), 1)
	})
}

func (s *ClaimManagerSuite) TestGetClaimByURI() {
	_, err := s.manager.AddClaims(s.ctx, tenantID, userID, []*models.Claim{claim(givenName)})
	s.Require().NoError(err)

	got, err := s.manager.GetClaimByURI(s.ctx, tenantID, userID, givenName, providerID)
	s.Require().NoError(err)
	s.Equal(givenName, got.ClaimURI)

	got, err = s.manager.GetClaimByURI(s.ctx, tenantID, userID, givenName, "")
	s.Require().NoError(err)
	s.Equal(providerID, got.ProviderID)

	_, err = s.manager.GetClaimByURI(s.ctx, tenantID, userID, lastName, providerID)
	s.requireReason(err, models.ReasonInvalidClaimURI, dErrors.CodeNotFound)

	_, err = s.manager.GetClaimByURI(s.ctx, tenantID, userID, givenName, "missing")
	s.requireReason(err, models.ReasonInvalidProvider, dErrors.CodeBadRequest)
}

func (s *ClaimManagerSuite) TestGetClaimsByProvider() {
	_, err := s.manager.AddClaims(s.ctx, tenantID, userID, []*models.Claim{
		claim(givenName),
		{ClaimURI: lastName, ProviderID: "idvp-2", Metadata: map[string]any{}},
	})
	s.Require().NoError(err)

	all, err := s.manager.GetClaims(s.ctx, tenantID, userID, "")
	s.Require().NoError(err)
	s.Len(all, 2)

	byProvider, err := s.manager.GetClaims(s.ctx, tenantID, userID, "idvp-2")
	s.Require().NoError(err)
	s.Require().Len(byProvider, 1)
	s.Equal(lastName, byProvider[0].ClaimURI)
}

func (s *ClaimManagerSuite) TestGetClaimsByMetadata() {
	_, err := s.manager.AddClaims(s.ctx, tenantID, userID, []*models.Claim{claim(givenName)})
	s.Require().NoError(err)

	found, err := s.manager.GetClaimsByMetadata(s.ctx, tenantID, "source", "evidence", "")
	s.Require().NoError(err)
	s.Len(found, 1)

	found, err = s.manager.GetClaimsByMetadata(s.ctx, tenantID, "source", "other", providerID)
	s.Require().NoError(err)
	s.Empty(found)

	_, err = s.manager.GetClaimsByMetadata(s.ctx, tenantID, " ", "evidence", "")
	s.requireReason(err, models.ReasonEmptyMetadata, dErrors.CodeBadRequest)
}

func (s *ClaimManagerSuite) TestDeletes() {
	added, err := s.manager.AddClaims(s.ctx, tenantID, userID, []*models.Claim{
		claim(givenName),
		claim(lastName),
		{ClaimURI: givenName, ProviderID: "idvp-2", Metadata: map[string]any{}},
	})
	s.Require().NoError(err)

	s.Run("single claim", func() {
		s.Require().NoError(s.manager.DeleteClaim(s.ctx, tenantID, userID, added[1].UUID))
		ok, err := s.manager.ClaimExists(s.ctx, tenantID, added[1].UUID)
		s.Require().NoError(err)
		s.False(ok)
		s.NoError(s.manager.DeleteClaim(s.ctx, tenantID, userID, added[1].UUID))
	})

	s.Run("by uri without a user lookup", func() {
		s.Require().NoError(s.users.Delete(s.ctx, tenantID, userID))
		s.Require().NoError(s.manager.DeleteClaimsByURI(s.ctx, tenantID, userID, "idvp-2", givenName))
		stored := s.stored()
		s.Require().Len(stored, 1)
		s.Equal(providerID, stored[0].ProviderID)
	})

	s.Run("every claim of a user that is gone", func() {
		s.Require().NoError(s.manager.DeleteClaimsByURI(s.ctx, tenantID, userID, "", ""))
		s.Empty(s.stored())
	})
}

func (s *ClaimManagerSuite) TestDeleteClaimsByUser() {
	_, err := s.manager.AddClaims(s.ctx, tenantID, userID, []*models.Claim{claim(givenName), claim(lastName)})
	s.Require().NoError(err)

	s.Require().NoError(s.manager.DeleteClaims(s.ctx, tenantID, userID))
	s.Empty(s.stored())
}

func (s *ClaimManagerSuite) TestVerifyIdentity() {
	s.Run("echo verifier stores mapped claims", func() {
		result, err := s.manager.VerifyIdentity(s.ctx, tenantID, userID, &models.VerifierData{ProviderID: providerID})
		s.Require().NoError(err)
		s.Require().Len(result.Claims, 2)

		got, err := s.manager.GetClaimByURI(s.ctx, tenantID, userID, givenName, providerID)
		s.Require().NoError(err)
		s.True(got.IsVerified)
		s.Equal("first_name", got.Metadata["idvpClaim"])

		got, err = s.manager.GetClaimByURI(s.ctx, tenantID, userID, lastName, providerID)
		s.Require().NoError(err)
		s.False(got.IsVerified, "user has no last name")

		s.InDelta(1, testutil.ToFloat64(s.metrics.Verifications.WithLabelValues(echo.Type, "success")), 0)
	})

	s.Run("second run updates in place", func() {
		s.Require().NoError(s.users.Upsert(s.ctx, tenantID, userID, map[string]string{lastName: "Lovelace"}))
		_, err := s.manager.VerifyIdentity(s.ctx, tenantID, userID, &models.VerifierData{ProviderID: providerID})
		s.Require().NoError(err)
		s.Len(s.stored(), 2)

		got, err := s.manager.GetClaimByURI(s.ctx, tenantID, userID, lastName, providerID)
		s.Require().NoError(err)
		s.True(got.IsVerified)
	})

	s.Run("blank provider", func() {
		_, err := s.manager.VerifyIdentity(s.ctx, tenantID, userID, &models.VerifierData{})
		s.requireReason(err, models.ReasonInvalidProvider, dErrors.CodeBadRequest)
	})

	s.Run("no verifier for provider type", func() {
		_, err := s.manager.VerifyIdentity(s.ctx, tenantID, userID, &models.VerifierData{ProviderID: "idvp-2"})
		s.requireReason(err, models.ReasonInvalidVerifier, dErrors.CodeBadRequest)
	})

	s.Run("factory returning nil", func() {
		s.Require().NoError(s.verifiers.Register("UNKNOWN", verifier.FactoryFunc(func(string) verifier.Verifier {
			return nil
		})))
		defer s.verifiers.Unregister("UNKNOWN")
		_, err := s.manager.VerifyIdentity(s.ctx, tenantID, userID, &models.VerifierData{ProviderID: "idvp-2"})
		s.requireReason(err, models.ReasonInvalidVerifier, dErrors.CodeBadRequest)
	})

	s.Run("unknown user", func() {
		_, err := s.manager.VerifyIdentity(s.ctx, tenantID, "ghost", &models.VerifierData{ProviderID: providerID})
		s.requireReason(err, models.ReasonInvalidUser, dErrors.CodeNotFound)
	})
}

func (s *ClaimManagerSuite) TestNoStoreRegistered() {
	m := New(registry.New[store.Store]("claim store"), config.BackendMemory, s.providers, s.users, nil)
	_, err := m.GetClaims(s.ctx, tenantID, userID, "")
	s.requireReason(err, models.ReasonNoStore, dErrors.CodeInternal)
}
