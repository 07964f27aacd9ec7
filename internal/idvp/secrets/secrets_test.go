package secrets

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"idvmgt/internal/idvp/models"
	"idvmgt/internal/secretvault/cipher"
	vaultmodels "idvmgt/internal/secretvault/models"
	vault "idvmgt/internal/secretvault/service"
	vaultstore "idvmgt/internal/secretvault/store"
	dErrors "idvmgt/pkg/domain-errors"
)

type ProcessorSuite struct {
	suite.Suite
	ctx   context.Context
	store *vaultstore.InMemoryStore
	vault *vault.Manager
	proc  *Processor
}

func TestProcessorSuite(t *testing.T) {
	suite.Run(t, new(ProcessorSuite))
}

func (s *ProcessorSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = vaultstore.NewInMemoryStore()
	c, err := cipher.New(make([]byte, 32), "v1")
	s.Require().NoError(err)
	s.vault = vault.New(s.store, c)
	s.proc = NewProcessor(s.vault, nil)
}

func onfido() *models.Provider {
	return &models.Provider{
		UUID: "1c7ce08b-8b2d-4a5a-b5fd-3b1c0b3a1f7e",
		Name: "Onfido",
		Type: "ONFIDO",
		ConfigProperties: []models.ConfigProperty{
			{Name: "token", Value: "tok-123", Confidential: true},
			{Name: "apiUrl", Value: "https://api.eu.onfido.com/v3.6/", Confidential: false},
			{Name: "webhookToken", Value: "wh-456", Confidential: true},
		},
	}
}

func (s *ProcessorSuite) TestEncryptDecryptRoundTrip() {
	p := onfido()

	encrypted, err := s.proc.Encrypt(s.ctx, 1, p)
	s.Require().NoError(err)

	token, _ := encrypted.Property("token")
	s.Equal(Reference(vaultmodels.IDVPSecretTypeID, SecretName(p.UUID, "token")), token.Value)
	apiURL, _ := encrypted.Property("apiUrl")
	s.Equal("https://api.eu.onfido.com/v3.6/", apiURL.Value, "non-confidential values pass through")

	s.Equal("tok-123", p.ConfigProperties[0].Value, "input is not mutated")

	decrypted, err := s.proc.Decrypt(s.ctx, 1, encrypted)
	s.Require().NoError(err)
	s.Equal(p.ConfigProperties, decrypted.ConfigProperties)
}

func (s *ProcessorSuite) TestEncryptUpdatesChangedSecret() {
	p := onfido()
	_, err := s.proc.Encrypt(s.ctx, 1, p)
	s.Require().NoError(err)

	p.ConfigProperties[0].Value = "tok-rotated"
	encrypted, err := s.proc.Encrypt(s.ctx, 1, p)
	s.Require().NoError(err)

	decrypted, err := s.proc.Decrypt(s.ctx, 1, encrypted)
	s.Require().NoError(err)
	token, _ := decrypted.Property("token")
	s.Equal("tok-rotated", token.Value)
}

func (s *ProcessorSuite) TestEncryptKeepsSecretWhenReferenceIsSentBack() {
	p := onfido()
	encrypted, err := s.proc.Encrypt(s.ctx, 1, p)
	s.Require().NoError(err)

	again, err := s.proc.Encrypt(s.ctx, 1, encrypted)
	s.Require().NoError(err)
	decrypted, err := s.proc.Decrypt(s.ctx, 1, again)
	s.Require().NoError(err)
	token, _ := decrypted.Property("token")
	s.Equal("tok-123", token.Value)
}

func (s *ProcessorSuite) TestEncryptSkipsEmptyNewSecret() {
	p := onfido()
	p.ConfigProperties[2].Value = ""

	encrypted, err := s.proc.Encrypt(s.ctx, 1, p)
	s.Require().NoError(err)

	wh, _ := encrypted.Property("webhookToken")
	s.Empty(wh.Value)
	s.Equal(1, s.store.Count(1, vaultmodels.IDVPSecretTypeID))
}

func (s *ProcessorSuite) TestDeleteAllLeavesNoSecrets() {
	p := onfido()
	_, err := s.proc.Encrypt(s.ctx, 1, p)
	s.Require().NoError(err)
	s.Equal(2, s.store.Count(1, vaultmodels.IDVPSecretTypeID))

	s.Require().NoError(s.proc.DeleteAll(s.ctx, 1, p))
	s.Equal(0, s.store.Count(1, vaultmodels.IDVPSecretTypeID))
}

type failingVault struct {
	Vault
}

func (failingVault) SecretType(context.Context, string) (*vaultmodels.SecretType, error) {
	return nil, errors.New("vault down")
}

func (s *ProcessorSuite) TestVaultFailureIsServerError() {
	proc := NewProcessor(failingVault{}, nil)
	_, err := proc.Encrypt(s.ctx, 1, onfido())
	s.Require().Error(err)
	s.True(dErrors.HasReason(err, models.ReasonStoringSecrets))
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}
