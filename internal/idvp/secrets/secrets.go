// Package secrets moves confidential provider properties in and out of the
// secret vault.
package secrets

import (
	"context"
	"log/slog"

	"idvmgt/internal/idvp/models"
	vaultmodels "idvmgt/internal/secretvault/models"
)

// Vault is the subset of the secret manager used for provider properties.
type Vault interface {
	SecretType(ctx context.Context, name string) (*vaultmodels.SecretType, error)
	Exists(ctx context.Context, tenantID int, typeName, name string) (bool, error)
	Add(ctx context.Context, tenantID int, typeName, name, value string) error
	UpdateValue(ctx context.Context, tenantID int, typeName, name, value string) error
	Resolve(ctx context.Context, tenantID int, typeName, name string) (string, error)
	Delete(ctx context.Context, tenantID int, typeName, name string) error
}

// Processor encrypts and decrypts confidential properties. It never mutates
// the provider it is given.
type Processor struct {
	vault  Vault
	logger *slog.Logger
}

func NewProcessor(vault Vault, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{vault: vault, logger: logger}
}

// SecretName is the vault name of a provider property.
func SecretName(providerUUID, property string) string {
	return providerUUID + ":" + property
}

// Reference is the value persisted in place of a confidential property.
func Reference(secretTypeID, secretName string) string {
	return secretTypeID + ":" + secretName
}

// Encrypt stores confidential values in the vault and returns a copy whose
// confidential properties hold secret references.
func (p *Processor) Encrypt(ctx context.Context, tenantID int, provider *models.Provider) (*models.Provider, error) {
	out := provider.Clone()
	secretType, err := p.vault.SecretType(ctx, vaultmodels.IDVPSecretTypeName)
	if err != nil {
		return nil, models.ServerError(models.ReasonStoringSecrets, err, provider.UUID)
	}

	for i, prop := range out.ConfigProperties {
		if !prop.Confidential {
			continue
		}
		name := SecretName(out.UUID, prop.Name)
		ref := Reference(secretType.ID, name)

		exists, err := p.vault.Exists(ctx, tenantID, vaultmodels.IDVPSecretTypeName, name)
		if err != nil {
			return nil, models.ServerError(models.ReasonStoringSecrets, err, provider.UUID)
		}
		switch {
		case exists:
			if prop.Value != ref {
				if err := p.updateIfChanged(ctx, tenantID, name, prop.Value); err != nil {
					return nil, models.ServerError(models.ReasonStoringSecrets, err, provider.UUID)
				}
			}
		case prop.Value == "":
			p.logger.DebugContext(ctx, "skipping empty confidential property",
				"provider_id", out.UUID, "property", prop.Name)
			continue
		default:
			if err := p.vault.Add(ctx, tenantID, vaultmodels.IDVPSecretTypeName, name, prop.Value); err != nil {
				return nil, models.ServerError(models.ReasonStoringSecrets, err, provider.UUID)
			}
		}
		out.ConfigProperties[i].Value = ref
	}
	return out, nil
}

func (p *Processor) updateIfChanged(ctx context.Context, tenantID int, name, value string) error {
	current, err := p.vault.Resolve(ctx, tenantID, vaultmodels.IDVPSecretTypeName, name)
	if err != nil {
		return err
	}
	if current == value {
		return nil
	}
	return p.vault.UpdateValue(ctx, tenantID, vaultmodels.IDVPSecretTypeName, name, value)
}

// Decrypt returns a copy whose confidential properties hold plaintext values.
// Properties without a stored secret are returned as they are.
func (p *Processor) Decrypt(ctx context.Context, tenantID int, provider *models.Provider) (*models.Provider, error) {
	out := provider.Clone()
	for i, prop := range out.ConfigProperties {
		if !prop.Confidential {
			continue
		}
		name := SecretName(out.UUID, prop.Name)
		exists, err := p.vault.Exists(ctx, tenantID, vaultmodels.IDVPSecretTypeName, name)
		if err != nil {
			return nil, models.ServerError(models.ReasonRetrievingSecrets, err, provider.UUID)
		}
		if !exists {
			continue
		}
		value, err := p.vault.Resolve(ctx, tenantID, vaultmodels.IDVPSecretTypeName, name)
		if err != nil {
			return nil, models.ServerError(models.ReasonRetrievingSecrets, err, provider.UUID)
		}
		out.ConfigProperties[i].Value = value
	}
	return out, nil
}

// DeleteAll removes every stored secret of the provider's confidential properties.
func (p *Processor) DeleteAll(ctx context.Context, tenantID int, provider *models.Provider) error {
	for _, prop := range provider.ConfigProperties {
		if !prop.Confidential {
			continue
		}
		name := SecretName(provider.UUID, prop.Name)
		exists, err := p.vault.Exists(ctx, tenantID, vaultmodels.IDVPSecretTypeName, name)
		if err != nil {
			return models.ServerError(models.ReasonDeleting, err, provider.UUID)
		}
		if !exists {
			continue
		}
		if err := p.vault.Delete(ctx, tenantID, vaultmodels.IDVPSecretTypeName, name); err != nil {
			return models.ServerError(models.ReasonDeleting, err, provider.UUID)
		}
	}
	return nil
}
