package models

import "time"

// IDVPSecretTypeName is the secret type holding confidential provider properties.
const IDVPSecretTypeName = "IDVP_SECRET_PROPERTIES"

// IDVPSecretTypeID matches the row seeded by the secrets migration.
const IDVPSecretTypeID = "c508ca6a-2b2b-4b5c-9a3e-4d3b1b9f6a01"

// SecretType groups secrets owned by one feature.
type SecretType struct {
	ID          string
	Name        string
	Description string
}

// Secret is one encrypted value. Value is plaintext and only populated in
// memory after decryption; only Ciphertext is persisted.
type Secret struct {
	ID           string
	TenantID     int
	TypeID       string
	Name         string
	Value        string
	Ciphertext   []byte
	KeyVersion   string
	Description  string
	LastModified time.Time
}

// KnownTypes are created on startup by the memory store and by migration for postgres.
func KnownTypes() []SecretType {
	return []SecretType{{
		ID:          IDVPSecretTypeID,
		Name:        IDVPSecretTypeName,
		Description: "Secret type to uniquely identify secrets relevant to identity verification providers",
	}}
}
