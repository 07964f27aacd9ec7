package models

import "maps"

// Claim records the verification state of one user claim against one provider.
type Claim struct {
	ID         int64
	UUID       string
	UserID     string
	ClaimURI   string
	ProviderID string
	IsVerified bool
	// Metadata is provider specific evidence kept alongside the claim.
	Metadata map[string]any
}

func (c *Claim) Clone() *Claim {
	if c == nil {
		return nil
	}
	out := *c
	out.Metadata = cloneMetadata(c.Metadata)
	return &out
}

// Key identifies a claim by its natural key within a tenant.
func (c *Claim) Key() ClaimKey {
	return ClaimKey{UserID: c.UserID, ProviderID: c.ProviderID, ClaimURI: c.ClaimURI}
}

type ClaimKey struct {
	UserID     string
	ProviderID string
	ClaimURI   string
}

func CloneClaims(claims []*Claim) []*Claim {
	if claims == nil {
		return nil
	}
	out := make([]*Claim, len(claims))
	for i, c := range claims {
		out[i] = c.Clone()
	}
	return out
}

func cloneMetadata(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := maps.Clone(in)
	for k, v := range out {
		if nested, ok := v.(map[string]any); ok {
			out[k] = cloneMetadata(nested)
		}
	}
	return out
}

// VerifierData is the input and output of an identity verification call.
type VerifierData struct {
	ProviderID string
	Claims     []*Claim
	Properties []VerifierProperty
}

type VerifierProperty struct {
	Name  string
	Value string
}

// Property returns the value of the named property.
func (d *VerifierData) Property(name string) (string, bool) {
	for _, p := range d.Properties {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}
