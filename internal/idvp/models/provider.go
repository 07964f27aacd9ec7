package models

import (
	"maps"
	"slices"
)

// Provider is a tenant's configured identity verification vendor.
type Provider struct {
	ID          int64
	UUID        string
	Name        string
	Type        string
	Description string
	Enabled     bool
	// ClaimMappings maps a local claim URI to the provider's claim name.
	ClaimMappings    map[string]string
	ConfigProperties []ConfigProperty
}

// ConfigProperty is a provider setting. Confidential values are stored in the
// secret vault and only a reference is persisted.
type ConfigProperty struct {
	Name         string
	Value        string
	Confidential bool
}

// Clone returns a deep copy of p.
func (p *Provider) Clone() *Provider {
	if p == nil {
		return nil
	}
	cp := *p
	if p.ClaimMappings != nil {
		cp.ClaimMappings = maps.Clone(p.ClaimMappings)
	}
	if p.ConfigProperties != nil {
		cp.ConfigProperties = slices.Clone(p.ConfigProperties)
	}
	return &cp
}

// Property returns the named config property.
func (p *Provider) Property(name string) (ConfigProperty, bool) {
	for _, prop := range p.ConfigProperties {
		if prop.Name == name {
			return prop, true
		}
	}
	return ConfigProperty{}, false
}
