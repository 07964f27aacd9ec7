package sentinel

import "errors"

// Infrastructure facts returned by stores, vaults and caches (optionally
// wrapped). Services translate them into catalogued domain errors; they never
// reach a transport directly.
//
// - ErrNotFound: no row/document/secret for the key in the tenant
// - ErrConflict: a uniqueness constraint rejected the write
// - ErrUnavailable: the backend could not be reached
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
