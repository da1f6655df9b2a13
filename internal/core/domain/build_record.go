package domain

import "time"

// BuildRecord is the persisted outcome of the last successful build of an artifact.
type BuildRecord struct {
	Key         string       `json:"key,omitzero"`
	Kind        string       `json:"kind,omitzero"`
	Identifier  string       `json:"identifier,omitzero"`
	Stage       Stage        `json:"stage,omitzero"`
	Digest      string       `json:"digest,omitzero"`
	BuiltAt     time.Time    `json:"built_at,omitzero"`
	EntryPoints []EntryPoint `json:"entry_points,omitempty"`
}
