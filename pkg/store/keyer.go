package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

const (
	snapshotPrefix = "snapshot"
	artifactPrefix = "artifact"
)

// ArtifactKeyOpts are the rendering options that make an artifact distinct.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Layout string `json:"layout,omitempty"`
}

// Keyer derives store keys.
type Keyer interface {
	// SnapshotKey names the snapshot slot of a workspace.
	SnapshotKey(workspace string) string

	// ArtifactKey names a rendered artifact of the document with the given
	// content hash.
	ArtifactKey(docHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer produces unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// SnapshotKey returns "snapshot:<workspace>".
func (DefaultKeyer) SnapshotKey(workspace string) string {
	if workspace == "" {
		workspace = "default"
	}
	return snapshotPrefix + ":" + workspace
}

// ArtifactKey returns "artifact:<sha256(docHash, opts)>".
func (DefaultKeyer) ArtifactKey(docHash string, opts ArtifactKeyOpts) string {
	return hashKey(artifactPrefix, docHash, opts)
}

// ScopedKeyer prefixes every key of an inner Keyer, e.g. with a user or
// workspace namespace.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer uses
// DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) SnapshotKey(workspace string) string {
	return k.prefix + k.inner.SnapshotKey(workspace)
}

func (k *ScopedKeyer) ArtifactKey(docHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(docHash, opts)
}

// hashKey returns prefix:sha256(json(parts)).
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(sum[:]))
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
