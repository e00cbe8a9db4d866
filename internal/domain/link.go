package domain

import (
	"fmt"
	"strings"
	"time"
)

// RemoteID is the remote-assigned 128-bit identity in canonical UUID form
type RemoteID string

func (id RemoteID) String() string { return string(id) }

// LinkKind selects the link table a Link lives in
type LinkKind string

const (
	LinkPage       LinkKind = "page"
	LinkCollection LinkKind = "collection"
	LinkItem       LinkKind = "item"
	LinkFieldTag   LinkKind = "field-tag"
	LinkBlock      LinkKind = "block"
)

var AllLinkKinds = []LinkKind{LinkPage, LinkCollection, LinkItem, LinkFieldTag, LinkBlock}

// ScopeKey hierarchically encodes where a Link belongs:
// <kind>:<trunk-id>[:<branch-id>] for scopes, <scope>:<leaf-id> for leaves.
type ScopeKey string

// TrunkScope is the key of the workspace root page
func TrunkScope(workspace EntityID) ScopeKey {
	return ScopeKey(fmt.Sprintf("workspace:%d", workspace))
}

// CollectionScope is the key of a family collection, optionally inside a branch
func CollectionScope(family Family, trunk EntityID, branch ...EntityID) ScopeKey {
	key := fmt.Sprintf("%s:%d", family, trunk)
	for _, b := range branch {
		key += ":" + b.String()
	}
	return ScopeKey(key)
}

// Leaf is the key of an entity within the scope
func (k ScopeKey) Leaf(id EntityID) ScopeKey {
	return ScopeKey(string(k) + ":" + id.String())
}

// Parent strips the last segment
func (k ScopeKey) Parent() ScopeKey {
	i := strings.LastIndex(string(k), ":")
	if i < 0 {
		return ""
	}
	return k[:i]
}

// LeafID parses the trailing local identity of a leaf key
func (k ScopeKey) LeafID() (EntityID, error) {
	i := strings.LastIndex(string(k), ":")
	if i < 0 {
		return BadRefID, fmt.Errorf("scope key %q has no leaf segment", k)
	}
	return ParseEntityID(string(k[i+1:]))
}

func (k ScopeKey) String() string { return string(k) }

// Link maps one local identity to one remote identity inside a scope
type Link struct {
	Kind             LinkKind
	Key              ScopeKey
	ParentKey        ScopeKey
	RefID            EntityID
	RemoteID         RemoteID
	CreatedTime      time.Time
	LastModifiedTime time.Time
}

// NewLink builds a leaf link under parent
func NewLink(kind LinkKind, parent ScopeKey, ref EntityID, remote RemoteID, now time.Time) Link {
	return Link{
		Kind:             kind,
		Key:              parent.Leaf(ref),
		ParentKey:        parent,
		RefID:            ref,
		RemoteID:         remote,
		CreatedTime:      now,
		LastModifiedTime: now,
	}
}

// NewScopeLink builds a link whose key is the scope itself. Trunk pages have
// no parent; collections hang from the trunk page.
func NewScopeLink(kind LinkKind, key, parent ScopeKey, ref EntityID, remote RemoteID, now time.Time) Link {
	return Link{
		Kind:             kind,
		Key:              key,
		ParentKey:        parent,
		RefID:            ref,
		RemoteID:         remote,
		CreatedTime:      now,
		LastModifiedTime: now,
	}
}
