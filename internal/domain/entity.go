package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EntityID is the stable local identity of an entity. Assigned by the store on
// create, monotonically increasing per family.
type EntityID int64

// BadRefID marks an entity that has not been persisted yet.
const BadRefID EntityID = 0

func (id EntityID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// IsSet reports whether the id was assigned by the store
func (id EntityID) IsSet() bool {
	return id > 0
}

// ParseEntityID parses the textual form used on the remote `Ref Id` property
func ParseEntityID(s string) (EntityID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return BadRefID, fmt.Errorf("empty ref id")
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return BadRefID, fmt.Errorf("invalid ref id %q", s)
	}
	return EntityID(n), nil
}

// EntityBase holds the fields every managed entity carries
type EntityBase struct {
	RefID            EntityID
	Version          int
	Archived         bool
	CreatedTime      time.Time
	LastModifiedTime time.Time
	ArchivedTime     *time.Time
}

// Leaf is the generic shape of every managed entity. P carries the
// family-specific payload.
type Leaf[P any] struct {
	EntityBase
	ParentRefID EntityID
	Name        string
	Payload     P
}

// NewLeaf builds a not-yet-persisted leaf
func NewLeaf[P any](parent EntityID, name string, payload P, now time.Time) Leaf[P] {
	return Leaf[P]{
		EntityBase: EntityBase{
			RefID:            BadRefID,
			Version:          1,
			CreatedTime:      now,
			LastModifiedTime: now,
		},
		ParentRefID: parent,
		Name:        strings.TrimSpace(name),
		Payload:     payload,
	}
}

// Touch bumps the modification time and version
func (l Leaf[P]) Touch(now time.Time) Leaf[P] {
	l.Version++
	l.LastModifiedTime = now
	return l
}

// Rename changes the name, keeping the leaf untouched when the name is the same
func (l Leaf[P]) Rename(name string, now time.Time) Leaf[P] {
	name = strings.TrimSpace(name)
	if name == l.Name {
		return l
	}
	l.Name = name
	return l.Touch(now)
}

// WithPayload replaces the payload
func (l Leaf[P]) WithPayload(payload P, now time.Time) Leaf[P] {
	l.Payload = payload
	return l.Touch(now)
}

// MarkArchived soft-deletes the leaf
func (l Leaf[P]) MarkArchived(now time.Time) Leaf[P] {
	if l.Archived {
		return l
	}
	l.Archived = true
	t := now
	l.ArchivedTime = &t
	return l.Touch(now)
}

// MarkUnarchived reverses MarkArchived
func (l Leaf[P]) MarkUnarchived(now time.Time) Leaf[P] {
	if !l.Archived {
		return l
	}
	l.Archived = false
	l.ArchivedTime = nil
	return l.Touch(now)
}

// RefIDs collects the identities of a slice of leaves
func RefIDs[P any](leaves []Leaf[P]) []EntityID {
	ids := make([]EntityID, 0, len(leaves))
	for _, l := range leaves {
		ids = append(ids, l.RefID)
	}
	return ids
}
