package domain

import (
	"fmt"
	"strings"
	"time"
)

// Workspace is the single trunk every family hangs from
type Workspace struct {
	EntityBase
	Name                string
	Timezone            string
	DefaultProjectRefID EntityID
	RemoteSpaceID       RemoteID
	RemoteToken         string
}

// NewWorkspace validates the timezone and builds an unsaved workspace
func NewWorkspace(name, timezone string, space RemoteID, token string, now time.Time) (Workspace, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Workspace{}, fmt.Errorf("workspace name is required")
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return Workspace{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return Workspace{
		EntityBase: EntityBase{
			Version:          1,
			CreatedTime:      now,
			LastModifiedTime: now,
		},
		Name:          name,
		Timezone:      timezone,
		RemoteSpaceID: space,
		RemoteToken:   token,
	}, nil
}

// Location resolves the workspace timezone, falling back to UTC
func (w Workspace) Location() *time.Location {
	loc, err := time.LoadLocation(w.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
