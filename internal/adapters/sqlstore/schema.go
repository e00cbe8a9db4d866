package sqlstore

import (
	"fmt"
	"strings"

	"jupiter/internal/domain"
)

const schemaVersion = "1"

// linkTables lists link tables parents first, with the table each one's
// parent_key references
var linkTables = []struct {
	kind   domain.LinkKind
	table  string
	parent string
}{
	{domain.LinkPage, "page_links", ""},
	{domain.LinkCollection, "collection_links", "page_links"},
	{domain.LinkItem, "item_links", "collection_links"},
	{domain.LinkFieldTag, "field_tag_links", "collection_links"},
	{domain.LinkBlock, "block_links", "item_links"},
}

func linkTable(kind domain.LinkKind) string {
	for _, lt := range linkTables {
		if lt.kind == kind {
			return lt.table
		}
	}
	return ""
}

func familyTable(f domain.Family) string {
	return strings.ReplaceAll(string(f), "-", "_")
}

// schemaStatements returns the DDL for the dialect, one statement each
func schemaStatements(d dialect) []string {
	var stmts []string

	stmts = append(stmts,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS meta (
		meta_key %s PRIMARY KEY,
		meta_value %s NOT NULL
	)`, d.keyType, d.textType),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS workspaces (
		ref_id %s,
		version INTEGER NOT NULL,
		archived SMALLINT NOT NULL DEFAULT 0,
		created_time BIGINT NOT NULL,
		last_modified_time BIGINT NOT NULL,
		archived_time BIGINT,
		name %s NOT NULL,
		timezone %s NOT NULL,
		default_project_ref_id BIGINT NOT NULL DEFAULT 0,
		remote_space_id %s NOT NULL,
		remote_token %s NOT NULL
	)`, d.idColumn, d.textType, d.keyType, d.keyType, d.textType),
	)

	for _, f := range domain.AllFamilies {
		table := familyTable(f)
		stmts = append(stmts, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		ref_id %s,
		version INTEGER NOT NULL,
		archived SMALLINT NOT NULL DEFAULT 0,
		created_time BIGINT NOT NULL,
		last_modified_time BIGINT NOT NULL,
		archived_time BIGINT,
		parent_ref_id BIGINT NOT NULL,
		name %s NOT NULL,
		natural_key %s,
		payload %s NOT NULL,
		UNIQUE (natural_key)%s
	)`, table, d.idColumn, d.textType, d.keyType, d.textType, d.inlineIndex(table, "parent_ref_id")))
		stmts = append(stmts, d.index(table, "parent_ref_id")...)
	}

	for _, lt := range linkTables {
		fk := ""
		if lt.parent != "" {
			fk = fmt.Sprintf(",\n\t\tFOREIGN KEY (parent_key) REFERENCES %s(scope_key) ON DELETE CASCADE", lt.parent)
		}
		stmts = append(stmts, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		scope_key %s PRIMARY KEY,
		parent_key %s,
		ref_id BIGINT NOT NULL,
		remote_id %s NOT NULL,
		created_time BIGINT NOT NULL,
		last_modified_time BIGINT NOT NULL%s
	)`, lt.table, d.keyType, d.keyType, d.keyType, fk))
		stmts = append(stmts, d.index(lt.table, "parent_key")...)
	}

	stmts = append(stmts, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS events (
		id %s,
		family %s NOT NULL,
		ref_id BIGINT NOT NULL,
		kind %s NOT NULL,
		payload %s NOT NULL,
		created_time BIGINT NOT NULL%s
	)`, d.idColumn, d.keyType, d.keyType, d.textType, d.inlineIndex("events", "family", "ref_id")))
	stmts = append(stmts, d.index("events", "family", "ref_id")...)

	return stmts
}
