package sqlstore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// dialect captures what differs between the supported engines
type dialect struct {
	name     string
	driver   string
	idColumn string
	keyType  string
	textType string
}

var (
	sqliteDialect = dialect{
		name:     "sqlite",
		driver:   "sqlite3",
		idColumn: "INTEGER PRIMARY KEY AUTOINCREMENT",
		keyType:  "TEXT",
		textType: "TEXT",
	}
	postgresDialect = dialect{
		name:     "postgres",
		driver:   "postgres",
		idColumn: "BIGSERIAL PRIMARY KEY",
		keyType:  "TEXT",
		textType: "TEXT",
	}
	mysqlDialect = dialect{
		name:     "mysql",
		driver:   "mysql",
		idColumn: "BIGINT AUTO_INCREMENT PRIMARY KEY",
		keyType:  "VARCHAR(255)",
		textType: "LONGTEXT",
	}
)

// parseURL picks the dialect and driver DSN from a database URL.
// A bare path is treated as a sqlite file.
func parseURL(raw string) (dialect, string, error) {
	switch {
	case strings.HasPrefix(raw, "sqlite://"):
		path := strings.TrimPrefix(raw, "sqlite://")
		if path == "" {
			return dialect{}, "", fmt.Errorf("sqlite url %q has no path", raw)
		}
		return sqliteDialect, path, nil
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return postgresDialect, raw, nil
	case strings.HasPrefix(raw, "mysql://"):
		return mysqlDialect, strings.TrimPrefix(raw, "mysql://"), nil
	case strings.Contains(raw, "://"):
		return dialect{}, "", fmt.Errorf("unsupported database url %q", raw)
	case raw == "":
		return dialect{}, "", fmt.Errorf("database url is required")
	default:
		return sqliteDialect, raw, nil
	}
}

// rebind converts '?' placeholders to $n for postgres
func (d dialect) rebind(query string) string {
	if d.name != "postgres" {
		return query
	}
	var b strings.Builder
	idx := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			fmt.Fprintf(&b, "$%d", idx)
			idx++
		} else {
			b.WriteByte(query[i])
		}
	}
	return b.String()
}

// returningID reports whether inserts must use RETURNING instead of LastInsertId
func (d dialect) returningID() bool {
	return d.name == "postgres"
}

// index builds a secondary index. MySQL gets it inline through inlineIndex.
func (d dialect) index(table string, columns ...string) []string {
	if d.name == "mysql" {
		return nil
	}
	return []string{fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s(%s)",
		table, strings.Join(columns, "_"), table, strings.Join(columns, ", "))}
}

func (d dialect) inlineIndex(table string, columns ...string) string {
	if d.name != "mysql" {
		return ""
	}
	return fmt.Sprintf(",\n\t\tINDEX idx_%s_%s (%s)", table, strings.Join(columns, "_"), strings.Join(columns, ", "))
}

// isUniqueViolation recognizes unique and primary key conflicts of every driver
func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pe *pq.Error
	if errors.As(err, &pe) {
		return pe.Code == "23505"
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return false
}
