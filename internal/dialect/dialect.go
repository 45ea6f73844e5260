// Package dialect resolves a target database name into an immutable
// profile of SQL templates.
//
// The variant set is closed: Postgres, SqliteLike and MySql cover the
// four accepted target names (duck resolves to the SqliteLike family
// with the handful of templates its scalar library genuinely diverges
// on). Resolution happens exactly once, at configuration time; the
// resulting Profile is plain data, read concurrently without locking,
// and compilation code never branches on dialect names again.
package dialect

import "github.com/roach88/trellis/internal/rel"

// ID identifies a dialect family.
type ID int

const (
	// Postgres is the Postgres-like family.
	Postgres ID = iota

	// SqliteLike is the SQLite/embedded-analytics family. It is the
	// one family whose default surface includes count_distinct.
	SqliteLike

	// MySql is the MySQL-like family.
	MySql
)

func (id ID) String() string {
	switch id {
	case Postgres:
		return "postgres"
	case SqliteLike:
		return "sqlite-like"
	case MySql:
		return "mysql"
	}
	return "invalid"
}

// Names lists the accepted target database names, in the order they are
// reported by configuration errors.
var Names = []string{"postgres", "sqlite", "duck", "mysql"}

// Profile holds the SQL templates one target database compiles against.
//
// A Profile is built once by Resolve and never mutated afterwards.
// Template fields use $name interpolation slots filled by the compiler:
// $string, $substring, $code, $count, $date, $value.
type Profile struct {
	// ID is the dialect family.
	ID ID

	// Name is the target name that resolved to this profile, one of
	// postgres, sqlite, duck or mysql.
	Name string

	// Numbered selects $1-style positional placeholders over ?.
	Numbered bool

	// QuoteChar is the identifier quote character.
	QuoteChar string

	// Random draws a float in [0, 1), re-evaluated per row.
	Random string

	// StrIndex finds $substring in $string, 0-based. Absence
	// normalizes to a negative value on every dialect.
	StrIndex string

	// Char converts an integer code point ($code) to a string.
	Char string

	// CharOrd converts the first character of $string to its code.
	CharOrd string

	// Repeat repeats $string $count times.
	Repeat string

	// Now is the current timestamp.
	Now string

	// Pi is the circle constant.
	Pi string

	// CountDistinct counts distinct values of $value. Empty when the
	// dialect omits it from its surface.
	CountDistinct string

	// CastInt is the cast target for boolean-as-integer aggregation.
	CastInt string

	// Date field extractors, all applied to $date and evaluating to
	// int. DayOfWeek is normalized so 0 means Sunday everywhere.
	Year       string
	Month      string
	Day        string
	Hour       string
	Minute     string
	DayOfWeek  string
	WeekOfYear string

	// FullOuterJoin reports native FULL OUTER JOIN support. Without
	// it, positional outer joins are emulated with a union of
	// one-sided joins.
	FullOuterJoin bool
}

// Quote wraps an identifier in the profile's quote character.
func (p Profile) Quote(ident string) string {
	return p.QuoteChar + ident + p.QuoteChar
}

// Resolve maps a target database name to its profile.
// Any name outside the closed set fails with a ConfigurationError.
func Resolve(name string) (Profile, error) {
	base := defaults()
	base.Name = name
	switch name {
	case "postgres":
		base.ID = Postgres
		applyPostgres(&base)
	case "sqlite":
		base.ID = SqliteLike
		applySqlite(&base)
	case "duck":
		base.ID = SqliteLike
		applySqlite(&base)
		applyDuck(&base)
	case "mysql":
		base.ID = MySql
		applyMySql(&base)
	default:
		return Profile{}, rel.NewConfigError(
			"unknown target database '%s' (expected one of: postgres, sqlite, duck, mysql)", name)
	}
	return base, nil
}
