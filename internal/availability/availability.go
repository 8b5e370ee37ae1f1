// Package availability implements the bitset restricting which database
// backends or contexts a declaration participates in.
package availability

// Availability is a bitset over the recognized database backends/contexts.
type Availability uint8

const None Availability = 0

const (
	NoDatabase Availability = 1 << iota
	Mongo
	MySQL
	Postgres
	SQLite
)

// SQL is the union of the three relational backends.
const SQL = MySQL | Postgres | SQLite

// Database is every backend-bearing context: SQL backends plus Mongo.
const Database = SQL | Mongo

// All recognized bits, used as the default/unrestricted availability.
const All = NoDatabase | Database

// flagNames maps the availability flag keywords to the bit(s) they
// push onto the parser's availability stack.
var flagNames = map[string]Availability{
	"noDatabase": NoDatabase,
	"database":   Database,
	"mongo":      Mongo,
	"mysql":      MySQL,
	"postgres":   Postgres,
	"sqlite":     SQLite,
	"sql":        SQL,
}

// Lookup resolves an availability flag keyword (without its leading '#').
// The bool result is false for unrecognized names.
func Lookup(name string) (Availability, bool) {
	a, ok := flagNames[name]
	return a, ok
}

// Contains reports whether a is a (non-strict) superset of other, i.e.
// every bit set in other is also set in a.
func (a Availability) Contains(other Availability) bool {
	return a&other == other
}

// Intersect returns the bitwise AND of a and b, i.e. the contexts both
// a and b permit.
func (a Availability) Intersect(b Availability) Availability {
	return a & b
}

// IsEmpty reports whether no bit is set, meaning no context is permitted.
func (a Availability) IsEmpty() bool {
	return a == None
}

// String renders the set bits as a '|'-joined list, for diagnostics and tests.
func (a Availability) String() string {
	if a == None {
		return "none"
	}
	if a == All {
		return "all"
	}
	names := []struct {
		bit  Availability
		name string
	}{
		{NoDatabase, "noDatabase"},
		{Mongo, "mongo"},
		{MySQL, "mysql"},
		{Postgres, "postgres"},
		{SQLite, "sqlite"},
	}
	out := ""
	for _, n := range names {
		if a&n.bit != 0 {
			if out != "" {
				out += "|"
			}
			out += n.name
		}
	}
	if out == "" {
		return "none"
	}
	return out
}
