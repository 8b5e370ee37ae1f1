package availability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookup(t *testing.T) {
	a, ok := Lookup("sql")
	assert.True(t, ok)
	assert.Equal(t, SQL, a)
	assert.True(t, a.Contains(MySQL))
	assert.True(t, a.Contains(Postgres))
	assert.True(t, a.Contains(SQLite))
	assert.False(t, a.Contains(Mongo))

	_, ok = Lookup("nope")
	assert.False(t, ok)
}

func TestDatabaseUnion(t *testing.T) {
	assert.True(t, Database.Contains(SQL))
	assert.True(t, Database.Contains(Mongo))
	assert.True(t, All.Contains(Database))
	assert.True(t, All.Contains(NoDatabase))
}

func TestIntersectAndEmpty(t *testing.T) {
	i := MySQL.Intersect(Postgres)
	assert.True(t, i.IsEmpty())

	i2 := SQL.Intersect(MySQL)
	assert.Equal(t, MySQL, i2)
}

func TestString(t *testing.T) {
	assert.Equal(t, "none", None.String())
	assert.Equal(t, "all", All.String())
	assert.Equal(t, "mysql|postgres|sqlite", SQL.String())
}
