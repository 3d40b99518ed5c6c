package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDDLStatements(t *testing.T) {
	sql := `
-- leading comment
CREATE TABLE a (
  id STRING(36) NOT NULL, -- inline comment
) PRIMARY KEY (id);

CREATE INDEX a_by_id ON a(id);
CREATE TABLE b (id INT64) PRIMARY KEY (id)
`

	statements := parseDDLStatements(sql)

	assert.Equal(t, []string{
		"CREATE TABLE a ( id STRING(36) NOT NULL, ) PRIMARY KEY (id)",
		"CREATE INDEX a_by_id ON a(id)",
		"CREATE TABLE b (id INT64) PRIMARY KEY (id)",
	}, statements)
}

func TestStatements_EmbeddedSchema(t *testing.T) {
	statements, err := Statements()

	require.NoError(t, err)
	require.Len(t, statements, 3)
	assert.Equal(t, "subscription_records", createdObject(statements[0]))
	assert.Equal(t, "subscription_records_by_customer", createdObject(statements[1]))
	assert.Equal(t, "processed_events", createdObject(statements[2]))
	for _, stmt := range statements {
		assert.NotContains(t, stmt, "--")
		assert.NotContains(t, stmt, ";")
	}
}

func TestCreatedObject(t *testing.T) {
	testCases := map[string]string{
		"CREATE TABLE Foo (id INT64) PRIMARY KEY (id)":        "foo",
		"CREATE UNIQUE INDEX foo_by_x ON Foo(x)":              "foo_by_x",
		"CREATE NULL_FILTERED INDEX foo_by_y ON Foo(y)":       "foo_by_y",
		"CREATE TABLE `quoted`(id INT64) PRIMARY KEY (id)":    "quoted",
		"ALTER TABLE foo ADD COLUMN bar STRING(10)":           "",
		"CREATE VIEW v SQL SECURITY INVOKER AS SELECT 1 AS x": "",
	}

	for stmt, want := range testCases {
		assert.Equal(t, want, createdObject(stmt), stmt)
	}
}
