package database_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wgbh/bawstun/internal/database"
)

type payload struct {
	Names []string `json:"names"`
}

func Test_JsonColumn_ValueThenScan(t *testing.T) {
	col := database.NewJsonColumn(payload{Names: []string{"Frank", "Jane"}})
	value, err := col.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `{"names": ["Frank", "Jane"]}`, value.(string))

	var scanned database.JsonColumn[payload]
	require.NoError(t, scanned.Scan(value))
	assert.Equal(t, []string{"Frank", "Jane"}, scanned.Get().Names)
}

func Test_JsonColumn_Scan(t *testing.T) {
	var fromString database.JsonColumn[payload]
	require.NoError(t, fromString.Scan(`{"names": ["Sam"]}`))
	assert.Equal(t, []string{"Sam"}, fromString.Get().Names)

	var fromNil database.JsonColumn[payload]
	require.NoError(t, fromNil.Scan(nil))
	assert.Nil(t, fromNil.Get().Names)

	var bad database.JsonColumn[payload]
	assert.Error(t, bad.Scan(42))
	assert.Error(t, bad.Scan([]byte("{not json")))
}

func Test_DSN(t *testing.T) {
	dsn := database.DSN(database.DatabaseConfig{User: "u", Password: "p", Name: "db", Host: "localhost", Port: "5432"})
	assert.Equal(t, "host=localhost user=u password=p dbname=db port=5432 sslmode=disable TimeZone=UTC", dsn)
}
