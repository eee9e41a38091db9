package crudset

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTable(t *testing.T) {
	ctx := context.Background()

	table, err := LoadTable(ctx, dbConn, "families")
	require.NoError(t, err)

	assert.Equal(t, "families", table.Name())
	assert.Equal(t, "id", table.PrimaryKey())
	assert.Equal(t, []string{"id", "location", "surname"}, table.ColumnNames())

	cols := table.Columns()
	require.Len(t, cols, 3)
	assert.Equal(t, ColNumeric, cols[0].Type)
	assert.Equal(t, ColText, cols[1].Type)
	assert.Equal(t, ColText, cols[2].Type)
}

func TestLoadTableNotFound(t *testing.T) {
	_, err := LoadTable(context.Background(), dbConn, "no_such_table")
	assert.Error(t, err)
}

func TestLoadTableUsableWithCrud(t *testing.T) {
	resetTables(t)
	ctx := context.Background()

	table, err := LoadTable(ctx, dbConn, "pets")
	require.NoError(t, err)

	crud := mustCrud(t, mustPolicy(t, table, WithWriteable("name", "status")))
	pet, err := crud.Create(ctx, dbConn, Row{"name": "Milo", "status": "active"})
	require.NoError(t, err)
	assert.Equal(t, "Milo", pet["name"])
	assert.NotNil(t, pet["id"])
}

func TestMapDataType(t *testing.T) {
	assert.Equal(t, ColText, mapDataType("character varying"))
	assert.Equal(t, ColNumeric, mapDataType("bigint"))
	assert.Equal(t, ColBool, mapDataType("boolean"))
	assert.Equal(t, ColTime, mapDataType("timestamp with time zone"))
	assert.Equal(t, ColUUID, mapDataType("uuid"))
	assert.Equal(t, ColJSON, mapDataType("jsonb"))
	assert.Equal(t, ColUnknown, mapDataType("bytea"))
}
