package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInsertBuilder_OnConflictDoNothing(t *testing.T) {
	query, args := NewInsertBuilder().
		InsertInto("votes").
		Cols("id", "request_id", "voter_id", "reaction_type").
		Values("v1", "r1", "u1", "upvote").
		OnConflictDoNothing("request_id", "voter_id", "reaction_type").
		Build()

	assert.Equal(t, "INSERT INTO votes (id, request_id, voter_id, reaction_type) VALUES ($1, $2, $3, $4) ON CONFLICT (request_id, voter_id, reaction_type) DO NOTHING", query)
	assert.Equal(t, []interface{}{"v1", "r1", "u1", "upvote"}, args)
}

func TestInsertBuilder_OnConflictDoNothingWithoutColumns(t *testing.T) {
	query, _ := NewInsertBuilder().
		InsertInto("votes").
		Cols("id").
		Values("v1").
		OnConflictDoNothing().
		Build()

	assert.Equal(t, "INSERT INTO votes (id) VALUES ($1) ON CONFLICT DO NOTHING", query)
}
