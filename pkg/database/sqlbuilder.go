package database

import (
	"fmt"
	"strings"

	"github.com/huandu/go-sqlbuilder"
)

// InsertBuilder wraps the PostgreSQL insert builder with conflict handling
// for tables backed by uniqueness constraints.
type InsertBuilder struct {
	*sqlbuilder.InsertBuilder
}

func NewInsertBuilder() *InsertBuilder {
	return &InsertBuilder{
		sqlbuilder.PostgreSQL.NewInsertBuilder(),
	}
}

// OnConflictDoNothing makes the insert a no-op when the row would violate a
// uniqueness constraint on the given columns. With no columns it applies to
// any constraint.
func (b *InsertBuilder) OnConflictDoNothing(columns ...string) *InsertBuilder {
	if len(columns) == 0 {
		b.SQL("ON CONFLICT DO NOTHING")
		return b
	}
	b.SQL(fmt.Sprintf("ON CONFLICT (%s) DO NOTHING", strings.Join(columns, ", ")))
	return b
}

func (b *InsertBuilder) InsertInto(table string) *InsertBuilder {
	return &InsertBuilder{b.InsertBuilder.InsertInto(table)}
}

func (b *InsertBuilder) Cols(col ...string) *InsertBuilder {
	return &InsertBuilder{b.InsertBuilder.Cols(col...)}
}

func (b *InsertBuilder) Values(value ...interface{}) *InsertBuilder {
	return &InsertBuilder{b.InsertBuilder.Values(value...)}
}

func NewUpdateBuilder() *sqlbuilder.UpdateBuilder {
	return sqlbuilder.PostgreSQL.NewUpdateBuilder()
}

func NewDeleteBuilder() *sqlbuilder.DeleteBuilder {
	return sqlbuilder.PostgreSQL.NewDeleteBuilder()
}

func NewSelectBuilder() *sqlbuilder.SelectBuilder {
	return sqlbuilder.PostgreSQL.NewSelectBuilder()
}
