package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riyasyash/schemaorder/internal/db"
)

func TestCloneSurvivesSequencing(t *testing.T) {
	d := build(t,
		[]db.TableMeta{
			tableMeta("x", []string{"id"}, intCol("id"), intCol("y_id")),
			tableMeta("y", []string{"id"}, intCol("id"), intCol("x_id")),
			tableMeta("z", []string{"id"}, intCol("id"), intCol("x_id")),
		},
		fkRef("x_y_fk", "x", "y_id", "y", "id"),
		fkRef("y_x_fk", "y", "x_id", "x", "id"),
	)
	result := InferImplied(d, InferenceOptions{})
	require.Empty(t, result.Constraints)

	snapshot := d.Clone()
	ordering := Sequence(d)
	require.Len(t, ordering.Removed, 1)

	// The original has been consumed, the snapshot keeps every edge.
	assert.Equal(t, 0, d.Table(testSchema, "x").NumParents())
	assert.Len(t, snapshot.Constraints(), 2)

	x := snapshot.Table(testSchema, "x")
	y := snapshot.Table(testSchema, "y")
	assert.Equal(t, 1, x.NumParents())
	assert.Equal(t, 1, x.NumChildren())
	assert.Equal(t, 1, x.MaxParents())
	assert.Equal(t, 1, y.MaxChildren())
	assert.Same(t, y, x.Constraint("x_y_fk").ParentTable)
	assert.Same(t, y.Column("id"), x.Column("y_id").Parents()[0])
	assert.NotSame(t, d.Table(testSchema, "x"), x)
	assertSymmetric(t, snapshot)

	// Sequencing the snapshot yields the same result as the original run.
	again := Sequence(snapshot)
	assert.Equal(t, ordering.LoadOrder(), again.LoadOrder())
	require.Len(t, again.Removed, 1)
	assert.Equal(t, ordering.Removed[0].Name, again.Removed[0].Name)
}

func TestClonePreservesPrimaryKeysAndImpliedFlags(t *testing.T) {
	d := build(t, []db.TableMeta{
		tableMeta("customers", []string{"customer_id"}, intCol("customer_id")),
		tableMeta("orders", []string{"order_id"}, intCol("order_id"), intCol("customer_id")),
	})
	InferImplied(d, InferenceOptions{})

	snapshot := d.Clone()

	customers := snapshot.Table(testSchema, "customers")
	require.Len(t, customers.PrimaryKey(), 1)
	assert.Same(t, customers.Column("customer_id"), customers.PrimaryKey()[0])

	implied := snapshot.ImpliedConstraints()
	require.Len(t, implied, 1)
	assert.True(t, implied[0].Implied)
	assert.Same(t, snapshot.Table(testSchema, "orders"), implied[0].ChildTable)
}
