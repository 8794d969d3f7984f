package runs_test

import (
	"context"
	"testing"

	"github.com/Veraticus/gradebook/internal/testutil"
	"github.com/Veraticus/gradebook/internal/testutil/runs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderSeedsRegistry(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	seeded := runs.NewBuilder(t).
		WithRun("first", 0.9).
		WithHistory(2).
		Build(ctx, db.Storage)

	assert.Equal(t, []string{"first", "run-002", "run-003"}, seeded.IDs())
	assert.InDelta(t, 0.9, seeded.MustFind(t, "first").Accuracy, 1e-9)
	assert.Nil(t, seeded.Find("missing"))

	latest, err := db.Storage.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-003", latest.ID)
}
