package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/historyview/internal/storage"
	"github.com/runnerr0/historyview/internal/taxonomy"
)

const testApplyMapYAML = `domains:
  - domain: example.com
    primary: "#news"
    secondary: ["#daily", "#tutorials"]
  - domain: cleared.test
    primary: null
  - domain: deferred.test
    secondary: ["#misc"]
  - domain: missing.test
    primary: "#shopping"
`

func seedApplyMapStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	store, _ := testStore(t)
	ctx := context.Background()
	for _, d := range []string{"example.com", "cleared.test", "deferred.test"} {
		_, err := store.RecordVisit(ctx, storage.VisitRecord{Domain: d, Timestamp: "2024-06-01 11:00:00"})
		require.NoError(t, err)
		require.NoError(t, store.SetPrimaryCategory(ctx, d, "#old"))
	}
	require.NoError(t, store.AddSecondaryCategory(ctx, "example.com", "#stale"))
	return store
}

func loadTestOverrides(t *testing.T) taxonomy.Overrides {
	t.Helper()
	overrides, err := taxonomy.ParseOverrides([]byte(testApplyMapYAML))
	require.NoError(t, err)
	return overrides
}

func primaries(t *testing.T, store *storage.SQLiteStore) map[string]string {
	t.Helper()
	records, err := store.ListDomains(context.Background())
	require.NoError(t, err)
	out := map[string]string{}
	for _, r := range records {
		out[r.Domain] = r.PrimaryCategory
	}
	return out
}

func TestApplyMap_WritesCategories(t *testing.T) {
	store := seedApplyMapStore(t)
	cmd := &ApplyMapCommand{globals: &GlobalFlags{}}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithApplier(context.Background(), store, loadTestOverrides(t)))
	})
	assert.Contains(t, output,
		"Processed 4 domains (1 missing). Updated 3 domains. Secondary categories: 1 deleted, 3 inserted.")

	p := primaries(t, store)
	assert.Equal(t, "#news", p["example.com"])
	assert.Equal(t, "", p["cleared.test"])
	assert.Equal(t, "#old", p["deferred.test"])

	secondary, err := store.ListSecondaryCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"#daily", "#tutorials"}, secondary["example.com"])
	assert.Equal(t, []string{"#misc"}, secondary["deferred.test"])
	assert.NotContains(t, secondary, "missing.test")
}

func TestApplyMap_IsRepeatable(t *testing.T) {
	store := seedApplyMapStore(t)
	cmd := &ApplyMapCommand{globals: &GlobalFlags{}}
	overrides := loadTestOverrides(t)

	captureOutput(t, func() {
		require.NoError(t, cmd.executeWithApplier(context.Background(), store, overrides))
	})
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithApplier(context.Background(), store, overrides))
	})
	assert.Contains(t, output, "Secondary categories: 3 deleted, 3 inserted.")
}

func TestApplyMap_DryRunLeavesStoreAlone(t *testing.T) {
	store := seedApplyMapStore(t)
	applier, err := newDryApplier(context.Background(), store)
	require.NoError(t, err)

	cmd := &ApplyMapCommand{DryRun: true, globals: &GlobalFlags{JSON: true}}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithApplier(context.Background(), applier, loadTestOverrides(t)))
	})
	assert.Contains(t, output, `"dry_run": true`)
	assert.Contains(t, output, `"domains_missing": 1`)
	assert.Contains(t, output, `"domains_updated": 3`)
	assert.Contains(t, output, `"secondary_deleted": 1`)
	assert.Contains(t, output, `"secondary_inserted": 3`)

	p := primaries(t, store)
	assert.Equal(t, "#old", p["example.com"])
	assert.Equal(t, "#old", p["cleared.test"])
}
