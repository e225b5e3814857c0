package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/CertFox/app/models"
	"github.com/ManuelReschke/CertFox/app/repository"
	"github.com/ManuelReschke/CertFox/internal/pkg/testutil"
)

func newRepos(t *testing.T) *repository.Repositories {
	t.Helper()
	return repository.NewFactory(testutil.NewTestDB(t)).GetRepositories()
}

func cert(id, group string) *models.Certificate {
	return &models.Certificate{
		ID:            id,
		TenantID:      7,
		RecipientName: "Ada",
		ProgramName:   "Go",
		IssueDate:     time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		Status:        models.CertificateStatusValid,
		Orientation:   models.OrientationLandscape,
		GroupName:     group,
		ShareToken:    "token-" + id,
	}
}

func TestCertificateAggregates(t *testing.T) {
	ctx := context.Background()
	repos := newRepos(t)

	for i, group := range []string{"a", "a", "b", ""} {
		require.NoError(t, repos.Certificate.Create(ctx, cert(string(rune('1'+i)), group)))
	}

	total, err := repos.Certificate.CountByTenant(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)

	trainings, err := repos.Certificate.CountTrainings(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(2), trainings)

	perGroup, err := repos.Certificate.CountByTraining(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"a": 2, "b": 1}, perGroup)

	inA, err := repos.Certificate.CountInTraining(ctx, 7, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(2), inA)
	inMissing, err := repos.Certificate.CountInTraining(ctx, 7, "zzz")
	require.NoError(t, err)
	assert.Zero(t, inMissing)

	list, err := repos.Certificate.ListByTenant(ctx, 7, "a", 0, 10)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	other, err := repos.Certificate.CountByTenant(ctx, 8)
	require.NoError(t, err)
	assert.Zero(t, other)
}

func TestReplaceActiveSubscription(t *testing.T) {
	ctx := context.Background()
	repos := newRepos(t)

	require.NoError(t, repos.Subscription.ReplaceActive(ctx, &models.Subscription{TenantID: 1, PlanID: "free"}))
	require.NoError(t, repos.Subscription.ReplaceActive(ctx, &models.Subscription{TenantID: 1, PlanID: "starter"}))

	active, err := repos.Subscription.GetActiveByTenant(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "starter", active.PlanID)

	all, err := repos.Subscription.ListByTenant(ctx, 1)
	require.NoError(t, err)
	require.Len(t, all, 2)
	statuses := map[string]string{}
	for _, s := range all {
		statuses[s.PlanID] = s.Status
	}
	assert.Equal(t, models.SubscriptionStatusSuperseded, statuses["free"])
	assert.Equal(t, models.SubscriptionStatusActive, statuses["starter"])
}

func TestAssetUsage(t *testing.T) {
	ctx := context.Background()
	repos := newRepos(t)
	tenant := uint(3)

	require.NoError(t, repos.Asset.Create(ctx, &models.Asset{TenantID: &tenant, Name: "a", Type: models.AssetTypeImage, SizeBytes: 100}))
	require.NoError(t, repos.Asset.Create(ctx, &models.Asset{TenantID: &tenant, Name: "b", Type: models.AssetTypeImage, SizeBytes: 250}))
	require.NoError(t, repos.Asset.Create(ctx, &models.Asset{Name: "shared", Type: models.AssetTypeImage, SizeBytes: 999}))

	usage, err := repos.Asset.UsageByTenant(ctx, tenant)
	require.NoError(t, err)
	assert.Equal(t, int64(2), usage.Count)
	assert.Equal(t, int64(350), usage.Bytes)

	empty, err := repos.Asset.UsageByTenant(ctx, 99)
	require.NoError(t, err)
	assert.Zero(t, empty.Count)
	assert.Zero(t, empty.Bytes)
}

func TestFactoryReturnsSameRepositories(t *testing.T) {
	f := repository.NewFactory(testutil.NewTestDB(t))
	assert.Same(t, f.GetRepositories(), f.GetRepositories())
}
