package library

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/CertFox/app/models"
	"github.com/ManuelReschke/CertFox/app/repository"
	"github.com/ManuelReschke/CertFox/internal/pkg/certificate"
	"github.com/ManuelReschke/CertFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/CertFox/internal/pkg/quota"
	"github.com/ManuelReschke/CertFox/internal/pkg/testutil"
)

const tenantID = uint(11)

func newTestService(t *testing.T) (*Service, *repository.Repositories) {
	t.Helper()
	repos := repository.NewRepositories(testutil.NewTestDB(t))
	catalog := entitlements.NewCatalog("lib", entitlements.Plan{
		ID:   "lib",
		Name: "Library",
		Limits: entitlements.Limits{
			Trainings:               entitlements.Bounded(1),
			CertificatesPerTraining: entitlements.Bounded(1),
			Designs:                 entitlements.Bounded(2),
			Assets:                  entitlements.Bounded(3),
			StorageMB:               entitlements.Bounded(1),
		},
	})
	return NewService(repos, quota.NewResolver(repos, catalog), nil), repos
}

func limitOf(t *testing.T, err error) string {
	t.Helper()
	var le *quota.LimitError
	require.True(t, errors.As(err, &le), "expected LimitError, got %v", err)
	return le.Limit
}

func design(name string) DesignInput {
	return DesignInput{Name: name, Document: models.JSON(`{"objects":[{"type":"textbox","text":"{{name}} / {{date}}"}]}`)}
}

func TestCreateDesignQuota(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// Templates never count against the tenant.
	_, err := svc.CreateTemplate(ctx, design("Shared"))
	require.NoError(t, err)

	for _, name := range []string{"One", "Two"} {
		d, err := svc.CreateDesign(ctx, tenantID, design(name))
		require.NoError(t, err)
		assert.Equal(t, models.OrientationLandscape, d.Orientation)
	}
	_, err = svc.CreateDesign(ctx, tenantID, design("Three"))
	assert.Equal(t, quota.LimitDesigns, limitOf(t, err))

	// Another tenant has its own allowance.
	_, err = svc.CreateDesign(ctx, tenantID+1, design("Theirs"))
	assert.NoError(t, err)

	list, err := svc.ListDesigns(ctx, tenantID)
	require.NoError(t, err)
	assert.Len(t, list, 3)
	assert.False(t, list[0].IsTemplate)
	assert.True(t, list[2].IsTemplate)
}

func TestCreateDesignValidation(t *testing.T) {
	svc, _ := newTestService(t)
	var verr *certificate.ValidationError

	_, err := svc.CreateDesign(context.Background(), tenantID, DesignInput{Name: "x"})
	assert.True(t, errors.As(err, &verr))
	_, err = svc.CreateDesign(context.Background(), tenantID, DesignInput{Name: " ", Document: models.JSON(`{}`)})
	assert.True(t, errors.As(err, &verr))
	_, err = svc.CreateDesign(context.Background(), tenantID, DesignInput{Name: "x", Document: models.JSON(`{}`), Orientation: "square"})
	assert.True(t, errors.As(err, &verr))
}

func TestGetAndDeleteDesign(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	own, err := svc.CreateDesign(ctx, tenantID, design("Mine"))
	require.NoError(t, err)
	tpl, err := svc.CreateTemplate(ctx, design("Shared"))
	require.NoError(t, err)
	foreign, err := svc.CreateDesign(ctx, tenantID+1, design("Theirs"))
	require.NoError(t, err)

	detail, err := svc.GetDesign(ctx, tenantID, own.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"{{name}}", "{{date}}"}, detail.Placeholders)

	_, err = svc.GetDesign(ctx, tenantID, tpl.ID)
	assert.NoError(t, err)
	_, err = svc.GetDesign(ctx, tenantID, foreign.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, svc.DeleteDesign(ctx, tenantID, tpl.ID), ErrNotFound)
	assert.ErrorIs(t, svc.DeleteDesign(ctx, tenantID, foreign.ID), ErrNotFound)
	require.NoError(t, svc.DeleteDesign(ctx, tenantID, own.ID))
	assert.ErrorIs(t, svc.DeleteDesign(ctx, tenantID, own.ID), ErrNotFound)
}

func TestCreateAssetQuota(t *testing.T) {
	svc, repos := newTestService(t)
	ctx := context.Background()
	owner := tenantID

	// 384 KiB of raw bytes encode to exactly 512 KiB of base64.
	half := base64.StdEncoding.EncodeToString(make([]byte, 384*1024))
	a, err := svc.CreateAsset(ctx, &owner, AssetInput{Name: "seal", Data: half})
	require.NoError(t, err)
	assert.Equal(t, int64(512*1024), a.SizeBytes)
	assert.Len(t, a.Data, 384*1024)
	assert.Equal(t, models.AssetTypeImage, a.Type)

	tooBig := base64.StdEncoding.EncodeToString(make([]byte, 384*1024+3))
	_, err = svc.CreateAsset(ctx, &owner, AssetInput{Name: "banner", Data: tooBig})
	assert.Equal(t, quota.LimitStorage, limitOf(t, err))

	_, err = svc.CreateAsset(ctx, &owner, AssetInput{Name: "banner", Data: half})
	require.NoError(t, err)

	small := "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte("<svg/>"))
	_, err = svc.CreateAsset(ctx, &owner, AssetInput{Name: "icon", Data: small})
	assert.Equal(t, quota.LimitStorage, limitOf(t, err))

	// Shared library uploads are not attributed and bypass quota.
	shared, err := svc.CreateAsset(ctx, nil, AssetInput{Name: "frame", Type: models.AssetTypeElement, Data: small})
	require.NoError(t, err)
	assert.Equal(t, "image/svg+xml", shared.ContentType)

	usage, err := repos.Asset.UsageByTenant(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), usage.Count)
	assert.Equal(t, int64(1024*1024), usage.Bytes)

	list, err := svc.ListAssets(ctx, tenantID, models.AssetTypeElement)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "frame", list[0].Name)
	assert.Empty(t, list[0].Data)
}

func TestAssetSizeIsEncodedLength(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	owner := tenantID

	raw := []byte("seal.png bytes")
	encoded := base64.StdEncoding.EncodeToString(raw)

	plain, err := svc.CreateAsset(ctx, &owner, AssetInput{Name: "plain", Data: encoded})
	require.NoError(t, err)
	assert.Equal(t, int64(len(encoded)), plain.SizeBytes)
	assert.Equal(t, raw, plain.Data)

	dataURL, err := svc.CreateAsset(ctx, &owner, AssetInput{Name: "url", Data: "data:image/png;base64," + encoded})
	require.NoError(t, err)
	assert.Equal(t, int64(len(encoded)), dataURL.SizeBytes)

	// 800000 raw bytes fit in 1 MB, their base64 form does not.
	nearLimit := base64.StdEncoding.EncodeToString(make([]byte, 800000))
	_, err = svc.CreateAsset(ctx, &owner, AssetInput{Name: "big", Data: nearLimit})
	assert.Equal(t, quota.LimitStorage, limitOf(t, err))
}

func TestCreateAssetCountLimit(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	owner := tenantID
	tiny := base64.StdEncoding.EncodeToString([]byte("png"))

	for i := 0; i < 3; i++ {
		_, err := svc.CreateAsset(ctx, &owner, AssetInput{Name: "a", Data: tiny})
		require.NoError(t, err)
	}
	_, err := svc.CreateAsset(ctx, &owner, AssetInput{Name: "a", Data: tiny})
	assert.Equal(t, quota.LimitAssets, limitOf(t, err))
}

func TestCreateAssetValidation(t *testing.T) {
	svc, _ := newTestService(t)
	owner := tenantID
	var verr *certificate.ValidationError

	for _, in := range []AssetInput{
		{Name: "x", Data: "%%%"},
		{Name: "x", Data: "data:image/png,raw"},
		{Name: "", Data: "AAAA"},
		{Name: "x", Data: "AAAA", Type: "video"},
	} {
		_, err := svc.CreateAsset(context.Background(), &owner, in)
		assert.True(t, errors.As(err, &verr), "%+v", in)
	}
}

func TestDeleteAsset(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	owner := tenantID
	other := tenantID + 1
	data := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("x", 10)))

	mine, err := svc.CreateAsset(ctx, &owner, AssetInput{Name: "mine", Data: data})
	require.NoError(t, err)
	theirs, err := svc.CreateAsset(ctx, &other, AssetInput{Name: "theirs", Data: data})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteAsset(ctx, tenantID, theirs.ID), ErrNotFound)
	require.NoError(t, svc.DeleteAsset(ctx, tenantID, mine.ID))
	assert.ErrorIs(t, svc.DeleteAsset(ctx, tenantID, mine.ID), ErrNotFound)
}
