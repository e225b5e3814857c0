package certificate

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/CertFox/app/models"
	"github.com/ManuelReschke/CertFox/app/repository"
	"github.com/ManuelReschke/CertFox/internal/pkg/artifactstore"
	"github.com/ManuelReschke/CertFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/CertFox/internal/pkg/quota"
	"github.com/ManuelReschke/CertFox/internal/pkg/renderer"
	"github.com/ManuelReschke/CertFox/internal/pkg/testutil"
)

const tenantID = uint(1)

func tinyCatalog(trainings, perTraining int64) *entitlements.Catalog {
	return entitlements.NewCatalog("tiny", entitlements.Plan{
		ID:   "tiny",
		Name: "Tiny",
		Limits: entitlements.Limits{
			Trainings:               entitlements.Bounded(trainings),
			CertificatesPerTraining: entitlements.Bounded(perTraining),
			Designs:                 entitlements.Bounded(1),
			Assets:                  entitlements.Bounded(1),
			StorageMB:               entitlements.Bounded(1),
		},
		Features: entitlements.Features{SocialShare: true},
	})
}

func newTestService(t *testing.T, catalog *entitlements.Catalog, archive artifactstore.Store) (*Service, *repository.Repositories) {
	t.Helper()
	repos := repository.NewRepositories(testutil.NewTestDB(t))
	return NewService(repos, quota.NewResolver(repos, catalog), nil, archive), repos
}

func input(name, group string) IssueInput {
	return IssueInput{
		TenantID:      tenantID,
		RecipientName: name,
		ProgramName:   "Go Fundamentals",
		IssueDate:     time.Date(2026, time.May, 4, 15, 30, 0, 0, time.UTC),
		GroupName:     group,
		Design:        models.JSON(`{"objects":[{"type":"textbox","text":"Ada"}]}`),
	}
}

func limitOf(t *testing.T, err error) string {
	t.Helper()
	var le *quota.LimitError
	require.True(t, errors.As(err, &le), "expected LimitError, got %v", err)
	return le.Limit
}

func TestIssueValidation(t *testing.T) {
	svc, repos := newTestService(t, tinyCatalog(1, 3), nil)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*IssueInput)
	}{
		{name: "missing recipient", mutate: func(in *IssueInput) { in.RecipientName = "  " }},
		{name: "missing program", mutate: func(in *IssueInput) { in.ProgramName = "" }},
		{name: "missing date", mutate: func(in *IssueInput) { in.IssueDate = time.Time{} }},
		{name: "bad email", mutate: func(in *IssueInput) { in.RecipientEmail = "not-an-email" }},
		{name: "bad orientation", mutate: func(in *IssueInput) { in.Orientation = "diagonal" }},
		{name: "bad design", mutate: func(in *IssueInput) { in.Design = models.JSON(`{"objects":`) }},
		{name: "bad preset id", mutate: func(in *IssueInput) { in.ID = "cert-1" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := input("Ada", "")
			tt.mutate(&in)
			_, err := svc.Issue(ctx, in)
			var verr *ValidationError
			assert.True(t, errors.As(err, &verr), "got %v", err)
		})
	}

	count, err := repos.Certificate.CountByTenant(ctx, tenantID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestIssueCertificatesPerTrainingCap(t *testing.T) {
	svc, repos := newTestService(t, tinyCatalog(5, 3), nil)
	ctx := context.Background()

	for _, name := range []string{"Ada", "Grace", "Linus"} {
		cert, err := svc.Issue(ctx, input(name, "go-101"))
		require.NoError(t, err)
		assert.Equal(t, models.CertificateStatusValid, cert.Status)
		assert.Len(t, cert.ShareToken, 43)
		assert.Equal(t, time.Date(2026, time.May, 4, 0, 0, 0, 0, time.UTC), cert.IssueDate)
	}

	_, err := svc.Issue(ctx, input("Ken", "go-101"))
	assert.Equal(t, quota.LimitCertificatesPerTraining, limitOf(t, err))

	count, err := repos.Certificate.CountByTenant(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestIssueNewTrainingCap(t *testing.T) {
	svc, _ := newTestService(t, tinyCatalog(1, 10), nil)
	ctx := context.Background()

	_, err := svc.Issue(ctx, input("Ada", "existing"))
	require.NoError(t, err)

	_, err = svc.Issue(ctx, input("Grace", "existing"))
	assert.NoError(t, err)

	_, err = svc.Issue(ctx, input("Linus", "brand-new"))
	assert.Equal(t, quota.LimitTrainings, limitOf(t, err))
}

// foldingCertificates compares group names case-insensitively, like a _ci collation.
type foldingCertificates struct {
	repository.CertificateRepository
}

func (f foldingCertificates) CountByTraining(ctx context.Context, tenantID uint) (map[string]int64, error) {
	exact, err := f.CertificateRepository.CountByTraining(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	folded := map[string]int64{}
	for group, n := range exact {
		folded[strings.ToLower(group)] += n
	}
	return folded, nil
}

func (f foldingCertificates) CountTrainings(ctx context.Context, tenantID uint) (int64, error) {
	groups, err := f.CountByTraining(ctx, tenantID)
	return int64(len(groups)), err
}

func (f foldingCertificates) CountInTraining(ctx context.Context, tenantID uint, groupName string) (int64, error) {
	exact, err := f.CertificateRepository.CountByTraining(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	var n int64
	for group, c := range exact {
		if strings.EqualFold(group, groupName) {
			n += c
		}
	}
	return n, nil
}

func TestIssuePerTrainingCapIgnoresCaseVariants(t *testing.T) {
	svc, repos := newTestService(t, tinyCatalog(5, 3), nil)
	repos.Certificate = foldingCertificates{CertificateRepository: repos.Certificate}
	ctx := context.Background()

	for _, name := range []string{"Ada", "Grace", "Linus"} {
		_, err := svc.Issue(ctx, input(name, "Go 2026"))
		require.NoError(t, err)
	}

	_, err := svc.Issue(ctx, input("Ken", "go 2026"))
	assert.Equal(t, quota.LimitCertificatesPerTraining, limitOf(t, err))

	count, err := repos.Certificate.CountByTenant(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestIssueWithoutGroupUsesProgram(t *testing.T) {
	svc, _ := newTestService(t, tinyCatalog(1, 10), nil)

	cert, err := svc.Issue(context.Background(), input("Ada", ""))
	require.NoError(t, err)
	assert.Equal(t, "Go Fundamentals", cert.GroupName)
}

func TestConcurrentIssueDoesNotOvershoot(t *testing.T) {
	svc, repos := newTestService(t, tinyCatalog(1, 3), nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var issued, rejected int
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Issue(ctx, input("Ada", "go-101"))
			mu.Lock()
			defer mu.Unlock()
			var le *quota.LimitError
			switch {
			case err == nil:
				issued++
			case errors.As(err, &le):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, issued)
	assert.Equal(t, 7, rejected)
	count, err := repos.Certificate.CountByTenant(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestRevokeIsIdempotent(t *testing.T) {
	svc, _ := newTestService(t, tinyCatalog(1, 3), nil)
	ctx := context.Background()

	cert, err := svc.Issue(ctx, input("Ada", ""))
	require.NoError(t, err)

	first, err := svc.Revoke(ctx, tenantID, cert.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CertificateStatusRevoked, first.Status)

	second, err := svc.Revoke(ctx, tenantID, cert.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CertificateStatusRevoked, second.Status)

	_, err = svc.Revoke(ctx, tenantID, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Revoke(ctx, tenantID+1, cert.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEditKeepsStatusAndToken(t *testing.T) {
	svc, repos := newTestService(t, tinyCatalog(1, 1), nil)
	ctx := context.Background()

	cert, err := svc.Issue(ctx, input("Ada", "go-101"))
	require.NoError(t, err)
	_, err = svc.Revoke(ctx, tenantID, cert.ID)
	require.NoError(t, err)

	name := "Ada Lovelace"
	program := "Advanced Go"
	date := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	edited, err := svc.Edit(ctx, tenantID, cert.ID, EditInput{RecipientName: &name, ProgramName: &program, IssueDate: &date})
	require.NoError(t, err)
	assert.Equal(t, name, edited.RecipientName)

	stored, err := repos.Certificate.GetByID(ctx, cert.ID)
	require.NoError(t, err)
	assert.Equal(t, name, stored.RecipientName)
	assert.Equal(t, program, stored.ProgramName)
	assert.Equal(t, "2026-06-01", stored.IssueDate.Format("2006-01-02"))
	assert.Equal(t, models.CertificateStatusRevoked, stored.Status)
	assert.Equal(t, cert.ShareToken, stored.ShareToken)
	assert.Equal(t, "go-101", stored.GroupName)

	blank := " "
	_, err = svc.Edit(ctx, tenantID, cert.ID, EditInput{RecipientName: &blank})
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))

	_, err = svc.Edit(ctx, tenantID, "missing", EditInput{RecipientName: &name})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	svc, _ := newTestService(t, tinyCatalog(1, 3), nil)
	ctx := context.Background()

	cert, err := svc.Issue(ctx, input("Ada", ""))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, tenantID, cert.ID))
	assert.ErrorIs(t, svc.Delete(ctx, tenantID, cert.ID), ErrNotFound)

	_, err = svc.Get(ctx, cert.ID, cert.ShareToken)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVisibilityRoundTrip(t *testing.T) {
	svc, repos := newTestService(t, tinyCatalog(1, 3), nil)
	ctx := context.Background()

	require.NoError(t, repos.Tenant.Create(ctx, &models.Tenant{
		ID: tenantID, Name: "Acme", Email: "acme@example.com", Password: "x",
		CompanyName: "Acme Academy", LogoURL: "https://cdn.example.com/acme.png",
	}))
	in := input("Ada", "")
	in.RecipientEmail = "ada@example.com"
	in.PreviewImage = "data:image/png;base64,AAAA"
	cert, err := svc.Issue(ctx, in)
	require.NoError(t, err)

	owner, err := svc.Get(ctx, cert.ID, cert.ShareToken)
	require.NoError(t, err)
	assert.Equal(t, AccessOwner, owner.Level())
	ov, ok := owner.(*OwnerView)
	require.True(t, ok)
	assert.Equal(t, "Acme Academy", ov.Issuer.CompanyName)
	assert.Equal(t, "tiny", ov.Issuer.PlanID)
	assert.True(t, ov.Issuer.Features.SocialShare)

	raw, err := json.Marshal(owner)
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Contains(t, doc, "design")
	assert.Contains(t, doc, "preview_image")
	assert.Equal(t, "owner", doc["access_level"])

	for _, token := range []string{"", "wrong", cert.ShareToken[:10]} {
		view, err := svc.Get(ctx, cert.ID, token)
		require.NoError(t, err)
		assert.Equal(t, AccessPublic, view.Level())
		_, isPublic := view.(*PublicView)
		assert.True(t, isPublic)

		raw, err := json.Marshal(view)
		require.NoError(t, err)
		var doc map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &doc))
		assert.NotContains(t, doc, "design")
		assert.NotContains(t, doc, "preview_image")
		assert.NotContains(t, doc, "recipient_email")
		assert.Equal(t, "public", doc["access_level"])
		assert.Equal(t, "Ada", doc["recipient_name"])
	}
}

func TestListIncludesShareToken(t *testing.T) {
	svc, _ := newTestService(t, tinyCatalog(2, 3), nil)
	ctx := context.Background()

	a, err := svc.Issue(ctx, input("Ada", "one"))
	require.NoError(t, err)
	_, err = svc.Issue(ctx, input("Grace", "two"))
	require.NoError(t, err)

	items, err := svc.List(ctx, tenantID, "one", 0, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, a.ID, items[0].ID)
	assert.Equal(t, a.ShareToken, items[0].ShareToken)
	assert.True(t, items[0].Design.IsEmpty())

	all, err := svc.List(ctx, tenantID, "", 0, 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestIssueArchivesPreview(t *testing.T) {
	dir := t.TempDir()
	svc, _ := newTestService(t, tinyCatalog(1, 3), artifactstore.NewLocalStore(dir))
	ctx := context.Background()

	in := input("Ada", "")
	in.Preview = &renderer.Artifact{Data: []byte("png-bytes"), ContentType: "image/png"}
	cert, err := svc.Issue(ctx, in)
	require.NoError(t, err)
	require.NotEmpty(t, cert.PreviewKey)
	assert.Equal(t, "data:image/png;base64,cG5nLWJ5dGVz", cert.PreviewImage)

	data, err := os.ReadFile(filepath.Join(dir, cert.PreviewKey))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, svc.Delete(ctx, tenantID, cert.ID))
	_, err = os.Stat(filepath.Join(dir, cert.PreviewKey))
	assert.True(t, os.IsNotExist(err))
}
