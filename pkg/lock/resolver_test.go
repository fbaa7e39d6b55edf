package lock

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/huanfeng/mia-cli/pkg/client/mocks"
	"github.com/huanfeng/mia-cli/pkg/models"
	"github.com/huanfeng/mia-cli/pkg/repo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// fakeIndexes serves parsed indexes by repository id and counts lookups
type fakeIndexes struct {
	docs  map[string]string
	calls map[string]int
	err   error
}

func newFakeIndexes(docs map[string]string) *fakeIndexes {
	return &fakeIndexes{docs: docs, calls: make(map[string]int)}
}

func (f *fakeIndexes) Index(_ context.Context, repository *models.Repository) (*repo.Index, error) {
	f.calls[repository.ID]++
	if f.err != nil {
		return nil, f.err
	}
	return repo.ParseIndex([]byte(f.docs[repository.ID]))
}

const mainIndex = `<fdroid>
  <application id="org.example.one">
    <name>One</name>
    <package><versioncode>5</versioncode><apkname>one-5.apk</apkname><hash type="sha256">aaaa</hash></package>
    <package><versioncode>7</versioncode><apkname>one-7.apk</apkname></package>
    <package><versioncode>4</versioncode><apkname>one-4.apk</apkname></package>
  </application>
</fdroid>`

const extraIndex = `<fdroid>
  <application id="org.example.app">
    <name>Example App</name>
    <package><versioncode>3</versioncode><apkname>app-3.apk</apkname></package>
  </application>
  <application id="org.example.one">
    <name>One (archive)</name>
    <package><versioncode>2</versioncode><apkname>one-2.apk</apkname></package>
  </application>
</fdroid>`

func exampleRepos() map[string]*models.Repository {
	return map[string]*models.Repository{
		"main":  {ID: "main", Name: "Main", URL: "https://repo.example/main", Fallback: "extra"},
		"extra": {ID: "extra", Name: "Extra", URL: "https://repo.example/extra"},
	}
}

func resolve(t *testing.T, indexes IndexSource, apps []models.DesiredApp, forceLatest bool) (*Outcome, string) {
	t.Helper()
	var out bytes.Buffer
	outcome, err := NewResolver(indexes, &out).Resolve(context.Background(), apps, exampleRepos(), "main", forceLatest)
	require.NoError(t, err)
	return outcome, out.String()
}

func TestResolveExampleScenario(t *testing.T) {
	indexes := newFakeIndexes(map[string]string{"main": mainIndex, "extra": extraIndex})

	outcome, out := resolve(t, indexes, []models.DesiredApp{
		{Name: "org.example.app", Code: models.Latest()},
	}, false)

	want := []models.ResolvedApp{{
		Name:         "Example App",
		RepositoryID: "extra",
		PackageName:  "app-3.apk",
		PackageCode:  models.VersionCode(3),
		PackageURL:   "https://repo.example/extra/app-3.apk",
	}}
	if diff := cmp.Diff(want, outcome.Apps); diff != "" {
		t.Errorf("Resolve() mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, outcome.HasWarnings())
	assert.Equal(t, "Looking for APKs:\n - found `app-3.apk` in the Extra repository.\n", out)
}

func TestResolveLatestIsFirstInDocumentOrder(t *testing.T) {
	indexes := newFakeIndexes(map[string]string{"main": mainIndex, "extra": extraIndex})

	outcome, _ := resolve(t, indexes, []models.DesiredApp{{Name: "org.example.one"}}, false)

	require.Len(t, outcome.Apps, 1)
	assert.Equal(t, "one-5.apk", outcome.Apps[0].PackageName)
	assert.Equal(t, models.VersionCode(5), outcome.Apps[0].PackageCode)
	assert.Equal(t, "aaaa", outcome.Apps[0].PackageHash)
	assert.Equal(t, "main", outcome.Apps[0].RepositoryID)
	assert.Equal(t, 0, indexes.calls["extra"], "fallback consulted after a primary hit")
}

func TestResolvePinned(t *testing.T) {
	indexes := newFakeIndexes(map[string]string{"main": mainIndex, "extra": extraIndex})

	outcome, _ := resolve(t, indexes, []models.DesiredApp{
		{Name: "org.example.one", Code: models.Pinned(7)},
		{Name: "org.example.one", Code: models.Pinned(2)},
	}, false)

	require.Len(t, outcome.Apps, 2)
	assert.Equal(t, "one-7.apk", outcome.Apps[0].PackageName)
	assert.Equal(t, "main", outcome.Apps[0].RepositoryID)

	// the primary lists the app but not the code: the fallback supplies it
	assert.Equal(t, "one-2.apk", outcome.Apps[1].PackageName)
	assert.Equal(t, "extra", outcome.Apps[1].RepositoryID)
	assert.Equal(t, "One (archive)", outcome.Apps[1].Name)
}

func TestResolvePinnedNeverDegradesToLatest(t *testing.T) {
	indexes := newFakeIndexes(map[string]string{"main": mainIndex, "extra": extraIndex})

	outcome, out := resolve(t, indexes, []models.DesiredApp{
		{Name: "org.example.one", Code: models.Pinned(99)},
	}, false)

	assert.Empty(t, outcome.Apps)
	require.Len(t, outcome.Warnings, 1)
	assert.Equal(t, Warning{Index: 0, Name: "org.example.one", Kind: PackageNotFound, Code: 99}, outcome.Warnings[0])
	assert.Contains(t, out, " - no package: org.example.one:99\n")
}

func TestResolveForceLatest(t *testing.T) {
	indexes := newFakeIndexes(map[string]string{"main": mainIndex, "extra": extraIndex})

	outcome, _ := resolve(t, indexes, []models.DesiredApp{
		{Name: "org.example.one", Code: models.Pinned(99)},
		{Name: "org.example.one", Code: models.Pinned(4)},
	}, true)

	require.Len(t, outcome.Apps, 2)
	assert.Equal(t, "one-5.apk", outcome.Apps[0].PackageName)
	assert.Equal(t, "one-5.apk", outcome.Apps[1].PackageName)
	assert.False(t, outcome.HasWarnings())
}

func TestResolveWarningsContinue(t *testing.T) {
	indexes := newFakeIndexes(map[string]string{"main": mainIndex, "extra": extraIndex})

	outcome, out := resolve(t, indexes, []models.DesiredApp{
		{Name: "org.example.missing"},
		{Name: "org.example.app"},
	}, false)

	require.Len(t, outcome.Apps, 1)
	assert.Equal(t, "app-3.apk", outcome.Apps[0].PackageName)

	require.Len(t, outcome.Warnings, 1)
	assert.Equal(t, Warning{Index: 0, Name: "org.example.missing", Kind: AppNotFound}, outcome.Warnings[0])
	assert.Contains(t, out, " - no such app: org.example.missing\n")
	assert.True(t, outcome.HasWarnings())
}

func TestResolveDirect(t *testing.T) {
	indexes := newFakeIndexes(nil)

	outcome, out := resolve(t, indexes, []models.DesiredApp{
		{URL: "https://host.example/files/tool-1.2.apk?dl=1", Path: "tools"},
		{URL: "https://host.example/other.apk", Name: "Other", Code: models.Pinned(1), Repo: "nowhere"},
	}, false)

	want := []models.ResolvedApp{
		{Name: "tool-1.2", PackageName: "tool-1.2.apk", PackageURL: "https://host.example/files/tool-1.2.apk?dl=1", Path: "tools"},
		{Name: "Other", PackageName: "other.apk", PackageURL: "https://host.example/other.apk"},
	}
	if diff := cmp.Diff(want, outcome.Apps); diff != "" {
		t.Errorf("Resolve() mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, indexes.calls)
	assert.Contains(t, out, " - adding `tool-1.2.apk`\n")
}

func TestResolveKeepsOrder(t *testing.T) {
	indexes := newFakeIndexes(map[string]string{"main": mainIndex, "extra": extraIndex})

	outcome, _ := resolve(t, indexes, []models.DesiredApp{
		{Name: "org.example.app"},
		{URL: "https://host.example/direct.apk"},
		{Name: "org.example.gone"},
		{Name: "org.example.one", Code: models.Pinned(4)},
	}, false)

	var names []string
	for _, app := range outcome.Apps {
		names = append(names, app.PackageName)
	}
	assert.Equal(t, []string{"app-3.apk", "direct.apk", "one-4.apk"}, names)
	require.Len(t, outcome.Warnings, 1)
	assert.Equal(t, 2, outcome.Warnings[0].Index)
}

func TestResolveExplicitRepository(t *testing.T) {
	indexes := newFakeIndexes(map[string]string{"main": mainIndex, "extra": extraIndex})

	outcome, _ := resolve(t, indexes, []models.DesiredApp{
		{Name: "org.example.one", Repo: "extra"},
	}, false)

	require.Len(t, outcome.Apps, 1)
	assert.Equal(t, "one-2.apk", outcome.Apps[0].PackageName)
	assert.Equal(t, 0, indexes.calls["main"])
}

func TestResolveNoFallbackWithoutDeclaration(t *testing.T) {
	indexes := newFakeIndexes(map[string]string{"main": mainIndex, "extra": extraIndex})

	// extra has no fallback, so main is never consulted
	outcome, _ := resolve(t, indexes, []models.DesiredApp{
		{Name: "org.example.one", Repo: "extra", Code: models.Pinned(5)},
	}, false)

	assert.Empty(t, outcome.Apps)
	require.Len(t, outcome.Warnings, 1)
	assert.Equal(t, PackageNotFound, outcome.Warnings[0].Kind)
	assert.Equal(t, 0, indexes.calls["main"])
}

func TestResolveFatalErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing default repository", func(t *testing.T) {
		indexes := newFakeIndexes(nil)
		_, err := NewResolver(indexes, nil).Resolve(ctx, []models.DesiredApp{{Name: "a"}}, exampleRepos(), "", false)
		assert.ErrorIs(t, err, ErrMissingDefaultRepository)
		assert.Empty(t, indexes.calls)
	})

	t.Run("unknown repository", func(t *testing.T) {
		indexes := newFakeIndexes(map[string]string{"main": mainIndex})
		_, err := NewResolver(indexes, nil).Resolve(ctx, []models.DesiredApp{
			{Name: "org.example.one"},
			{Name: "a", Repo: "nowhere"},
		}, exampleRepos(), "main", false)
		assert.ErrorIs(t, err, ErrUnknownRepository)
		assert.Empty(t, indexes.calls)
	})

	t.Run("unknown default repository", func(t *testing.T) {
		_, err := NewResolver(newFakeIndexes(nil), nil).Resolve(ctx, []models.DesiredApp{{Name: "a"}}, exampleRepos(), "nowhere", false)
		assert.ErrorIs(t, err, ErrUnknownRepository)
	})

	t.Run("unknown fallback", func(t *testing.T) {
		repos := map[string]*models.Repository{"main": {ID: "main", URL: "https://repo.example/main", Fallback: "gone"}}
		_, err := NewResolver(newFakeIndexes(nil), nil).Resolve(ctx, []models.DesiredApp{{Name: "a"}}, repos, "main", false)
		assert.ErrorIs(t, err, ErrUnknownRepository)
	})

	t.Run("index failure", func(t *testing.T) {
		indexes := newFakeIndexes(nil)
		indexes.err = errors.New("network down")
		_, err := NewResolver(indexes, nil).Resolve(ctx, []models.DesiredApp{{Name: "a"}}, exampleRepos(), "main", false)
		assert.ErrorIs(t, err, indexes.err)
	})

	t.Run("non integer version code", func(t *testing.T) {
		indexes := newFakeIndexes(map[string]string{
			"main": `<fdroid><application id="a"><package><versioncode>x</versioncode><apkname>a.apk</apkname></package></application></fdroid>`,
		})
		_, err := NewResolver(indexes, nil).Resolve(ctx, []models.DesiredApp{{Name: "a"}}, exampleRepos(), "main", false)
		assert.ErrorIs(t, err, repo.ErrInvalidIndex)
	})
}

func TestResolveEmptyList(t *testing.T) {
	outcome, _ := resolve(t, newFakeIndexes(nil), nil, false)
	assert.NotNil(t, outcome.Apps)
	assert.Empty(t, outcome.Apps)
	assert.False(t, outcome.HasWarnings())
}

func TestResolveWithStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockFetcher(ctrl)
	resources := t.TempDir()

	fetcher.EXPECT().Fetch(gomock.Any(), "https://repo.example/main/index.xml").
		Return(io.NopCloser(strings.NewReader(mainIndex)), int64(len(mainIndex)), nil)
	fetcher.EXPECT().Fetch(gomock.Any(), "https://repo.example/extra/index.xml").
		Return(io.NopCloser(strings.NewReader(extraIndex)), int64(len(extraIndex)), nil)

	store := repo.NewStore(resources, fetcher, nil)
	outcome, err := NewResolver(store, nil).Resolve(context.Background(), []models.DesiredApp{
		{Name: "org.example.app"},
		{Name: "org.example.one", Code: models.Pinned(2)},
		{URL: "https://host.example/direct.apk"},
	}, exampleRepos(), "main", false)
	require.NoError(t, err)
	require.Len(t, outcome.Apps, 3)

	assert.FileExists(t, filepath.Join(resources, "main.index.xml"))
	assert.FileExists(t, filepath.Join(resources, "extra.index.xml"))
}

func TestResolveMissingDefaultCreatesNoCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockFetcher(ctrl)
	fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).Times(0)

	resources := t.TempDir()
	_, err := NewResolver(repo.NewStore(resources, fetcher, nil), nil).Resolve(context.Background(), []models.DesiredApp{{Name: "a"}}, exampleRepos(), "", false)
	assert.ErrorIs(t, err, ErrMissingDefaultRepository)

	entries, err := os.ReadDir(resources)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestJoinURL(t *testing.T) {
	tests := []struct {
		base, name, want string
	}{
		{"https://repo.example/extra", "app-3.apk", "https://repo.example/extra/app-3.apk"},
		{"https://repo.example/extra/", "app-3.apk", "https://repo.example/extra/app-3.apk"},
		{"https://f-droid.org/repo", "org.fdroid.fdroid_1.apk", "https://f-droid.org/repo/org.fdroid.fdroid_1.apk"},
		{"https://repo.example", "a.apk", "https://repo.example/a.apk"},
		{"https://repo.example/extra", "https://cdn.example/a.apk", "https://cdn.example/a.apk"},
	}

	for _, tt := range tests {
		got, err := JoinURL(tt.base, tt.name)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "JoinURL(%q, %q)", tt.base, tt.name)
	}

	_, err := JoinURL("://bad", "a.apk")
	assert.Error(t, err)
}
