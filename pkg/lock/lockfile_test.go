package lock

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/huanfeng/mia-cli/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nexus", FileName)

	lock := models.NewLockFile([]models.ResolvedApp{
		{Name: "Example App", RepositoryID: "extra", PackageName: "app-3.apk", PackageCode: models.VersionCode(3), PackageURL: "https://repo.example/extra/app-3.apk"},
		{Name: "tool", PackageName: "tool.apk", PackageURL: "https://host.example/tool.apk", Path: "tools"},
	})
	require.NoError(t, WriteFile(path, lock))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	want := `apps:
  - name: Example App
    repository_id: extra
    package_name: app-3.apk
    package_code: 3
    package_url: https://repo.example/extra/app-3.apk
  - name: tool
    package_name: tool.apk
    package_url: https://host.example/tool.apk
    path: tools
`
	assert.Equal(t, want, string(data))
}

func TestZeroVersionCodeIsKept(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)

	lock := models.NewLockFile([]models.ResolvedApp{
		{Name: "Zero", RepositoryID: "main", PackageName: "zero-0.apk", PackageCode: models.VersionCode(0), PackageURL: "https://repo.example/main/zero-0.apk"},
		{Name: "tool", PackageName: "tool.apk", PackageURL: "https://host.example/tool.apk"},
	})
	require.NoError(t, WriteFile(path, lock))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "    package_code: 0\n")
	assert.Equal(t, 1, strings.Count(string(data), "package_code"))

	read, err := ReadFile(path)
	require.NoError(t, err)
	apps := read.Groups[0].Apps

	code, ok := apps[0].Code()
	assert.True(t, ok)
	assert.Zero(t, code)

	_, ok = apps[1].Code()
	assert.False(t, ok)
}

func TestLockFileRoundTripKeepsOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)

	content := `zeta:
  - name: Z
    package_name: z.apk
    package_url: https://host.example/z.apk
apps:
  - name: B
    package_name: b.apk
    package_url: https://host.example/b.apk
  - name: A
    package_name: a.apk
    package_url: https://host.example/a.apk
empty: []
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	lock, err := ReadFile(path)
	require.NoError(t, err)

	var keys []string
	for _, group := range lock.Groups {
		keys = append(keys, group.Key)
	}
	assert.Equal(t, []string{"zeta", "apps", "empty"}, keys)
	assert.Equal(t, "B", lock.Groups[1].Apps[0].Name)
	assert.Equal(t, 3, lock.Count())

	require.NoError(t, WriteFile(path, lock))
	again, err := ReadFile(path)
	require.NoError(t, err)
	if diff := cmp.Diff(lock, again, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestReadFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadFile(filepath.Join(dir, FileName))
	assert.ErrorIs(t, err, ErrLockFileMissing)

	path := filepath.Join(dir, "list.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- name: a\n"), 0644))
	_, err = ReadFile(path)
	assert.ErrorIs(t, err, ErrInvalidLockFile)

	path = filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("apps: [\n"), 0644))
	_, err = ReadFile(path)
	assert.ErrorIs(t, err, ErrInvalidLockFile)
}

func TestReadFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, nil, 0644))

	lock, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 0, lock.Count())
}

type answer struct {
	ok       bool
	err      error
	question string
}

func (a *answer) Confirm(question string, defaultValue bool) (bool, error) {
	a.question = question
	if defaultValue {
		return false, errors.New("gate must default to no")
	}
	return a.ok, a.err
}

func TestGate(t *testing.T) {
	clean := &Outcome{}
	assert.NoError(t, clean.Gate(&answer{}))

	warned := &Outcome{Warnings: []Warning{{Name: "a"}}}

	yes := &answer{ok: true}
	assert.NoError(t, warned.Gate(yes))
	assert.True(t, strings.HasPrefix(yes.question, "Warnings found!"))

	err := warned.Gate(&answer{ok: false})
	assert.ErrorIs(t, err, ErrAborted)

	failure := errors.New("stdin closed")
	assert.ErrorIs(t, warned.Gate(&answer{err: failure}), failure)
}

func TestWarningString(t *testing.T) {
	assert.Equal(t, "no such app: org.example", Warning{Name: "org.example", Kind: AppNotFound}.String())
	assert.Equal(t, "no package: org.example:4", Warning{Name: "org.example", Kind: PackageNotFound, Code: 4}.String())
}

func TestSaveKeepsOtherGroups(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)

	require.NoError(t, Save(path, []models.ResolvedApp{{Name: "old", PackageName: "old.apk", PackageURL: "https://host.example/old.apk"}}))

	lock, err := ReadFile(path)
	require.NoError(t, err)
	lock.Groups = append([]models.LockGroup{{Key: "system", Apps: []models.ResolvedApp{
		{Name: "gapps", PackageName: "gapps.apk", PackageURL: "https://host.example/gapps.apk", Path: "system"},
	}}}, lock.Groups...)
	require.NoError(t, WriteFile(path, lock))

	require.NoError(t, Save(path, []models.ResolvedApp{{Name: "new", PackageName: "new.apk", PackageURL: "https://host.example/new.apk"}}))

	lock, err = ReadFile(path)
	require.NoError(t, err)
	require.Len(t, lock.Groups, 2)
	assert.Equal(t, "system", lock.Groups[0].Key)
	assert.Equal(t, "apps", lock.Groups[1].Key)
	require.Len(t, lock.Groups[1].Apps, 1)
	assert.Equal(t, "new", lock.Groups[1].Apps[0].Name)
}

func TestSaveRejectsInvalidLockFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("apps: [\n"), 0644))

	assert.ErrorIs(t, Save(path, nil), ErrInvalidLockFile)
}
