package system

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/huanfeng/mia-cli/pkg/client/mocks"
	"github.com/huanfeng/mia-cli/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestCheckDiskSpace(t *testing.T) {
	dir := t.TempDir()

	usage, err := CheckDiskSpace(dir, 1)
	require.NoError(t, err)
	assert.Equal(t, dir, usage.Path)
	assert.NotZero(t, usage.Total)
	assert.LessOrEqual(t, usage.Available, usage.Total)
	assert.GreaterOrEqual(t, usage.UsedPercent(), 0.0)

	usage, err = CheckDiskSpace(dir, 1<<62)
	assert.ErrorIs(t, err, ErrLowDiskSpace)
	assert.NotNil(t, usage)
}

func TestDiskUsageString(t *testing.T) {
	usage := &DiskUsage{Total: 1000, Free: 250, Available: 200}
	assert.Equal(t, uint64(750), usage.Used())
	assert.Equal(t, "200 B available of 1.0 kB (75.0% used)", usage.String())
	assert.Zero(t, (&DiskUsage{}).UsedPercent())
}

func TestCheckWritable(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, CheckWritable(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	assert.ErrorIs(t, CheckWritable(filepath.Join(dir, "missing")), ErrNotWritable)

	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	assert.ErrorIs(t, CheckWritable(file), ErrNotWritable)
}

func TestProbeRepositories(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockFetcher(ctrl)

	repos := []*models.Repository{
		{ID: "up", URL: "https://example.com/repo"},
		nil,
		{ID: "down", URL: "https://example.com/down/"},
	}

	gomock.InOrder(
		fetcher.EXPECT().Fetch(gomock.Any(), "https://example.com/repo/index.xml").
			Return(io.NopCloser(strings.NewReader("<fdroid/>")), int64(9), nil),
		fetcher.EXPECT().Fetch(gomock.Any(), "https://example.com/down/index.xml").
			Return(nil, int64(0), errors.New("HTTP 404")),
	)

	results := ProbeRepositories(context.Background(), fetcher, repos, time.Second)
	require.Len(t, results, 2)
	assert.True(t, results[0].Reachable())
	assert.Equal(t, "up", results[0].ID)
	assert.False(t, results[1].Reachable())
	assert.EqualError(t, results[1].Err, "HTTP 404")
}
