package system

import (
	"context"
	"io"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/huanfeng/mia-cli/pkg/client"
	"github.com/huanfeng/mia-cli/pkg/models"
	"github.com/huanfeng/mia-cli/pkg/repo"
)

// RepositoryStatus is the result of probing the index of one repository
type RepositoryStatus struct {
	ID      string
	URL     string
	Latency time.Duration
	Err     error
}

// Reachable reports whether the index answered
func (s RepositoryStatus) Reachable() bool {
	return s.Err == nil
}

// ProbeRepositories requests the index of every repository, in order, and
// reports which of them answered. Only the response headers and the first
// bytes of the body are read.
func ProbeRepositories(ctx context.Context, fetcher client.Fetcher, repos []*models.Repository, timeout time.Duration) []RepositoryStatus {
	log := clog.FromContext(ctx)

	results := make([]RepositoryStatus, 0, len(repos))
	for _, repository := range repos {
		if repository == nil {
			continue
		}
		status := RepositoryStatus{ID: repository.ID, URL: repo.IndexURL(repository)}

		probeCtx, cancel := context.WithTimeout(ctx, timeout)
		start := time.Now()
		status.Err = probe(probeCtx, fetcher, status.URL)
		status.Latency = time.Since(start)
		cancel()

		log.Debug("probed repository", "repository", status.ID, "url", status.URL, "latency", status.Latency, "error", status.Err)
		results = append(results, status)
	}
	return results
}

func probe(ctx context.Context, fetcher client.Fetcher, url string) error {
	body, _, err := fetcher.Fetch(ctx, url)
	if err != nil {
		return err
	}
	defer body.Close()

	_, err = io.CopyN(io.Discard, body, 512)
	if err == io.EOF {
		return nil
	}
	return err
}
