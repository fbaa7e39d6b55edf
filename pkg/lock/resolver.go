// Package lock resolves the applications declared by a definition into
// concrete packages and persists them as the definition's lock file.
package lock

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/huanfeng/mia-cli/pkg/models"
	"github.com/huanfeng/mia-cli/pkg/repo"
)

var (
	// ErrMissingDefaultRepository is returned when defaults.repository_id is empty
	ErrMissingDefaultRepository = errors.New("missing default repository id")

	// ErrUnknownRepository is returned when an app or fallback names an undeclared repository
	ErrUnknownRepository = errors.New("unknown repository")
)

// IndexSource provides parsed repository indexes
type IndexSource interface {
	Index(ctx context.Context, repository *models.Repository) (*repo.Index, error)
}

// Resolver turns desired applications into resolved packages
type Resolver struct {
	Indexes IndexSource
	Out     io.Writer
}

// NewResolver creates a resolver reporting progress to out
func NewResolver(indexes IndexSource, out io.Writer) *Resolver {
	if out == nil {
		out = io.Discard
	}
	return &Resolver{Indexes: indexes, Out: out}
}

// Resolve resolves apps in order. Entries that cannot be resolved are left
// out of the outcome and reported as warnings; configuration and transport
// failures abort the whole resolution.
func (r *Resolver) Resolve(ctx context.Context, apps []models.DesiredApp, repos map[string]*models.Repository, defaultRepoID string, forceLatest bool) (*Outcome, error) {
	if strings.TrimSpace(defaultRepoID) == "" {
		return nil, ErrMissingDefaultRepository
	}

	// Reject undeclared repositories before touching the network
	for _, app := range apps {
		if app.IsDirect() {
			continue
		}
		if _, err := searchOrder(repositoryID(app, defaultRepoID), repos); err != nil {
			return nil, fmt.Errorf("app %s: %w", app.Name, err)
		}
	}

	log := clog.FromContext(ctx)
	outcome := &Outcome{Apps: []models.ResolvedApp{}}

	fmt.Fprintln(r.Out, "Looking for APKs:")
	for i, app := range apps {
		if app.IsDirect() {
			resolved := resolveDirect(app)
			fmt.Fprintf(r.Out, " - adding `%s`\n", resolved.PackageName)
			outcome.Apps = append(outcome.Apps, resolved)
			continue
		}

		target := effectiveTarget(app, forceLatest)
		resolved, err := r.lookup(ctx, app, target, repos, defaultRepoID)
		if err != nil {
			return nil, err
		}

		if resolved == nil {
			warning := Warning{Index: i, Name: app.Name, Kind: AppNotFound}
			if target != nil {
				warning.Kind = PackageNotFound
				warning.Code = *target
			}
			fmt.Fprintf(r.Out, " - %s\n", warning)
			log.Warn("unresolved app", "app", app.Name, "target", targetString(target))
			outcome.Warnings = append(outcome.Warnings, warning)
			continue
		}

		fmt.Fprintf(r.Out, " - found `%s` in the %s repository.\n", resolved.PackageName, repos[resolved.RepositoryID].DisplayName())
		outcome.Apps = append(outcome.Apps, *resolved)
	}

	return outcome, nil
}

// lookup searches the app's repository and its fallback; nil means not found
func (r *Resolver) lookup(ctx context.Context, app models.DesiredApp, target *int, repos map[string]*models.Repository, defaultRepoID string) (*models.ResolvedApp, error) {
	order, err := searchOrder(repositoryID(app, defaultRepoID), repos)
	if err != nil {
		return nil, err
	}

	for _, repository := range order {
		index, err := r.Indexes.Index(ctx, repository)
		if err != nil {
			return nil, err
		}

		application := index.Find(app.Name)
		if application == nil {
			continue
		}

		pkg, err := selectPackage(application, target)
		if err != nil {
			return nil, fmt.Errorf("repository %s: %w", repository.ID, err)
		}
		// A pinned code never degrades to latest; try the next repository
		if pkg == nil {
			continue
		}

		code, err := pkg.Code()
		if err != nil {
			return nil, fmt.Errorf("repository %s: %w", repository.ID, err)
		}

		packageURL, err := JoinURL(repository.URL, pkg.APKName)
		if err != nil {
			return nil, fmt.Errorf("repository %s: %w", repository.ID, err)
		}

		name := application.Name
		if name == "" {
			name = app.Name
		}

		return &models.ResolvedApp{
			Name:         name,
			RepositoryID: repository.ID,
			PackageName:  pkg.APKName,
			PackageCode:  models.VersionCode(code),
			PackageURL:   packageURL,
			PackageHash:  pkg.SHA256(),
			Path:         app.Path,
		}, nil
	}

	return nil, nil
}

// resolveDirect builds the descriptor of a direct URL entry
func resolveDirect(app models.DesiredApp) models.ResolvedApp {
	packageName := app.PackageName()

	name := app.Name
	if name == "" {
		name = strings.TrimSuffix(packageName, path.Ext(packageName))
	}

	return models.ResolvedApp{
		Name:        name,
		PackageName: packageName,
		PackageURL:  app.URL,
		Path:        app.Path,
	}
}

// effectiveTarget returns the pinned code, or nil for latest
func effectiveTarget(app models.DesiredApp, forceLatest bool) *int {
	if forceLatest || app.Code == nil || app.Code.Latest {
		return nil
	}
	code := app.Code.Code
	return &code
}

func targetString(target *int) string {
	if target == nil {
		return models.LatestVersion
	}
	return fmt.Sprint(*target)
}

// selectPackage picks the first package for latest, else the matching code
func selectPackage(application *repo.Application, target *int) (*repo.Package, error) {
	if target == nil {
		return application.Latest(), nil
	}
	return application.FindCode(*target)
}

func repositoryID(app models.DesiredApp, defaultRepoID string) string {
	if app.Repo != "" {
		return app.Repo
	}
	return defaultRepoID
}

// searchOrder returns the primary repository followed by its fallback, if any
func searchOrder(id string, repos map[string]*models.Repository) ([]*models.Repository, error) {
	primary, ok := repos[id]
	if !ok || primary == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRepository, id)
	}

	order := []*models.Repository{primary}
	if primary.Fallback != "" {
		fallback, ok := repos[primary.Fallback]
		if !ok || fallback == nil {
			return nil, fmt.Errorf("%w: %s (fallback of %s)", ErrUnknownRepository, primary.Fallback, id)
		}
		order = append(order, fallback)
	}
	return order, nil
}

// JoinURL resolves name against base, treating base as a directory
func JoinURL(base, name string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid repository url %q: %w", base, err)
	}
	if !strings.HasSuffix(baseURL.Path, "/") {
		baseURL.Path += "/"
		baseURL.RawPath = ""
	}

	ref, err := url.Parse(name)
	if err != nil {
		return "", fmt.Errorf("invalid package name %q: %w", name, err)
	}

	return baseURL.ResolveReference(ref).String(), nil
}
