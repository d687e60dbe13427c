// Package release looks up published ServerCaptain releases on GitHub.
package release

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	gh "github.com/google/go-github/v60/github"
)

// Release is a published release of the tool.
type Release struct {
	Tag       string
	Name      string
	URL       string
	Published time.Time
	Assets    []Asset
}

// Asset is one downloadable file attached to a release.
type Asset struct {
	Name string
	URL  string
	Size int
}

// Client wraps the GitHub API for release lookups.
type Client struct {
	gh    *gh.Client
	owner string
	repo  string
}

// New creates a client for owner/repo. An empty token uses anonymous,
// rate-limited access.
func New(token, owner, repo string) *Client {
	c := gh.NewClient(&http.Client{Timeout: 30 * time.Second})
	if token != "" {
		c = c.WithAuthToken(token)
	}
	return newWithClient(c, owner, repo)
}

// newWithClient creates a Client with an injected GitHub client (for testing).
func newWithClient(ghClient *gh.Client, owner, repo string) *Client {
	return &Client{gh: ghClient, owner: owner, repo: repo}
}

// Latest returns the most recent non-draft, non-prerelease release.
func (c *Client) Latest(ctx context.Context) (*Release, error) {
	if c.owner == "" || c.repo == "" {
		return nil, fmt.Errorf("release repository not configured")
	}
	rel, _, err := c.gh.Repositories.GetLatestRelease(ctx, c.owner, c.repo)
	if err != nil {
		return nil, fmt.Errorf("getting latest release for %s/%s: %w", c.owner, c.repo, err)
	}

	out := &Release{
		Tag:       rel.GetTagName(),
		Name:      rel.GetName(),
		URL:       rel.GetHTMLURL(),
		Published: rel.GetPublishedAt().Time,
	}
	for _, a := range rel.Assets {
		out.Assets = append(out.Assets, Asset{
			Name: a.GetName(),
			URL:  a.GetBrowserDownloadURL(),
			Size: a.GetSize(),
		})
	}
	return out, nil
}

// AssetName is the file name a release uses for the given platform.
func AssetName(goos, goarch string) string {
	name := fmt.Sprintf("servercaptain-%s-%s", goos, goarch)
	if goos == "windows" {
		name += ".exe"
	}
	return name
}

// FindAsset returns the asset for goos/goarch, or an error listing the
// available names.
func (r *Release) FindAsset(goos, goarch string) (Asset, error) {
	expected := AssetName(goos, goarch)
	names := make([]string, 0, len(r.Assets))
	for _, a := range r.Assets {
		if a.Name == expected {
			return a, nil
		}
		names = append(names, a.Name)
	}
	return Asset{}, fmt.Errorf("no asset matching %q in %s; available assets: %s", expected, r.Tag, strings.Join(names, ", "))
}

// IsCurrent reports whether version names the same release as tag. The
// leading "v" is optional on either side.
func IsCurrent(version, tag string) bool {
	return strings.TrimPrefix(version, "v") == strings.TrimPrefix(tag, "v")
}
