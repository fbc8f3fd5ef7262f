// Package github fetches schema documents out of GitHub repositories
// through the gh CLI, so private repositories work with the user's
// existing authentication.
package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"os/exec"
	"strings"
)

// GHClient wraps the gh CLI command for GitHub operations
type GHClient struct{}

// NewGHClient creates a new GitHub client
func NewGHClient() *GHClient {
	return &GHClient{}
}

// parseGitHubURL parses a github:// URL into its components
// Format: github://owner/repo/path/to/file[@ref]
func (c *GHClient) parseGitHubURL(githubURL string) (owner, repo, path, ref string, err error) {
	if !strings.HasPrefix(githubURL, "github://") {
		return "", "", "", "", fmt.Errorf("invalid GitHub URL format: %s", githubURL)
	}

	urlPath := strings.TrimPrefix(githubURL, "github://")

	// An optional @branch or @tag suffix selects the ref.
	parts := strings.Split(urlPath, "@")
	if len(parts) == 2 {
		urlPath = parts[0]
		ref = parts[1]
	}

	pathParts := strings.SplitN(urlPath, "/", 3)
	if len(pathParts) < 3 {
		return "", "", "", "", fmt.Errorf("invalid GitHub URL format: expected github://owner/repo/path/to/file")
	}

	owner = pathParts[0]
	repo = pathParts[1]
	path = pathParts[2]

	return owner, repo, path, ref, nil
}

// FetchFile retrieves a file from GitHub via the contents API. The API
// returns the body base64-encoded.
func (c *GHClient) FetchFile(ctx context.Context, githubURL string) ([]byte, error) {
	owner, repo, path, ref, err := c.parseGitHubURL(githubURL)
	if err != nil {
		return nil, err
	}

	if err := c.checkGHCommand(); err != nil {
		return nil, err
	}

	apiPath := fmt.Sprintf("repos/%s/%s/contents/%s", owner, repo, path)
	if ref != "" {
		apiPath += "?ref=" + ref
	}

	cmd := exec.CommandContext(ctx, "gh", "api", apiPath, "--jq", ".content")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return nil, fmt.Errorf("gh command failed: %s", stderr.String())
		}
		return nil, fmt.Errorf("gh command failed: %w", err)
	}

	encodedContent := strings.TrimSpace(stdout.String())
	if encodedContent == "" {
		return nil, fmt.Errorf("empty response from GitHub for %s", githubURL)
	}

	// The jq filter keeps embedded newlines in the base64 payload.
	encodedContent = strings.ReplaceAll(encodedContent, "\\n", "")
	content, err := base64.StdEncoding.DecodeString(encodedContent)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 content: %w", err)
	}

	return content, nil
}

// checkGHCommand verifies that the gh CLI is installed and authenticated
func (c *GHClient) checkGHCommand() error {
	cmd := exec.Command("gh", "auth", "status")

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if strings.Contains(stderr.String(), "not found") || strings.Contains(err.Error(), "executable file not found") {
			return fmt.Errorf("gh CLI is not installed. Please install it from https://cli.github.com/")
		}
		if strings.Contains(stderr.String(), "not logged in") {
			return fmt.Errorf("gh CLI is not authenticated. Please run 'gh auth login' first")
		}
		return fmt.Errorf("gh auth check failed: %s", stderr.String())
	}

	return nil
}

// IsGitHubURL checks if a URL uses the github:// scheme.
func IsGitHubURL(url string) bool {
	return strings.HasPrefix(url, "github://")
}

// LoadGitHubConfig fetches a configuration file from a github:// URL.
func LoadGitHubConfig(githubURL string) ([]byte, error) {
	if !IsGitHubURL(githubURL) {
		return nil, fmt.Errorf("not a GitHub URL: %s", githubURL)
	}

	client := NewGHClient()
	content, err := client.FetchFile(context.Background(), githubURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch config from GitHub: %w", err)
	}

	return content, nil
}
