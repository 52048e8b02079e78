package sbom

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/go-github/v62/github"
	"golang.org/x/mod/module"
)

// UnknownLicenseName is reported when no license could be identified
const UnknownLicenseName = "Unknown"

// LicenseResolver finds the license of a module version
type LicenseResolver interface {
	License(ctx context.Context, modulePath, version string) string
}

// ModCacheResolver reads LICENSE files from the local module cache
type ModCacheResolver struct {
	Dir string
}

// NewModCacheResolver uses GOMODCACHE, then GOPATH/pkg/mod, then ~/go/pkg/mod
func NewModCacheResolver() *ModCacheResolver {
	if dir := os.Getenv("GOMODCACHE"); dir != "" {
		return &ModCacheResolver{Dir: dir}
	}
	if gopath := os.Getenv("GOPATH"); gopath != "" {
		return &ModCacheResolver{Dir: filepath.Join(filepath.SplitList(gopath)[0], "pkg", "mod")}
	}
	home, _ := os.UserHomeDir()
	return &ModCacheResolver{Dir: filepath.Join(home, "go", "pkg", "mod")}
}

var licenseFileNames = []string{"LICENSE", "LICENSE.md", "LICENSE.txt", "LICENCE", "COPYING", "License", "license"}

// License implements LicenseResolver
func (r *ModCacheResolver) License(_ context.Context, modulePath, version string) string {
	escPath, err := module.EscapePath(modulePath)
	if err != nil {
		return UnknownLicenseName
	}
	escVersion, err := module.EscapeVersion(version)
	if err != nil {
		return UnknownLicenseName
	}
	dir := filepath.Join(r.Dir, filepath.FromSlash(escPath)+"@"+escVersion)
	for _, name := range licenseFileNames {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err == nil {
			return DetectLicense(string(data))
		}
	}
	return UnknownLicenseName
}

// DetectLicense identifies common licenses from their text
func DetectLicense(text string) string {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "apache license") && strings.Contains(t, "version 2.0"):
		return "Apache-2.0"
	case strings.Contains(t, "mozilla public license") && strings.Contains(t, "2.0"):
		return "MPL-2.0"
	case strings.Contains(t, "gnu lesser general public license"):
		return "LGPL-3.0"
	case strings.Contains(t, "gnu affero general public license"):
		return "AGPL-3.0"
	case strings.Contains(t, "gnu general public license") && strings.Contains(t, "version 3"):
		return "GPL-3.0"
	case strings.Contains(t, "gnu general public license"):
		return "GPL-2.0"
	case strings.Contains(t, "permission is hereby granted, free of charge"):
		return "MIT"
	case strings.Contains(t, "permission to use, copy, modify, and/or distribute this software"),
		strings.Contains(t, "permission to use, copy, modify, and distribute this software for any purpose with or without fee"):
		return "ISC"
	case strings.Contains(t, "redistribution and use in source and binary forms"):
		if strings.Contains(t, "neither the name") || strings.Contains(t, "names of its contributors") {
			return "BSD-3-Clause"
		}
		return "BSD-2-Clause"
	case strings.Contains(t, "this is free and unencumbered software released into the public domain"):
		return "Unlicense"
	}
	return UnknownLicenseName
}

// GitHubResolver asks the GitHub API for the license of github.com modules
type GitHubResolver struct {
	client *github.Client
	mu     sync.Mutex
	cache  map[string]string
}

// NewGitHubResolver wraps a GitHub client
func NewGitHubResolver(client *github.Client) *GitHubResolver {
	return &GitHubResolver{client: client, cache: map[string]string{}}
}

// License implements LicenseResolver
func (r *GitHubResolver) License(ctx context.Context, modulePath, _ string) string {
	parts := strings.Split(modulePath, "/")
	if len(parts) < 3 || parts[0] != "github.com" {
		return UnknownLicenseName
	}
	key := parts[1] + "/" + parts[2]

	r.mu.Lock()
	if lic, ok := r.cache[key]; ok {
		r.mu.Unlock()
		return lic
	}
	r.mu.Unlock()

	lic := UnknownLicenseName
	rl, _, err := r.client.Repositories.License(ctx, parts[1], parts[2])
	if err == nil {
		if id := rl.GetLicense().GetSPDXID(); id != "" && id != "NOASSERTION" {
			lic = id
		}
	}

	r.mu.Lock()
	r.cache[key] = lic
	r.mu.Unlock()
	return lic
}

// ChainResolver returns the first known license from its resolvers
type ChainResolver []LicenseResolver

// License implements LicenseResolver
func (c ChainResolver) License(ctx context.Context, modulePath, version string) string {
	for _, r := range c {
		if lic := r.License(ctx, modulePath, version); lic != UnknownLicenseName {
			return lic
		}
	}
	return UnknownLicenseName
}
