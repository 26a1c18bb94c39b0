// Package runtime provides a context type that holds the repository and
// logger for use throughout the application. This avoids passing
// multiple parameters.
package runtime

import (
	"os"
	"path/filepath"

	"github.com/tomasreimers/sapling/internal/config"
	"github.com/tomasreimers/sapling/internal/git"
	"github.com/tomasreimers/sapling/internal/output"
)

// Context provides access to the repository and output for commands
type Context struct {
	Repo     *git.Repository
	Splog    *output.Splog
	RepoRoot string
}

// GetContext opens the repository containing the current directory and
// sets up logging. File logging goes to .git/sapling.log unless
// SAPLING_LOG_FILE overrides the location.
func GetContext() (*Context, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	repo, err := git.Open(wd)
	if err != nil {
		return nil, err
	}

	logFile := os.Getenv("SAPLING_LOG_FILE")
	if logFile == "" {
		logFile = filepath.Join(repo.Root(), ".git", "sapling.log")
	}
	splog, err := output.NewSplogWithConfig(logFile)
	if err != nil {
		return nil, err
	}

	return &Context{
		Repo:     repo,
		Splog:    splog,
		RepoRoot: repo.Root(),
	}, nil
}

// Trunk returns the configured trunk branch name
func (c *Context) Trunk() (string, error) {
	return config.GetTrunk(c.RepoRoot)
}

// ExportLimits returns the effective export limits from config and
// environment
func (c *Context) ExportLimits() (config.ExportLimits, error) {
	return config.GetExportLimits(c.RepoRoot)
}
