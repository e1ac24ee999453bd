// Package version provides build version information and runtime metadata.
package version

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Name is the product name shown in the UI and CLI.
const Name = "ha-stats-fixer"

var (
	// These are set via ldflags at build time
	Version = ""
	Commit  = ""
	Date    = ""

	// execCommand is swapped in tests.
	execCommand = exec.CommandContext

	mu       sync.Mutex
	once     sync.Once
	ldflags  = [3]string{Version, Commit, Date}
	gitTimeout = 2 * time.Second
)

func ensureInitialized() {
	once.Do(func() {
		mu.Lock()
		defer mu.Unlock()
		if Date == "" {
			Date = time.Now().Format("2006-01-02")
		}
		if Commit == "" {
			Commit = getGitCommit()
		}
		if Version == "" {
			Version = getGitVersion()
		}
	})
}

// Reset restores the build-time values so the next access resolves again.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	Version, Commit, Date = ldflags[0], ldflags[1], ldflags[2]
	once = sync.Once{}
}

func git(args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), gitTimeout)
	defer cancel()

	cmd := execCommand(ctx, "git", args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.String()), nil
}

func getGitCommit() string {
	commit, err := git("describe", "--always", "--dirty")
	if err != nil || commit == "" {
		return "unknown"
	}
	return commit
}

func getGitVersion() string {
	v, err := git("describe", "--tags", "--abbrev=0")
	if err != nil || v == "" {
		return "dev"
	}
	return v
}

// GetVersion returns the release tag, or "dev" outside a tagged checkout.
func GetVersion() string {
	ensureInitialized()
	mu.Lock()
	defer mu.Unlock()
	return Version
}

// GetCommit returns the commit the binary was built from.
func GetCommit() string {
	ensureInitialized()
	mu.Lock()
	defer mu.Unlock()
	return Commit
}

// GetDate returns the build date.
func GetDate() string {
	ensureInitialized()
	mu.Lock()
	defer mu.Unlock()
	return Date
}

// Info returns a one-line description of the build.
func Info() string {
	return fmt.Sprintf("%s %s (commit: %s, built: %s, %s/%s)",
		Name, GetVersion(), GetCommit(), GetDate(), runtime.GOOS, runtime.GOARCH)
}
