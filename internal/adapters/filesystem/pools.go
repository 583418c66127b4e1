// Package filesystem contains filesystem-based adapter implementations.
package filesystem

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/google/renameio/v2"

	"github.com/example/harvest/internal/core/errs"
	"github.com/example/harvest/internal/core/identity"
	"github.com/example/harvest/internal/ports/secondary"
)

// DefaultUserAgentCount is how many user agents are generated when the pool file is empty.
const DefaultUserAgentCount = 1000

// PoolFiles implements secondary.PoolSource over newline-delimited text files.
type PoolFiles struct {
	proxyPath string
	uaPath    string
	seed      func() uint64
}

// NewPoolFiles creates a pool source for the given proxy and user agent files.
func NewPoolFiles(proxyPath, uaPath string) *PoolFiles {
	return &PoolFiles{proxyPath: proxyPath, uaPath: uaPath, seed: rand.Uint64}
}

// Proxies returns the proxy pool. The file must exist.
func (p *PoolFiles) Proxies(ctx context.Context) ([]string, error) {
	data, err := os.ReadFile(p.proxyPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errs.Configf(err, "proxy file %s not found", p.proxyPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read proxy file: %w", err)
	}
	lines, err := parseLines(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse proxy file %s: %w", p.proxyPath, err)
	}
	return lines, nil
}

// UserAgents returns the user agent pool. When the file is missing or empty
// it returns a freshly generated pool with generated set; saving it is left
// to the caller.
func (p *PoolFiles) UserAgents(ctx context.Context) ([]string, bool, error) {
	data, err := os.ReadFile(p.uaPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, false, fmt.Errorf("failed to read user agent file: %w", err)
	}
	agents, err := parseLines(data)
	if err != nil {
		return nil, false, fmt.Errorf("failed to parse user agent file %s: %w", p.uaPath, err)
	}
	if len(agents) > 0 {
		return agents, false, nil
	}
	return identity.GenerateUserAgents(DefaultUserAgentCount, p.seed()), true, nil
}

// WriteUserAgents replaces the file at path with agents, one per line.
// An empty path writes the configured user agent file.
func (p *PoolFiles) WriteUserAgents(ctx context.Context, path string, agents []string) error {
	if path == "" {
		path = p.uaPath
	}
	content := strings.Join(agents, "\n") + "\n"
	if err := renameio.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write user agent file: %w", err)
	}
	return nil
}

// parseLines splits a pool file, dropping blank lines and # comments.
func parseLines(data []byte) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Ensure PoolFiles implements the interface
var _ secondary.PoolSource = (*PoolFiles)(nil)
