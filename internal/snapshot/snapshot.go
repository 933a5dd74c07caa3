// Package snapshot loads account snapshots from YAML fixture files. It backs
// the CLI and serves as the rebalancer's snapshot source when no live fetcher
// is configured.
package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"frizo/collateral_engine/internal/margin"
	"frizo/collateral_engine/internal/rebalancer"
)

// File is the on-disk layout of a fixture.
type File struct {
	Accounts []AccountFixture `yaml:"accounts"`
}

// AccountFixture is one account in a fixture. A missing bank uses
// margin.DefaultBank; a present one must be complete.
type AccountFixture struct {
	ID      string               `yaml:"id"`
	Bank    *margin.Bank         `yaml:"bank,omitempty"`
	Account margin.LedgerAccount `yaml:"account"`
}

// Snapshot converts the fixture into a rebalancer account snapshot.
func (f AccountFixture) Snapshot() (rebalancer.AccountSnapshot, error) {
	if f.ID == "" {
		return rebalancer.AccountSnapshot{}, fmt.Errorf("account without id")
	}
	bank := margin.DefaultBank()
	if f.Bank != nil {
		bank = *f.Bank
	}
	if err := bank.Validate(); err != nil {
		return rebalancer.AccountSnapshot{}, fmt.Errorf("account %s: %w", f.ID, err)
	}
	return rebalancer.AccountSnapshot{ID: f.ID, Bank: bank, Account: f.Account}, nil
}

// Parse decodes a fixture document. Unknown keys are rejected.
func Parse(data []byte) ([]rebalancer.AccountSnapshot, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	accounts := make([]rebalancer.AccountSnapshot, 0, len(f.Accounts))
	for _, a := range f.Accounts {
		s, err := a.Snapshot()
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, s)
	}
	return accounts, nil
}

// LoadFile reads and parses one fixture file.
func LoadFile(path string) ([]rebalancer.AccountSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	accounts, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", path, err)
	}
	return accounts, nil
}

// DirSource reads every *.yaml and *.yml file in Dir on each call, in file
// name order.
type DirSource struct {
	Dir string
}

var _ rebalancer.SnapshotSource = DirSource{}

func (d DirSource) Accounts(ctx context.Context) ([]rebalancer.AccountSnapshot, error) {
	files, err := d.files()
	if err != nil {
		return nil, err
	}

	var accounts []rebalancer.AccountSnapshot
	seen := make(map[string]string)
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		loaded, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		for _, a := range loaded {
			if prev, ok := seen[a.ID]; ok {
				return nil, fmt.Errorf("account %s in both %s and %s", a.ID, prev, path)
			}
			seen[a.ID] = path
		}
		accounts = append(accounts, loaded...)
	}
	return accounts, nil
}

func (d DirSource) files() ([]string, error) {
	entries, err := os.ReadDir(d.Dir)
	if err != nil {
		return nil, fmt.Errorf("read snapshot dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yaml", ".yml":
			files = append(files, filepath.Join(d.Dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
