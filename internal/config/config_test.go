package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/signalsfoundry/ransim/model"
)

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

const duYAML = `node_id: du-1
class: O-DU
cell_id: 7
max_ues: 50
transmit_power_dbm: 43.0
`

const ruYAML = `node_id: ru-1
class: O-RU
frequency_hz: 3.5e9
bandwidth_hz: 100e6
`

func TestLoadReadsValidConfigs(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "du-1.yaml", duYAML)
	writeConfig(t, dir, "ru-1.yaml", ruYAML)

	s := NewStore(dir, nil)
	if err := s.Load(); err != nil {
		t.Fatalf("Load error = %v", err)
	}

	cfg, err := s.Get("du-1")
	if err != nil {
		t.Fatalf("Get(du-1) error = %v", err)
	}
	if cfg.Class != model.ClassODU || cfg.CellID != 7 || cfg.MaxUEs != 50 {
		t.Fatalf("loaded config = %+v, want O-DU cell 7 max_ues 50", cfg)
	}
	if _, err := s.Get("ru-1"); err != nil {
		t.Fatalf("Get(ru-1) error = %v", err)
	}
}

func TestLoadSkipsInvalidFiles(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "good.yaml", duYAML)
	writeConfig(t, dir, "broken.yaml", "node_id: [unterminated\n")
	writeConfig(t, dir, "incomplete.yaml", "cell_id: 3\n") // missing node_id and class
	writeConfig(t, dir, "bad-values.yaml", "node_id: du-2\nclass: O-DU\nmax_ues: -5\n")

	s := NewStore(dir, nil)
	if err := s.Load(); err != nil {
		t.Fatalf("Load error = %v, bad files must not abort the load", err)
	}

	if _, err := s.Get("du-1"); err != nil {
		t.Fatalf("valid config not loaded: %v", err)
	}
	if _, err := s.Get("du-2"); !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("Get(du-2) error = %v, invalid config must be skipped", err)
	}
}

func TestGetUnknownNodeFails(t *testing.T) {
	s := NewStore(t.TempDir(), nil)
	if _, err := s.Get("ghost"); !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("Get(ghost) error = %v, want ErrConfigNotFound", err)
	}
}

func TestApplyPushesConfigIntoTarget(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "du-1.yaml", duYAML)

	s := NewStore(dir, nil)
	if err := s.Load(); err != nil {
		t.Fatalf("Load error = %v", err)
	}

	target := &recordingApplier{}
	if err := s.Apply(target, "du-1"); err != nil {
		t.Fatalf("Apply error = %v", err)
	}
	if len(target.applied) != 1 || target.applied[0].NodeID != "du-1" {
		t.Fatalf("applied = %+v, want one du-1 config", target.applied)
	}
}

func TestApplyAllContinuesPastMissingConfigs(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "du-1.yaml", duYAML)

	s := NewStore(dir, nil)
	if err := s.Load(); err != nil {
		t.Fatalf("Load error = %v", err)
	}

	known := &recordingApplier{}
	unknown := &recordingApplier{}
	s.ApplyAll(map[string]Applier{"du-1": known, "ghost": unknown})

	if len(known.applied) != 1 {
		t.Fatalf("known target got %d configs, want 1", len(known.applied))
	}
	if len(unknown.applied) != 0 {
		t.Fatalf("target without config got %d configs, want 0", len(unknown.applied))
	}
}

func TestRollbackRevertsToPreviousVersion(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "du-1.yaml", duYAML)

	s := NewStore(dir, nil)
	if err := s.Load(); err != nil {
		t.Fatalf("Load error = %v", err)
	}

	// Second version read via the reload path.
	writeConfig(t, dir, "du-1.yaml", "node_id: du-1\nclass: O-DU\ncell_id: 7\nmax_ues: 80\n")
	if err := s.loadFile(filepath.Join(dir, "du-1.yaml")); err != nil {
		t.Fatalf("reload error = %v", err)
	}

	cfg, _ := s.Get("du-1")
	if cfg.MaxUEs != 80 {
		t.Fatalf("MaxUEs = %d after reload, want 80", cfg.MaxUEs)
	}

	if err := s.Rollback("du-1", -1); err != nil {
		t.Fatalf("Rollback error = %v", err)
	}
	cfg, _ = s.Get("du-1")
	if cfg.MaxUEs != 50 {
		t.Fatalf("MaxUEs = %d after rollback, want 50", cfg.MaxUEs)
	}

	status, version, err := s.Status("du-1")
	if err != nil {
		t.Fatalf("Status error = %v", err)
	}
	if status != StatusRolledBack || version != 0 {
		t.Fatalf("status = %s v%d, want rolled_back v0", status, version)
	}
}

func TestRollbackWithoutHistoryFails(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "du-1.yaml", duYAML)

	s := NewStore(dir, nil)
	if err := s.Load(); err != nil {
		t.Fatalf("Load error = %v", err)
	}

	if err := s.Rollback("du-1", -1); !errors.Is(err, ErrNoHistory) {
		t.Fatalf("Rollback with single version error = %v, want ErrNoHistory", err)
	}
	if err := s.Rollback("du-1", 5); !errors.Is(err, ErrBadVersion) {
		t.Fatalf("Rollback to version 5 error = %v, want ErrBadVersion", err)
	}
	if err := s.Rollback("ghost", -1); !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("Rollback of unknown node error = %v, want ErrConfigNotFound", err)
	}
}

func TestCommitMarksCurrentVersion(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "du-1.yaml", duYAML)

	s := NewStore(dir, nil)
	if err := s.Load(); err != nil {
		t.Fatalf("Load error = %v", err)
	}

	if err := s.Commit("du-1"); err != nil {
		t.Fatalf("Commit error = %v", err)
	}
	status, _, err := s.Status("du-1")
	if err != nil {
		t.Fatalf("Status error = %v", err)
	}
	if status != StatusCommitted {
		t.Fatalf("status = %s after commit, want committed", status)
	}

	if err := s.Commit("ghost"); !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("Commit of unknown node error = %v, want ErrConfigNotFound", err)
	}
}

type recordingApplier struct {
	applied []model.NodeConfig
}

func (a *recordingApplier) ApplyConfig(cfg model.NodeConfig) {
	a.applied = append(a.applied, cfg)
}
