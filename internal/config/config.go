// Package config is the O1-style configuration collaborator: it loads
// validated per-node configurations from YAML files, keeps a version history
// per node, and hands the core a simple Get accessor. The core consumes
// configurations; it never validates them itself.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/ransim/internal/logging"
	"github.com/signalsfoundry/ransim/model"
)

var (
	// ErrConfigNotFound indicates no configuration exists for the node ID.
	ErrConfigNotFound = errors.New("configuration not found")
	// ErrNoHistory indicates the node has no earlier version to roll back to.
	ErrNoHistory = errors.New("no previous configuration version")
	// ErrBadVersion indicates the requested version is outside the history.
	ErrBadVersion = errors.New("invalid configuration version")
)

// Status tracks the lifecycle state of a node's current configuration.
type Status string

const (
	StatusApplied    Status = "applied"
	StatusRolledBack Status = "rolled_back"
	StatusCommitted  Status = "committed"
)

// Applier is anything that accepts a node configuration, typically a ran
// element.
type Applier interface {
	ApplyConfig(cfg model.NodeConfig)
}

// statusEntry pairs a node's lifecycle status with its active version index.
type statusEntry struct {
	status  Status
	version int
}

// Store loads, validates, and versions node configurations from a directory
// of YAML files, one or more node configs per run.
type Store struct {
	dir      string
	log      logging.Logger
	validate *validator.Validate

	mu      sync.RWMutex
	configs map[string]model.NodeConfig
	history map[string][]model.NodeConfig
	status  map[string]statusEntry
}

// NewStore constructs a store over the given config directory. Call Load to
// populate it.
func NewStore(dir string, log logging.Logger) *Store {
	if log == nil {
		log = logging.Noop()
	}
	return &Store{
		dir:      dir,
		log:      log,
		validate: validator.New(),
		configs:  make(map[string]model.NodeConfig),
		history:  make(map[string][]model.NodeConfig),
		status:   make(map[string]statusEntry),
	}
}

// Load reads every *.yaml file in the store's directory. Files that fail to
// parse or validate are reported and skipped; they never abort the load.
func (s *Store) Load() error {
	paths, err := filepath.Glob(filepath.Join(s.dir, "*.yaml"))
	if err != nil {
		return fmt.Errorf("scan config dir %q: %w", s.dir, err)
	}

	ctx := context.Background()
	for _, path := range paths {
		if err := s.loadFile(path); err != nil {
			s.log.Error(ctx, "config file skipped",
				logging.String("path", path),
				logging.Err(err))
		}
	}
	return nil
}

func (s *Store) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var cfg model.NodeConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	if err := s.validate.Struct(cfg); err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	s.put(cfg)
	return nil
}

// put stores cfg as the node's current configuration and appends it to the
// node's history.
func (s *Store) put(cfg model.NodeConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.configs[cfg.NodeID] = cfg
	s.history[cfg.NodeID] = append(s.history[cfg.NodeID], cfg)
	s.status[cfg.NodeID] = statusEntry{
		status:  StatusApplied,
		version: len(s.history[cfg.NodeID]) - 1,
	}
}

// Get returns the current configuration for a node.
func (s *Store) Get(nodeID string) (model.NodeConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, ok := s.configs[nodeID]
	if !ok {
		return model.NodeConfig{}, fmt.Errorf("node %q: %w", nodeID, ErrConfigNotFound)
	}
	return cfg, nil
}

// Status returns the lifecycle status and active version for a node.
func (s *Store) Status(nodeID string) (Status, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.status[nodeID]
	if !ok {
		return "", 0, fmt.Errorf("node %q: %w", nodeID, ErrConfigNotFound)
	}
	return entry.status, entry.version, nil
}

// Apply pushes the node's current configuration into target.
func (s *Store) Apply(target Applier, nodeID string) error {
	cfg, err := s.Get(nodeID)
	if err != nil {
		return err
	}
	target.ApplyConfig(cfg)
	s.log.Info(context.Background(), "config applied",
		logging.String("node_id", nodeID))
	return nil
}

// ApplyAll pushes configurations into every node in the map that has one.
// Per-node failures are reported and do not block the others.
func (s *Store) ApplyAll(targets map[string]Applier) {
	ctx := context.Background()
	for nodeID, target := range targets {
		if err := s.Apply(target, nodeID); err != nil {
			s.log.Error(ctx, "config apply failed",
				logging.String("node_id", nodeID),
				logging.Err(err))
		}
	}
}

// Rollback reverts a node to an earlier configuration version. A negative
// version means the immediately preceding one.
func (s *Store) Rollback(nodeID string, version int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.history[nodeID]
	if !ok {
		return fmt.Errorf("node %q: %w", nodeID, ErrConfigNotFound)
	}
	if version < 0 {
		if len(history) < 2 {
			return fmt.Errorf("node %q: %w", nodeID, ErrNoHistory)
		}
		version = len(history) - 2
	}
	if version >= len(history) {
		return fmt.Errorf("node %q version %d: %w", nodeID, version, ErrBadVersion)
	}

	s.configs[nodeID] = history[version]
	s.status[nodeID] = statusEntry{status: StatusRolledBack, version: version}
	s.log.Info(context.Background(), "config rolled back",
		logging.String("node_id", nodeID),
		logging.Int("version", version))
	return nil
}

// Commit marks a node's current configuration as committed.
func (s *Store) Commit(nodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.status[nodeID]
	if !ok {
		return fmt.Errorf("node %q: %w", nodeID, ErrConfigNotFound)
	}
	entry.status = StatusCommitted
	s.status[nodeID] = entry
	return nil
}
