// Package installer manages the lifecycle of capture rules: idempotent
// install, atomic upgrade, uninstall, and drift verification against the
// rules catalog.
//
// Every mutation of the catalog runs in one transaction under the store's
// schema-change lock, so two installers racing on the same rule name
// serialize rather than corrupt each other. Uninstalling a rule never
// touches previously emitted events.
package installer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/scribedb/scribe/internal/rule"
	"github.com/scribedb/scribe/internal/store"
)

// Status reports what Install did.
type Status string

const (
	// StatusInstalled means the rule was newly created.
	StatusInstalled Status = "installed"

	// StatusUnchanged means an identical rule was already installed (no-op).
	StatusUnchanged Status = "already-up-to-date"

	// StatusReplaced means an older definition was atomically replaced.
	StatusReplaced Status = "replaced"
)

// VerifyState reports the relation between a rule's installed definition and
// its content-hash annotation.
type VerifyState string

const (
	VerifyAbsent  VerifyState = "absent"
	VerifyMatches VerifyState = "matches"
	VerifyDrifted VerifyState = "drifted"
)

// Installer installs, upgrades, removes, and verifies capture rules.
type Installer struct {
	store *store.Store
	now   func() time.Time
}

// New creates an installer over the given store.
func New(s *store.Store) *Installer {
	return &Installer{store: s, now: time.Now}
}

// NewWithClock creates an installer with an injected clock for tests.
func NewWithClock(s *store.Store, now func() time.Time) *Installer {
	return &Installer{store: s, now: now}
}

// Install idempotently installs or upgrades one capture rule.
//
// Outcomes:
//   - rule absent: event table ensured, catalog row written → StatusInstalled
//   - identical rule installed (same content hash): no-op → StatusUnchanged
//   - same name, same entity, different hash: definition replaced atomically
//     within the transaction → StatusReplaced
//   - same name, different entity: InstallError with ErrCodeConflict; the
//     catalog is left untouched
//
// The event table is created with IF NOT EXISTS and shared by all rules on
// the same entity, so installation order across rules is immaterial.
func (i *Installer) Install(ctx context.Context, def rule.Definition) (Status, error) {
	if err := def.Validate(); err != nil {
		return "", fmt.Errorf("install: %w", err)
	}
	hash, err := rule.ContentHash(def)
	if err != nil {
		return "", fmt.Errorf("install: %w", err)
	}

	tx, err := i.store.BeginTx(ctx)
	if err != nil {
		return "", fmt.Errorf("install %q: begin tx: %w", def.Name, err)
	}
	defer tx.Rollback() // No-op if committed

	if err := i.store.Dialect().LockInstall(ctx, tx, def.Name); err != nil {
		return "", fmt.Errorf("install %q: %w", def.Name, err)
	}

	status := StatusInstalled
	existing, err := i.store.GetRule(ctx, tx, def.Name)
	switch {
	case errors.Is(err, store.ErrRuleNotFound):
		// First install.
	case err != nil:
		return "", fmt.Errorf("install %q: %w", def.Name, err)
	case existing.Entity != def.Entity.Name:
		return "", NewConflictError(def.Name, existing.Entity, def.Entity.Name)
	case existing.ContentHash == hash:
		return StatusUnchanged, tx.Commit()
	default:
		status = StatusReplaced
	}

	if _, err := tx.ExecContext(ctx, store.EventTableDDL(i.store.Dialect(), def)); err != nil {
		return "", fmt.Errorf("install %q: create event table: %w", def.Name, err)
	}

	installed := store.InstalledRule{
		Name:        def.Name,
		ContentHash: hash,
		Entity:      def.Entity.Name,
		Operation:   def.Operation,
		WatchSet:    def.Watch,
		Label:       def.EffectiveLabel(),
		Definition:  def,
		InstalledAt: i.now(),
	}
	if err := i.store.UpsertRule(ctx, tx, installed); err != nil {
		return "", fmt.Errorf("install %q: %w", def.Name, err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("install %q: commit: %w", def.Name, err)
	}
	return status, nil
}

// InstallAll installs a batch of definitions, stopping at the first failure.
// Returns the status per rule name for the rules that were processed.
func (i *Installer) InstallAll(ctx context.Context, defs []rule.Definition) (map[string]Status, error) {
	statuses := make(map[string]Status, len(defs))
	for _, def := range defs {
		st, err := i.Install(ctx, def)
		if err != nil {
			return statuses, err
		}
		statuses[def.Name] = st
	}
	return statuses, nil
}

// Uninstall removes a rule's catalog row, disarming its capture. Previously
// emitted events and the event table itself are left intact.
//
// Returns store.ErrRuleNotFound (wrapped) if the rule is not installed.
func (i *Installer) Uninstall(ctx context.Context, name string) error {
	tx, err := i.store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("uninstall %q: begin tx: %w", name, err)
	}
	defer tx.Rollback()

	if err := i.store.Dialect().LockInstall(ctx, tx, name); err != nil {
		return fmt.Errorf("uninstall %q: %w", name, err)
	}
	if err := i.store.DeleteRule(ctx, tx, name); err != nil {
		return fmt.Errorf("uninstall: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("uninstall %q: commit: %w", name, err)
	}
	return nil
}

// Verify checks one installed rule against its content-hash annotation.
//
// The installed definition is re-hashed and compared to the persisted hash;
// a mismatch means the catalog was edited out-of-band and is reported as
// VerifyDrifted, never repaired.
func (i *Installer) Verify(ctx context.Context, name string) (VerifyState, error) {
	installed, err := i.store.GetRule(ctx, i.store.DB(), name)
	if errors.Is(err, store.ErrRuleNotFound) {
		return VerifyAbsent, nil
	}
	if err != nil {
		return "", fmt.Errorf("verify %q: %w", name, err)
	}

	recomputed, err := rule.ContentHash(installed.Definition)
	if err != nil {
		return "", fmt.Errorf("verify %q: %w", name, err)
	}
	if recomputed != installed.ContentHash {
		return VerifyDrifted, nil
	}
	return VerifyMatches, nil
}

// VerifyAgainst additionally compares the installed rule to a declared
// definition, catching the case where the catalog is internally consistent
// but no longer matches what the caller's definition files declare.
func (i *Installer) VerifyAgainst(ctx context.Context, def rule.Definition) (VerifyState, error) {
	state, err := i.Verify(ctx, def.Name)
	if err != nil || state != VerifyMatches {
		return state, err
	}
	declared, err := rule.ContentHash(def)
	if err != nil {
		return "", fmt.Errorf("verify %q: %w", def.Name, err)
	}
	installed, err := i.store.GetRule(ctx, i.store.DB(), def.Name)
	if err != nil {
		return "", fmt.Errorf("verify %q: %w", def.Name, err)
	}
	if declared != installed.ContentHash {
		return VerifyDrifted, nil
	}
	return VerifyMatches, nil
}

// List returns all installed rules ordered by name.
func (i *Installer) List(ctx context.Context) ([]store.InstalledRule, error) {
	return i.store.ListRules(ctx, i.store.DB())
}
