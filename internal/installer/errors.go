package installer

import (
	"errors"
	"fmt"
)

// InstallError represents a failure surfaced by the rule installer.
//
// Installer errors include:
//   - Conflict: rule name exists bound to a different entity
//   - Drift: installed definition no longer matches its content hash
//
// Neither is auto-resolved: conflicts need a human decision, and silently
// overwriting a drifted rule could mask an intentional out-of-band change.
type InstallError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Rule identifies the affected rule.
	Rule string

	// Details contains additional context.
	Details map[string]string
}

// ErrorCode categorizes installer errors.
type ErrorCode string

const (
	// ErrCodeConflict indicates a name collision with an incompatible target entity.
	ErrCodeConflict ErrorCode = "INSTALLATION_CONFLICT"

	// ErrCodeDrift indicates the installed definition diverged from its declared hash.
	ErrCodeDrift ErrorCode = "DRIFT_DETECTED"
)

// Error implements the error interface.
func (e *InstallError) Error() string {
	if e.Rule != "" {
		return fmt.Sprintf("%s: %s (rule=%s)", e.Code, e.Message, e.Rule)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsConflict returns true if the error is an installation conflict.
// Uses errors.As to handle wrapped errors.
func IsConflict(err error) bool {
	var ie *InstallError
	if errors.As(err, &ie) {
		return ie.Code == ErrCodeConflict
	}
	return false
}

// IsDrift returns true if the error is a drift report.
func IsDrift(err error) bool {
	var ie *InstallError
	if errors.As(err, &ie) {
		return ie.Code == ErrCodeDrift
	}
	return false
}

// NewConflictError creates an InstallError for a target-entity collision.
func NewConflictError(ruleName, installedEntity, declaredEntity string) *InstallError {
	return &InstallError{
		Code:    ErrCodeConflict,
		Message: "rule name already bound to a different entity",
		Rule:    ruleName,
		Details: map[string]string{
			"installed_entity": installedEntity,
			"declared_entity":  declaredEntity,
		},
	}
}

// NewDriftError creates an InstallError for a hash mismatch.
func NewDriftError(ruleName, declaredHash, installedHash string) *InstallError {
	return &InstallError{
		Code:    ErrCodeDrift,
		Message: "installed definition does not match its content hash",
		Rule:    ruleName,
		Details: map[string]string{
			"declared_hash":  declaredHash,
			"installed_hash": installedHash,
		},
	}
}
