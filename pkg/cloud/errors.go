package cloud

import (
	"fmt"

	"cloudkeep/janus/pkg/backup"
)

// DiscoveryError reports a failed discovery for a single strategy. One
// strategy failing does not affect others; the caller collects these and
// decides whether to proceed.
type DiscoveryError struct {
	Region   string
	Service  backup.Service
	Resource string
	Cause    error
}

// Error implements the error interface.
func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovery failed [region=%s, service=%s, resource=%s]: %v",
		e.Region, e.Service, e.Resource, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *DiscoveryError) Unwrap() error {
	return e.Cause
}

// NewDiscoveryError creates a new DiscoveryError.
func NewDiscoveryError(region string, service backup.Service, resource string, cause error) *DiscoveryError {
	return &DiscoveryError{
		Region:   region,
		Service:  service,
		Resource: resource,
		Cause:    cause,
	}
}

// MutationError reports a failed marker mutation for a single backup.
type MutationError struct {
	Identity backup.Identity
	Op       string // "add" or "remove"
	Cause    error
}

// Error implements the error interface.
func (e *MutationError) Error() string {
	return fmt.Sprintf("marker mutation failed [backup=%s, op=%s]: %v", e.Identity, e.Op, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *MutationError) Unwrap() error {
	return e.Cause
}

// NewMutationError creates a new MutationError.
func NewMutationError(id backup.Identity, op string, cause error) *MutationError {
	return &MutationError{Identity: id, Op: op, Cause: cause}
}
