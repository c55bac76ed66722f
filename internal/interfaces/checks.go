package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/watchthis/user-service/internal/audit"
	"github.com/watchthis/user-service/internal/auth"
	"github.com/watchthis/user-service/internal/scheduler"
	"github.com/watchthis/user-service/internal/tasks"
)

// =============================================================================
// Authentication
// =============================================================================

// CredentialVerifier implementations
var _ auth.CredentialVerifier = (*auth.LocalPasswordStrategy)(nil)

// =============================================================================
// Background Work
// =============================================================================

// AuditEventCleaner implementations
var _ tasks.AuditEventCleaner = (*audit.Service)(nil)

// AuditCleanupEnqueuer implementations
var _ scheduler.AuditCleanupEnqueuer = (*tasks.Client)(nil)
