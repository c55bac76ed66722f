// Package interfaces documents the core abstractions used throughout the service.
//
// # Interface Categories
//
// ## Authentication Interfaces
//
//   - CredentialVerifier: Turns a username and password into a user
//     (internal/auth/verifier.go). Both authenticators accept any verifier,
//     so an alternative credential source plugs in without touching the
//     session or token code.
//
// ## Background Work Interfaces
//
//   - AuditEventCleaner: Deletes audit events past retention (internal/tasks/cleanup_audit.go)
//   - AuditCleanupEnqueuer: Queues a cleanup run (internal/scheduler/audit_cleanup.go)
//
// # Adding a New Credential Source
//
//  1. Implement CredentialVerifier in internal/auth/
//
//     type LDAPStrategy struct{ conn *ldap.Conn }
//
//     func (s *LDAPStrategy) Verify(ctx context.Context, username, password string) (*entities.User, error)
//
//     var _ CredentialVerifier = (*LDAPStrategy)(nil)
//
//  2. Pass it to NewSessionAuthenticator and NewJWTAuthenticator in entrypoint.go
//
//     Unknown usernames and wrong passwords must both return
//     auth.ErrInvalidCredentials.
//
// # Adding a New Database Domain
//
//  1. Create sub-package: internal/database/<domain>/
//
//  2. Define repository:
//
//     type Repository struct { db *gorm.DB }
//
//     func NewRepository(db *gorm.DB) *Repository
//
//  3. Register the entity in database.NewDatabase's AutoMigrate call
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for the current set.
package interfaces
