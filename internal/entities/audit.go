package entities

import "time"

type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailed  AuditStatus = "failed"
)

// AuditAction names an auth event recorded in the audit trail.
type AuditAction string

const (
	AuditActionSessionLogin   AuditAction = "session_login"
	AuditActionSessionLogout  AuditAction = "session_logout"
	AuditActionSignup         AuditAction = "signup"
	AuditActionTokenLogin     AuditAction = "token_login"
	AuditActionTokenRefresh   AuditAction = "token_refresh"
	AuditActionSessionToToken AuditAction = "session_to_jwt"
	AuditActionPasswordChange AuditAction = "password_change"
	AuditActionAccountDelete  AuditAction = "account_delete"
)

type AuditEvent struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	UserID    string      `gorm:"index;size:36" json:"user_id,omitempty"`
	Username  string      `gorm:"size:30" json:"username,omitempty"`
	Action    AuditAction `gorm:"index;size:50" json:"action"`
	IPAddress string      `gorm:"size:45" json:"ip_address,omitempty"`
	UserAgent string      `gorm:"size:500" json:"user_agent,omitempty"`
	Status    AuditStatus `gorm:"size:20" json:"status"`
	ErrorMsg  string      `gorm:"size:500" json:"error_msg,omitempty"`
	CreatedAt time.Time   `gorm:"index" json:"created_at"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}
