package domain

import "time"

// AuditEventKind classifies audit events emitted by the login service.
type AuditEventKind string

const (
	AuditLoginModesFetch   AuditEventKind = "LOGIN_MODES_FETCH"
	AuditUserDetailFetch   AuditEventKind = "USER_DETAIL_FETCH"
	AuditCenterDetailFetch AuditEventKind = "CENTER_DETAIL_FETCH"
	AuditScreenAuthFetch   AuditEventKind = "SCREEN_AUTH_FETCH"
	AuditLoginParamsUpdate AuditEventKind = "LOGIN_PARAMS_UPDATE"
	AuditUserLockout       AuditEventKind = "USER_LOCKOUT"
	AuditPacketUpload      AuditEventKind = "PACKET_UPLOAD"
)

// AuditComponent tags the subsystem an audit event originated from.
type AuditComponent string

const (
	ComponentLoginService   AuditComponent = "REG_LOGIN_SERVICE"
	ComponentPacketUploader AuditComponent = "REG_PACKET_UPLOADER"
)

// AuditEvent is the best-effort notification emitted alongside the primary
// decision. Delivery failures never alter the primary result.
type AuditEvent struct {
	EventID   string
	Kind      AuditEventKind
	Component AuditComponent
	ActorID   string
	Detail    string
	At        time.Time
}
