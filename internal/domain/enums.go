package domain

// Kind names of every persisted entity; they double as table names.
const (
	KindDocuments        = "documents"
	KindDocumentVersions = "document_versions"
	KindCustomMetadata   = "custom_metadata"
	KindBusinessAreas    = "business_areas"
	KindGroups           = "groups"
	KindAccessControls   = "access_controls"
	KindAccessLogs       = "access_logs"
	KindAudits           = "audits"
)

// Operation is the mutation recorded by an audit row.
type Operation string

const (
	OperationInsert Operation = "Insert"
	OperationUpdate Operation = "Update"
	OperationDelete Operation = "Delete"
)

// Valid reports whether o is a known operation.
func (o Operation) Valid() bool {
	switch o {
	case OperationInsert, OperationUpdate, OperationDelete:
		return true
	}
	return false
}

// Permission is a right granted by an access-control entry.
type Permission string

const (
	PermissionRead   Permission = "read"
	PermissionWrite  Permission = "write"
	PermissionDelete Permission = "delete"
)

// UserRole is the application role carried in a bearer token.
type UserRole string

const (
	RoleUser    UserRole = "user"
	RoleAdmin   UserRole = "admin"
	RoleAuditor UserRole = "auditor"
)

// AccessAction is the kind of document access recorded in the access log.
type AccessAction string

const (
	AccessView     AccessAction = "view"
	AccessDownload AccessAction = "download"
)
