package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LockState records who holds an editing lock on a document. It is embedded in
// its owner and never tracked on its own.
type LockState struct {
	By         string     `json:"by,omitempty"`
	At         *time.Time `json:"at,omitempty"`
	Expiration *time.Time `json:"expiration,omitempty"`
}

// IsLocked reports whether the lock is held at the given instant.
func (l LockState) IsLocked(now time.Time) bool {
	if l.By == "" {
		return false
	}
	return l.Expiration == nil || now.Before(*l.Expiration)
}

// HeldBy reports whether user holds an unexpired lock.
func (l LockState) HeldBy(user string, now time.Time) bool {
	return l.IsLocked(now) && strings.EqualFold(l.By, user)
}

// ArchiveState records when and by whom a document was archived.
type ArchiveState struct {
	By string     `json:"by,omitempty"`
	At *time.Time `json:"at,omitempty"`
}

// IsArchived reports whether the owner is archived.
func (a ArchiveState) IsArchived() bool { return a.At != nil }

// UpdateState is creation / last-update bookkeeping.
type UpdateState struct {
	By string    `json:"by"`
	At time.Time `json:"at"`
}

// NewUpdateState stamps user at the given time.
func NewUpdateState(by string, at time.Time) UpdateState {
	return UpdateState{By: by, At: at.UTC()}
}

// Document is the metadata record of a stored file.
type Document struct {
	ID             int64        `json:"id"`
	Name           string       `json:"name"`
	Version        int          `json:"version"`
	MD5Hash        string       `json:"md5_hash"`
	StorName       string       `json:"stor_name"`
	Extension      string       `json:"extension"`
	BusinessArea   string       `json:"business_area"`
	BusinessAreaID int64        `json:"business_area_id"`
	Lock           LockState    `json:"lock"`
	Archive        ArchiveState `json:"archive"`
	Created        UpdateState  `json:"created"`
	LastUpdate     UpdateState  `json:"last_update"`
	LastViewed     time.Time    `json:"last_viewed"`
}

// FileName returns the user-facing file name.
func (d *Document) FileName() string {
	return fmt.Sprintf("%s.%s", d.Name, d.Extension)
}

// ServerFileName returns the blob key of the current version.
func (d *Document) ServerFileName() string {
	return ServerFileName(d.ID, d.Version, d.Name, d.Extension)
}

// ServerFileName builds the blob key of one document version.
func ServerFileName(id int64, version int, name, ext string) string {
	return fmt.Sprintf("%d.v%d.%s.%s", id, version, name, ext)
}

func (d *Document) Kind() string { return KindDocuments }

func (d *Document) Values() []any {
	return []any{
		d.ID, d.Name, d.Version, d.MD5Hash, d.StorName, d.Extension, d.BusinessArea, d.BusinessAreaID,
		d.Lock.By, d.Lock.At, d.Lock.Expiration,
		d.Archive.By, d.Archive.At,
		d.Created.By, d.Created.At,
		d.LastUpdate.By, d.LastUpdate.At,
		d.LastViewed,
	}
}

func (d *Document) SetGenerated(property string, value any) error {
	return assignID(d.Kind(), property, value, &d.ID)
}

// DocumentVersion is the immutable record of one uploaded revision.
type DocumentVersion struct {
	ID         int64       `json:"id"`
	DocumentID int64       `json:"document_id"`
	Version    int         `json:"version"`
	MD5Hash    string      `json:"md5_hash"`
	StorName   string      `json:"stor_name"`
	FileName   string      `json:"file_name"`
	Created    UpdateState `json:"created"`
}

func (v *DocumentVersion) Kind() string { return KindDocumentVersions }

func (v *DocumentVersion) Values() []any {
	return []any{v.ID, v.DocumentID, v.Version, v.MD5Hash, v.StorName, v.FileName, v.Created.By, v.Created.At}
}

func (v *DocumentVersion) SetGenerated(property string, value any) error {
	return assignID(v.Kind(), property, value, &v.ID)
}

// CustomMetadata is a free-form key/value pair attached to a document.
type CustomMetadata struct {
	ID         int64  `db:"id" json:"id"`
	DocumentID int64  `db:"document_id" json:"document_id"`
	Key        string `db:"key" json:"key"`
	Value      string `db:"value" json:"value"`
}

func (m *CustomMetadata) Kind() string { return KindCustomMetadata }

func (m *CustomMetadata) Values() []any {
	return []any{m.ID, m.DocumentID, m.Key, m.Value}
}

func (m *CustomMetadata) SetGenerated(property string, value any) error {
	return assignID(m.Kind(), property, value, &m.ID)
}

// BusinessArea partitions documents for access control.
type BusinessArea struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`
}

func (b *BusinessArea) Kind() string { return KindBusinessAreas }

func (b *BusinessArea) Values() []any { return []any{b.ID, b.Name, b.Description} }

func (b *BusinessArea) SetGenerated(property string, value any) error {
	return assignID(b.Kind(), property, value, &b.ID)
}

// Group is a directory group that access-control entries refer to.
type Group struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

func (g *Group) Kind() string { return KindGroups }

func (g *Group) Values() []any { return []any{g.ID, g.Name} }

func (g *Group) SetGenerated(property string, value any) error {
	return assignID(g.Kind(), property, value, &g.ID)
}

// AccessControl grants a group permissions within a business area.
type AccessControl struct {
	ID             int64  `db:"id" json:"id"`
	GroupID        int64  `db:"group_id" json:"group_id"`
	GroupName      string `db:"group_name" json:"group_name"`
	BusinessAreaID int64  `db:"business_area_id" json:"business_area_id"`
	BusinessArea   string `db:"business_area" json:"business_area"`
	CanRead        bool   `db:"can_read" json:"can_read"`
	CanWrite       bool   `db:"can_write" json:"can_write"`
	CanDelete      bool   `db:"can_delete" json:"can_delete"`
}

// Allows reports whether the entry grants perm.
func (a *AccessControl) Allows(perm Permission) bool {
	switch perm {
	case PermissionRead:
		return a.CanRead
	case PermissionWrite:
		return a.CanWrite
	case PermissionDelete:
		return a.CanDelete
	}
	return false
}

func (a *AccessControl) Kind() string { return KindAccessControls }

func (a *AccessControl) Values() []any {
	return []any{a.ID, a.GroupID, a.GroupName, a.BusinessAreaID, a.BusinessArea, a.CanRead, a.CanWrite, a.CanDelete}
}

func (a *AccessControl) SetGenerated(property string, value any) error {
	return assignID(a.Kind(), property, value, &a.ID)
}

// AccessLog is an append-only record of a document being read.
type AccessLog struct {
	ID         int64        `db:"id" json:"id"`
	DocumentID int64        `db:"document_id" json:"document_id"`
	Action     AccessAction `db:"action" json:"action"`
	By         string       `db:"by" json:"by"`
	At         time.Time    `db:"at" json:"at"`
}

func (l *AccessLog) Kind() string { return KindAccessLogs }

func (l *AccessLog) Values() []any {
	return []any{l.ID, l.DocumentID, string(l.Action), l.By, l.At}
}

func (l *AccessLog) SetGenerated(property string, value any) error {
	return assignID(l.Kind(), property, value, &l.ID)
}

// Audit is an immutable record of one entity mutation.
type Audit struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	Kind      string          `db:"kind" json:"kind"`
	Operation Operation       `db:"operation" json:"operation"`
	KeyValues json.RawMessage `db:"key_values" json:"key_values"`
	OldValues json.RawMessage `db:"old_values" json:"old_values"`
	NewValues json.RawMessage `db:"new_values" json:"new_values"`
	Timestamp time.Time       `db:"timestamp" json:"timestamp"`
}

// AuditRecord adapts an Audit row to the entity contract so it can be written
// through a unit of work like any other kind.
type AuditRecord struct {
	*Audit
}

func (a AuditRecord) Kind() string { return KindAudits }

func (a AuditRecord) Values() []any {
	return []any{
		a.ID.String(), a.Audit.Kind, string(a.Operation),
		string(a.KeyValues), string(a.OldValues), string(a.NewValues), a.Timestamp,
	}
}

func (a AuditRecord) SetGenerated(property string, _ any) error {
	return fmt.Errorf("%s: property %q is not generated", KindAudits, property)
}

func assignID(kind, property string, value any, dst *int64) error {
	if property != "Id" {
		return fmt.Errorf("%s: property %q is not generated", kind, property)
	}
	switch v := value.(type) {
	case int64:
		*dst = v
	case int32:
		*dst = int64(v)
	case int:
		*dst = int64(v)
	default:
		return fmt.Errorf("%s: unexpected generated id type %T", kind, value)
	}
	return nil
}
