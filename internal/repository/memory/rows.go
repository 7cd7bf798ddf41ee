package memory

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"docstore/internal/domain"
)

func (r Row) str(name string) string {
	s, _ := r[name].(string)
	return s
}

func (r Row) integer(name string) int64 {
	i, _ := r[name].(int64)
	return i
}

func (r Row) boolean(name string) bool {
	b, _ := r[name].(bool)
	return b
}

func (r Row) timestamp(name string) time.Time {
	t, _ := r[name].(time.Time)
	return t
}

func (r Row) timestampPtr(name string) *time.Time {
	t, ok := r[name].(time.Time)
	if !ok {
		return nil
	}
	return &t
}

func (r Row) document() domain.Document {
	return domain.Document{
		ID:             r.integer("Id"),
		Name:           r.str("Name"),
		Version:        int(r.integer("Version")),
		MD5Hash:        r.str("MD5Hash"),
		StorName:       r.str("StorName"),
		Extension:      r.str("Extension"),
		BusinessArea:   r.str("BusinessArea"),
		BusinessAreaID: r.integer("BusinessAreaId"),
		Lock: domain.LockState{
			By:         r.str("Lock.By"),
			At:         r.timestampPtr("Lock.At"),
			Expiration: r.timestampPtr("Lock.Expiration"),
		},
		Archive:    domain.ArchiveState{By: r.str("Archive.By"), At: r.timestampPtr("Archive.At")},
		Created:    domain.UpdateState{By: r.str("Created.By"), At: r.timestamp("Created.At")},
		LastUpdate: domain.UpdateState{By: r.str("LastUpdate.By"), At: r.timestamp("LastUpdate.At")},
		LastViewed: r.timestamp("LastViewed"),
	}
}

func (r Row) documentVersion() domain.DocumentVersion {
	return domain.DocumentVersion{
		ID:         r.integer("Id"),
		DocumentID: r.integer("DocumentId"),
		Version:    int(r.integer("Version")),
		MD5Hash:    r.str("MD5Hash"),
		StorName:   r.str("StorName"),
		FileName:   r.str("FileName"),
		Created:    domain.UpdateState{By: r.str("Created.By"), At: r.timestamp("Created.At")},
	}
}

func (r Row) customMetadata() domain.CustomMetadata {
	return domain.CustomMetadata{
		ID:         r.integer("Id"),
		DocumentID: r.integer("DocumentId"),
		Key:        r.str("Key"),
		Value:      r.str("Value"),
	}
}

func (r Row) businessArea() domain.BusinessArea {
	return domain.BusinessArea{ID: r.integer("Id"), Name: r.str("Name"), Description: r.str("Description")}
}

func (r Row) group() domain.Group {
	return domain.Group{ID: r.integer("Id"), Name: r.str("Name")}
}

func (r Row) accessControl() domain.AccessControl {
	return domain.AccessControl{
		ID:             r.integer("Id"),
		GroupID:        r.integer("GroupId"),
		GroupName:      r.str("GroupName"),
		BusinessAreaID: r.integer("BusinessAreaId"),
		BusinessArea:   r.str("BusinessArea"),
		CanRead:        r.boolean("CanRead"),
		CanWrite:       r.boolean("CanWrite"),
		CanDelete:      r.boolean("CanDelete"),
	}
}

func (r Row) accessLog() domain.AccessLog {
	return domain.AccessLog{
		ID:         r.integer("Id"),
		DocumentID: r.integer("DocumentId"),
		Action:     domain.AccessAction(r.str("Action")),
		By:         r.str("By"),
		At:         r.timestamp("At"),
	}
}

func (r Row) audit() domain.Audit {
	id, _ := uuid.Parse(r.str("Id"))
	return domain.Audit{
		ID:        id,
		Kind:      r.str("Kind"),
		Operation: domain.Operation(r.str("Operation")),
		KeyValues: json.RawMessage(r.str("KeyValues")),
		OldValues: json.RawMessage(r.str("OldValues")),
		NewValues: json.RawMessage(r.str("NewValues")),
		Timestamp: r.timestamp("Timestamp"),
	}
}
