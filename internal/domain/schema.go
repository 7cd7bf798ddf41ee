package domain

import "docstore/internal/schema"

func id() schema.Property {
	return schema.Property{Name: "Id", Column: "id", PrimaryKey: true, Generated: true}
}

func col(name, column string) schema.Property {
	return schema.Property{Name: name, Column: column}
}

// NewRegistry declares every persisted kind. Property order must match the
// entity's Values().
func NewRegistry() (*schema.Registry, error) {
	r := schema.NewRegistry()
	decls := []struct {
		kind  string
		props []schema.Property
	}{
		{KindDocuments, []schema.Property{
			id(),
			col("Name", "name"),
			col("Version", "version"),
			col("MD5Hash", "md5_hash"),
			col("StorName", "stor_name"),
			col("Extension", "extension"),
			col("BusinessArea", "business_area"),
			col("BusinessAreaId", "business_area_id"),
			col("Lock.By", "lock_by"),
			col("Lock.At", "lock_at"),
			col("Lock.Expiration", "lock_expiration"),
			col("Archive.By", "archive_by"),
			col("Archive.At", "archive_at"),
			col("Created.By", "created_by"),
			col("Created.At", "created_at"),
			col("LastUpdate.By", "last_update_by"),
			col("LastUpdate.At", "last_update_at"),
			col("LastViewed", "last_viewed"),
		}},
		{KindDocumentVersions, []schema.Property{
			id(),
			col("DocumentId", "document_id"),
			col("Version", "version"),
			col("MD5Hash", "md5_hash"),
			col("StorName", "stor_name"),
			col("FileName", "file_name"),
			col("Created.By", "created_by"),
			col("Created.At", "created_at"),
		}},
		{KindCustomMetadata, []schema.Property{
			id(),
			col("DocumentId", "document_id"),
			col("Key", "key"),
			col("Value", "value"),
		}},
		{KindBusinessAreas, []schema.Property{
			id(),
			col("Name", "name"),
			col("Description", "description"),
		}},
		{KindGroups, []schema.Property{
			id(),
			col("Name", "name"),
		}},
		{KindAccessControls, []schema.Property{
			id(),
			col("GroupId", "group_id"),
			col("GroupName", "group_name"),
			col("BusinessAreaId", "business_area_id"),
			col("BusinessArea", "business_area"),
			col("CanRead", "can_read"),
			col("CanWrite", "can_write"),
			col("CanDelete", "can_delete"),
		}},
		{KindAccessLogs, []schema.Property{
			id(),
			col("DocumentId", "document_id"),
			col("Action", "action"),
			col("By", "by"),
			col("At", "at"),
		}},
		{KindAudits, []schema.Property{
			{Name: "Id", Column: "id", PrimaryKey: true},
			col("Kind", "kind"),
			col("Operation", "operation"),
			col("KeyValues", "key_values"),
			col("OldValues", "old_values"),
			col("NewValues", "new_values"),
			col("Timestamp", "timestamp"),
		}},
	}
	for _, d := range decls {
		if err := r.Register(d.kind, d.props...); err != nil {
			return nil, err
		}
	}
	return r, nil
}
