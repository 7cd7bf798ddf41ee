package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"docstore/internal/domain"
	"docstore/internal/port"
)

// DocumentServiceConfig holds document handling settings.
type DocumentServiceConfig struct {
	// StorName is recorded on every document and version.
	StorName      string
	LockDuration  time.Duration
	MaxFileSize   int64 // bytes, 0 means unlimited
	PresignExpiry time.Duration
}

// CreateDocumentInput is the DTO for uploading a new document.
type CreateDocumentInput struct {
	Actor          Actor
	Name           string
	Extension      string
	BusinessAreaID int64
	ContentType    string
	Size           int64
	Body           io.Reader
}

// AddVersionInput is the DTO for uploading a new revision of a document.
type AddVersionInput struct {
	Actor       Actor
	DocumentID  int64
	ContentType string
	Size        int64
	Body        io.Reader
}

// DownloadOutput carries a presigned link to one document version.
type DownloadOutput struct {
	URL       string    `json:"url"`
	FileName  string    `json:"file_name"`
	Version   int       `json:"version"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DocumentService defines the document management contract.
type DocumentService interface {
	Create(ctx context.Context, input *CreateDocumentInput) (*domain.Document, *AuditWarning, error)
	Get(ctx context.Context, actor Actor, id int64) (*domain.Document, error)
	Download(ctx context.Context, actor Actor, id int64, version int) (*DownloadOutput, error)
	List(ctx context.Context, actor Actor, filter port.DocumentFilter) ([]domain.Document, int, error)
	Rename(ctx context.Context, actor Actor, id int64, name string) (*domain.Document, *AuditWarning, error)
	AddVersion(ctx context.Context, input *AddVersionInput) (*domain.Document, *AuditWarning, error)
	ListVersions(ctx context.Context, actor Actor, id int64) ([]domain.DocumentVersion, error)
	Lock(ctx context.Context, actor Actor, id int64) (*domain.Document, *AuditWarning, error)
	Unlock(ctx context.Context, actor Actor, id int64) (*domain.Document, *AuditWarning, error)
	Archive(ctx context.Context, actor Actor, id int64) (*domain.Document, *AuditWarning, error)
	Unarchive(ctx context.Context, actor Actor, id int64) (*domain.Document, *AuditWarning, error)
	Delete(ctx context.Context, actor Actor, id int64) (*AuditWarning, error)
	ListMetadata(ctx context.Context, actor Actor, id int64) ([]domain.CustomMetadata, error)
	SetMetadata(ctx context.Context, actor Actor, id int64, key, value string) (*domain.CustomMetadata, *AuditWarning, error)
	RemoveMetadata(ctx context.Context, actor Actor, id int64, key string) (*AuditWarning, error)
	ListAccessLogs(ctx context.Context, actor Actor, id int64, offset, limit int) ([]domain.AccessLog, int, error)
}

type documentService struct {
	persister
	docs     port.DocumentRepository
	security port.SecurityRepository
	blobs    port.BlobStore
	cfg      DocumentServiceConfig
	now      func() time.Time
}

// NewDocumentService creates a new DocumentService implementation.
func NewDocumentService(
	docs port.DocumentRepository,
	security port.SecurityRepository,
	blobs port.BlobStore,
	sessions SessionFactory,
	saver Saver,
	cfg DocumentServiceConfig,
	logger *slog.Logger,
) DocumentService {
	return &documentService{
		persister: persister{sessions: sessions, saver: saver, logger: logger},
		docs:      docs,
		security:  security,
		blobs:     blobs,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *documentService) authorize(ctx context.Context, actor Actor, businessAreaID int64, perm domain.Permission) error {
	if actor.IsAdmin() {
		return nil
	}
	if len(actor.Groups) == 0 {
		return domain.ErrForbidden
	}
	acls, err := s.security.ListAccessControlsForGroups(ctx, actor.Groups)
	if err != nil {
		return fmt.Errorf("loading access: %w", err)
	}
	if !canAccess(acls, actor.Groups, businessAreaID, perm) {
		return domain.ErrForbidden
	}
	return nil
}

// load fetches a document and checks perm on its business area.
func (s *documentService) load(ctx context.Context, actor Actor, id int64, perm domain.Permission) (*domain.Document, error) {
	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, doc.BusinessAreaID, perm); err != nil {
		return nil, err
	}
	return doc, nil
}

// checkEditable rejects changes to archived documents and to documents locked
// by someone else.
func checkEditable(doc *domain.Document, actor Actor, now time.Time) error {
	if doc.Archive.IsArchived() {
		return domain.ErrDocumentArchived
	}
	if doc.Lock.IsLocked(now) && !doc.Lock.HeldBy(actor.User, now) {
		return domain.ErrDocumentLocked
	}
	return nil
}

// upload streams body to the blob store while hashing it and returns the hex
// MD5 of what was stored.
func (s *documentService) upload(ctx context.Context, key, contentType string, size int64, body io.Reader) (string, error) {
	hash := md5.New()
	pr, pw := io.Pipe()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := io.Copy(io.MultiWriter(pw, hash), body)
		pw.CloseWithError(err)
		return err
	})
	g.Go(func() error {
		err := s.blobs.Put(gctx, port.PutInput{Key: key, Body: pr, ContentType: contentType, Size: size})
		// Unblocks the copy if the store stopped reading early.
		pr.CloseWithError(err)
		return err
	})
	if err := g.Wait(); err != nil {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrUploadFailed, key, err)
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

func (s *documentService) deleteBlob(ctx context.Context, key string) {
	if err := s.blobs.Delete(context.WithoutCancel(ctx), key); err != nil {
		s.logger.WarnContext(ctx, "failed to delete blob", "key", key, "error", err)
	}
}

func (s *documentService) checkSize(size int64) error {
	if s.cfg.MaxFileSize > 0 && size > s.cfg.MaxFileSize {
		return domain.ErrFileTooLarge
	}
	return nil
}

// Create inserts the document, uploads its bytes under the key derived from the
// generated id, then records the hash and the first version.
func (s *documentService) Create(ctx context.Context, input *CreateDocumentInput) (*domain.Document, *AuditWarning, error) {
	name := strings.TrimSpace(input.Name)
	ext := strings.TrimPrefix(strings.TrimSpace(input.Extension), ".")
	if name == "" || ext == "" {
		return nil, nil, fmt.Errorf("%w: name and extension are required", domain.ErrInvalidInput)
	}
	if err := s.checkSize(input.Size); err != nil {
		return nil, nil, err
	}
	area, err := s.security.GetBusinessArea(ctx, input.BusinessAreaID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: unknown business area %d", domain.ErrInvalidInput, input.BusinessAreaID)
		}
		return nil, nil, err
	}
	if err := s.authorize(ctx, input.Actor, area.ID, domain.PermissionWrite); err != nil {
		return nil, nil, err
	}

	now := s.now().UTC()
	stamp := domain.NewUpdateState(input.Actor.User, now)
	doc := &domain.Document{
		Name:           name,
		Version:        1,
		StorName:       s.cfg.StorName,
		Extension:      ext,
		BusinessArea:   area.Name,
		BusinessAreaID: area.ID,
		Created:        stamp,
		LastUpdate:     stamp,
		LastViewed:     now,
	}
	sess := s.sessions()
	if err := sess.Add(doc); err != nil {
		return nil, nil, err
	}
	inserted, err := s.save(ctx, sess, "creating document")
	if err != nil {
		return nil, nil, err
	}

	key := doc.ServerFileName()
	hash, err := s.upload(ctx, key, input.ContentType, input.Size, input.Body)
	if err != nil {
		s.discard(ctx, sess, doc)
		return nil, nil, err
	}

	doc.MD5Hash = hash
	version := &domain.DocumentVersion{
		DocumentID: doc.ID,
		Version:    1,
		MD5Hash:    hash,
		StorName:   doc.StorName,
		FileName:   key,
		Created:    stamp,
	}
	if err := sess.Add(version); err != nil {
		return nil, nil, err
	}
	recorded, err := s.save(ctx, sess, "recording first version")
	if err != nil {
		_ = sess.Remove(version)
		s.discard(ctx, sess, doc)
		s.deleteBlob(ctx, key)
		return nil, nil, err
	}
	return doc, joinWarnings(inserted, recorded), nil
}

// discard removes a document whose creation could not be completed.
func (s *documentService) discard(ctx context.Context, sess Session, doc *domain.Document) {
	if err := sess.Remove(doc); err != nil {
		s.logger.ErrorContext(ctx, "failed to discard incomplete document", "document_id", doc.ID, "error", err)
		return
	}
	if _, err := s.save(context.WithoutCancel(ctx), sess, "discarding incomplete document"); err != nil {
		s.logger.ErrorContext(ctx, "failed to discard incomplete document", "document_id", doc.ID, "error", err)
	}
}

// recordAccess appends an access-log row and bumps LastViewed. Neither change
// is audited, so capture is skipped altogether.
func (s *documentService) recordAccess(ctx context.Context, actor Actor, doc *domain.Document, action domain.AccessAction) error {
	now := s.now().UTC()
	sess := s.sessions()
	if err := sess.Attach(doc); err != nil {
		return err
	}
	doc.LastViewed = now
	if err := sess.Add(&domain.AccessLog{DocumentID: doc.ID, Action: action, By: actor.User, At: now}); err != nil {
		return err
	}
	if _, err := s.saver.SaveWithoutAudit(ctx, sess); err != nil {
		return fmt.Errorf("recording document access: %w", err)
	}
	return nil
}

func (s *documentService) Get(ctx context.Context, actor Actor, id int64) (*domain.Document, error) {
	doc, err := s.load(ctx, actor, id, domain.PermissionRead)
	if err != nil {
		return nil, err
	}
	if err := s.recordAccess(ctx, actor, doc, domain.AccessView); err != nil {
		return nil, err
	}
	return doc, nil
}

// Download presigns a link to the given version; 0 selects the current one.
func (s *documentService) Download(ctx context.Context, actor Actor, id int64, version int) (*DownloadOutput, error) {
	doc, err := s.load(ctx, actor, id, domain.PermissionRead)
	if err != nil {
		return nil, err
	}
	if version == 0 {
		version = doc.Version
	}
	ver, err := s.docs.GetVersion(ctx, id, version)
	if err != nil {
		return nil, err
	}
	url, err := s.blobs.PresignGet(ctx, ver.FileName, s.cfg.PresignExpiry)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStorageFailed, err)
	}
	if err := s.recordAccess(ctx, actor, doc, domain.AccessDownload); err != nil {
		return nil, err
	}
	return &DownloadOutput{
		URL:       url,
		FileName:  doc.FileName(),
		Version:   version,
		ExpiresAt: s.now().UTC().Add(s.cfg.PresignExpiry),
	}, nil
}

// List returns documents of one business area. Only admins may list across
// areas.
func (s *documentService) List(ctx context.Context, actor Actor, filter port.DocumentFilter) ([]domain.Document, int, error) {
	if filter.BusinessAreaID == nil {
		if !actor.IsAdmin() {
			return nil, 0, fmt.Errorf("%w: business_area_id is required", domain.ErrInvalidInput)
		}
	} else if err := s.authorize(ctx, actor, *filter.BusinessAreaID, domain.PermissionRead); err != nil {
		return nil, 0, err
	}
	return s.docs.List(ctx, filter)
}

// mutate loads a document with write permission, attaches it to a fresh session
// and lets apply change it before stamping LastUpdate and saving.
func (s *documentService) mutate(ctx context.Context, actor Actor, id int64, op string, apply func(sess Session, doc *domain.Document, now time.Time) error) (*domain.Document, *AuditWarning, error) {
	doc, err := s.load(ctx, actor, id, domain.PermissionWrite)
	if err != nil {
		return nil, nil, err
	}
	now := s.now().UTC()
	sess := s.sessions()
	if err := sess.Attach(doc); err != nil {
		return nil, nil, err
	}
	if err := apply(sess, doc, now); err != nil {
		return nil, nil, err
	}
	doc.LastUpdate = domain.NewUpdateState(actor.User, now)
	warn, err := s.save(ctx, sess, op)
	if err != nil {
		return nil, nil, err
	}
	return doc, warn, nil
}

func (s *documentService) Rename(ctx context.Context, actor Actor, id int64, name string) (*domain.Document, *AuditWarning, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	return s.mutate(ctx, actor, id, "renaming document", func(_ Session, doc *domain.Document, now time.Time) error {
		if err := checkEditable(doc, actor, now); err != nil {
			return err
		}
		doc.Name = name
		return nil
	})
}

func (s *documentService) AddVersion(ctx context.Context, input *AddVersionInput) (*domain.Document, *AuditWarning, error) {
	if err := s.checkSize(input.Size); err != nil {
		return nil, nil, err
	}
	doc, err := s.load(ctx, input.Actor, input.DocumentID, domain.PermissionWrite)
	if err != nil {
		return nil, nil, err
	}
	now := s.now().UTC()
	if err := checkEditable(doc, input.Actor, now); err != nil {
		return nil, nil, err
	}

	next := doc.Version + 1
	key := domain.ServerFileName(doc.ID, next, doc.Name, doc.Extension)
	hash, err := s.upload(ctx, key, input.ContentType, input.Size, input.Body)
	if err != nil {
		return nil, nil, err
	}

	stamp := domain.NewUpdateState(input.Actor.User, now)
	sess := s.sessions()
	if err := sess.Attach(doc); err != nil {
		return nil, nil, err
	}
	doc.Version = next
	doc.MD5Hash = hash
	doc.LastUpdate = stamp
	version := &domain.DocumentVersion{
		DocumentID: doc.ID,
		Version:    next,
		MD5Hash:    hash,
		StorName:   doc.StorName,
		FileName:   key,
		Created:    stamp,
	}
	if err := sess.Add(version); err != nil {
		return nil, nil, err
	}
	warn, err := s.save(ctx, sess, "adding document version")
	if err != nil {
		s.deleteBlob(ctx, key)
		return nil, nil, err
	}
	return doc, warn, nil
}

func (s *documentService) ListVersions(ctx context.Context, actor Actor, id int64) ([]domain.DocumentVersion, error) {
	if _, err := s.load(ctx, actor, id, domain.PermissionRead); err != nil {
		return nil, err
	}
	return s.docs.ListVersions(ctx, id)
}

// Lock takes or renews the caller's editing lock.
func (s *documentService) Lock(ctx context.Context, actor Actor, id int64) (*domain.Document, *AuditWarning, error) {
	return s.mutate(ctx, actor, id, "locking document", func(_ Session, doc *domain.Document, now time.Time) error {
		if err := checkEditable(doc, actor, now); err != nil {
			return err
		}
		expires := now.Add(s.cfg.LockDuration)
		doc.Lock = domain.LockState{By: actor.User, At: &now, Expiration: &expires}
		return nil
	})
}

// Unlock releases a lock. Admins may release anyone's lock.
func (s *documentService) Unlock(ctx context.Context, actor Actor, id int64) (*domain.Document, *AuditWarning, error) {
	return s.mutate(ctx, actor, id, "unlocking document", func(_ Session, doc *domain.Document, now time.Time) error {
		if doc.Lock.IsLocked(now) && !doc.Lock.HeldBy(actor.User, now) && !actor.IsAdmin() {
			return domain.ErrNotLockOwner
		}
		doc.Lock = domain.LockState{}
		return nil
	})
}

// Archive hides a document from default listings and releases any lock.
func (s *documentService) Archive(ctx context.Context, actor Actor, id int64) (*domain.Document, *AuditWarning, error) {
	return s.mutate(ctx, actor, id, "archiving document", func(_ Session, doc *domain.Document, now time.Time) error {
		if err := checkEditable(doc, actor, now); err != nil {
			return err
		}
		doc.Archive = domain.ArchiveState{By: actor.User, At: &now}
		doc.Lock = domain.LockState{}
		return nil
	})
}

func (s *documentService) Unarchive(ctx context.Context, actor Actor, id int64) (*domain.Document, *AuditWarning, error) {
	return s.mutate(ctx, actor, id, "unarchiving document", func(_ Session, doc *domain.Document, _ time.Time) error {
		doc.Archive = domain.ArchiveState{}
		return nil
	})
}

// Delete removes a document with its versions and custom metadata, then the
// stored bytes of every version.
func (s *documentService) Delete(ctx context.Context, actor Actor, id int64) (*AuditWarning, error) {
	doc, err := s.load(ctx, actor, id, domain.PermissionDelete)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if doc.Lock.IsLocked(now) && !doc.Lock.HeldBy(actor.User, now) {
		return nil, domain.ErrDocumentLocked
	}
	versions, err := s.docs.ListVersions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("listing versions: %w", err)
	}
	metadata, err := s.docs.ListMetadata(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("listing metadata: %w", err)
	}

	sess := s.sessions()
	for i := range metadata {
		if err := sess.Remove(&metadata[i]); err != nil {
			return nil, err
		}
	}
	for i := range versions {
		if err := sess.Remove(&versions[i]); err != nil {
			return nil, err
		}
	}
	if err := sess.Remove(doc); err != nil {
		return nil, err
	}
	warn, err := s.save(ctx, sess, "deleting document")
	if err != nil {
		return nil, err
	}
	for _, v := range versions {
		s.deleteBlob(ctx, v.FileName)
	}
	return warn, nil
}

func (s *documentService) ListMetadata(ctx context.Context, actor Actor, id int64) ([]domain.CustomMetadata, error) {
	if _, err := s.load(ctx, actor, id, domain.PermissionRead); err != nil {
		return nil, err
	}
	return s.docs.ListMetadata(ctx, id)
}

// SetMetadata creates or overwrites one custom metadata key.
func (s *documentService) SetMetadata(ctx context.Context, actor Actor, id int64, key, value string) (*domain.CustomMetadata, *AuditWarning, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, nil, fmt.Errorf("%w: metadata key is required", domain.ErrInvalidInput)
	}
	var entry *domain.CustomMetadata
	_, warn, err := s.mutate(ctx, actor, id, "setting metadata", func(sess Session, doc *domain.Document, now time.Time) error {
		if err := checkEditable(doc, actor, now); err != nil {
			return err
		}
		existing, err := s.docs.ListMetadata(ctx, doc.ID)
		if err != nil {
			return fmt.Errorf("listing metadata: %w", err)
		}
		for i := range existing {
			if existing[i].Key == key {
				entry = &existing[i]
				if err := sess.Attach(entry); err != nil {
					return err
				}
				entry.Value = value
				return nil
			}
		}
		entry = &domain.CustomMetadata{DocumentID: doc.ID, Key: key, Value: value}
		return sess.Add(entry)
	})
	if err != nil {
		return nil, nil, err
	}
	return entry, warn, nil
}

func (s *documentService) RemoveMetadata(ctx context.Context, actor Actor, id int64, key string) (*AuditWarning, error) {
	_, warn, err := s.mutate(ctx, actor, id, "removing metadata", func(sess Session, doc *domain.Document, now time.Time) error {
		if err := checkEditable(doc, actor, now); err != nil {
			return err
		}
		existing, err := s.docs.ListMetadata(ctx, doc.ID)
		if err != nil {
			return fmt.Errorf("listing metadata: %w", err)
		}
		for i := range existing {
			if existing[i].Key == key {
				return sess.Remove(&existing[i])
			}
		}
		return fmt.Errorf("%w: metadata key %q", domain.ErrNotFound, key)
	})
	return warn, err
}

func (s *documentService) ListAccessLogs(ctx context.Context, actor Actor, id int64, offset, limit int) ([]domain.AccessLog, int, error) {
	if _, err := s.load(ctx, actor, id, domain.PermissionRead); err != nil {
		return nil, 0, err
	}
	return s.docs.ListAccessLogs(ctx, id, offset, limit)
}
