package domain

import "errors"

var (
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrConflict         = errors.New("resource conflicts with existing state")
	ErrInvalidInput     = errors.New("invalid input")
	ErrDocumentNotFound = errors.New("document not found")
	ErrDocumentLocked   = errors.New("document is locked by another user")
	ErrDocumentArchived = errors.New("document is archived")
	ErrNotLockOwner     = errors.New("document lock is held by another user")
	ErrFileTooLarge     = errors.New("file exceeds maximum allowed size")
	ErrUploadFailed     = errors.New("file upload to storage failed")
	ErrStorageFailed    = errors.New("blob storage operation failed")
)
