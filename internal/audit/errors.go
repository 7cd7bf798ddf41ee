package audit

import (
	"errors"
	"fmt"

	"github.com/samber/oops"
)

var (
	ErrPrimaryCommit        = errors.New("primary commit failed")
	ErrDeferredAuditCommit  = errors.New("deferred audit commit failed")
	ErrMisconfiguredPolicy  = errors.New("audit policy misconfigured")
	ErrUnsupportedValue     = errors.New("value cannot be captured in an audit row")
	ErrUnresolvedProperties = errors.New("audit entry still has pending properties")
	// ErrNotRefreshed is wrapped by UnitOfWork.Commit when the batch committed
	// but tracked entities could not take the committed values.
	ErrNotRefreshed = errors.New("committed but tracked entities were not refreshed")
)

// Error codes attached to oops errors raised by this package.
const (
	CodePrimaryCommit       = "PRIMARY_COMMIT_FAILED"
	CodeDeferredAuditCommit = "DEFERRED_AUDIT_COMMIT_FAILED"
	CodeMisconfiguredPolicy = "AUDIT_POLICY_MISCONFIGURED"
)

func policyError(format string, args ...any) error {
	return oops.In("audit").
		Code(CodeMisconfiguredPolicy).
		Wrap(fmt.Errorf("%w: "+format, append([]any{ErrMisconfiguredPolicy}, args...)...))
}

func primaryCommitError(err error) error {
	return oops.In("audit").
		Code(CodePrimaryCommit).
		Wrap(fmt.Errorf("%w: %w", ErrPrimaryCommit, err))
}

func deferredCommitError(err error, entries []EntrySummary) error {
	return oops.In("audit").
		Code(CodeDeferredAuditCommit).
		With("entries", entries).
		Wrap(fmt.Errorf("%w: %w", ErrDeferredAuditCommit, err))
}
