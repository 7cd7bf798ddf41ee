package ses

import (
	"context"
	"fmt"
	"html"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"docstore/internal/audit"
)

// SendEmailAPI is the part of the SES v2 client the notifier uses.
type SendEmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

type sesNotifier struct {
	client      SendEmailAPI
	fromAddress string
	toAddresses []string
}

// NewNotifier creates an SES-backed FailureNotifier that e-mails operators.
func NewNotifier(region, fromAddress string, toAddresses []string) (audit.FailureNotifier, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}
	return NewNotifierWithClient(sesv2.NewFromConfig(cfg), fromAddress, toAddresses), nil
}

// NewNotifierWithClient creates a notifier over an existing client.
func NewNotifierWithClient(client SendEmailAPI, fromAddress string, toAddresses []string) audit.FailureNotifier {
	return &sesNotifier{client: client, fromAddress: fromAddress, toAddresses: toAddresses}
}

func (s *sesNotifier) NotifyDeferredFailure(ctx context.Context, f audit.DeferredFailure) error {
	subject := fmt.Sprintf("[docstore] %d audit row(s) missing after commit", len(f.Entries))
	textBody := buildText(f)
	htmlBody := buildHTML(f)

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &s.fromAddress,
		Destination: &types.Destination{
			ToAddresses: s.toAddresses,
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &subject},
				Body: &types.Body{
					Html: &types.Content{Data: &htmlBody},
					Text: &types.Content{Data: &textBody},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("SES SendEmail: %w", err)
	}
	return nil
}

func describe(e audit.EntrySummary) string {
	line := fmt.Sprintf("%s %s keys=%v", e.Operation, e.Kind, map[string]any(e.KeyValues))
	if len(e.Pending) > 0 {
		line += fmt.Sprintf(" unresolved=%s", strings.Join(e.Pending, ","))
	}
	return line
}

func buildText(f audit.DeferredFailure) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Business data was committed at %s but the following audit rows could not be written:\n\n",
		f.At.Format("2006-01-02 15:04:05 MST"))
	for _, e := range f.Entries {
		fmt.Fprintf(&b, "  - %s\n", describe(e))
	}
	fmt.Fprintf(&b, "\nCause: %v\n\nReconcile the audit trail for these rows.\n", f.Err)
	return b.String()
}

func buildHTML(f audit.DeferredFailure) string {
	var items strings.Builder
	for _, e := range f.Entries {
		fmt.Fprintf(&items, "<li><code>%s</code></li>", html.EscapeString(describe(e)))
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #b91c1c;">Audit rows missing after commit</h2>
  <p>Business data was committed at %s but the following audit rows could not be written:</p>
  <ul>%s</ul>
  <p style="color: #666;">Cause: %s</p>
  <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
  <p style="color: #999; font-size: 12px;">docstore audit trail</p>
</body>
</html>`, html.EscapeString(f.At.Format("2006-01-02 15:04:05 MST")), items.String(), html.EscapeString(fmt.Sprint(f.Err)))
}
