// Package email delivers transactional mail.
package email

import "context"

// Attachment is a file attached to an outgoing email.
type Attachment struct {
	FileName string
	Content  []byte
}

// Sender delivers the platform's transactional emails.
type Sender interface {
	SendContractIssuedEmail(ctx context.Context, toEmail string, data ContractIssuedEmailData) error
}

// ContractIssuedEmailData fills the contract confirmation template.
type ContractIssuedEmailData struct {
	ContractNumber string
	ProjectTitle   string
	TotalFormatted string
	PaymentType    string
	ContractURL    string
}

// NoopSender drops all mail. Used when email delivery is disabled.
type NoopSender struct{}

// SendContractIssuedEmail does nothing.
func (NoopSender) SendContractIssuedEmail(context.Context, string, ContractIssuedEmailData) error {
	return nil
}
