package payments

import (
	"encoding/json"
	"time"

	"github.com/kbukum/payclient/auth"
)

// Status is the server-side state of a payment.
type Status string

const (
	StatusAuthorizationRequired Status = "authorization_required"
	StatusAuthorizing           Status = "authorizing"
	StatusAuthorized            Status = "authorized"
	StatusExecuted              Status = "executed"
	StatusSettled               Status = "settled"
	StatusFailed                Status = "failed"
)

// IsTerminal reports whether no further transition is expected.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusExecuted, StatusSettled, StatusFailed:
		return true
	default:
		return false
	}
}

// Currency codes accepted by the payments API.
const (
	CurrencyEUR = "EUR"
	CurrencyGBP = "GBP"
	CurrencyNOK = "NOK"
	CurrencyPLN = "PLN"
)

// CreateRequest is the body of a payment creation.
type CreateRequest struct {
	AmountInMinor uint64            `json:"amount_in_minor" validate:"gt=0"`
	Currency      string            `json:"currency" validate:"required,oneof=EUR GBP NOK PLN"`
	PaymentMethod PaymentMethod     `json:"payment_method"`
	User          User              `json:"user"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// PaymentMethod describes how the payer's bank is chosen and who is paid.
type PaymentMethod struct {
	Type              string            `json:"type" validate:"required,oneof=bank_transfer"`
	ProviderSelection ProviderSelection `json:"provider_selection"`
	Beneficiary       Beneficiary       `json:"beneficiary"`
}

// ProviderSelection is either user_selected or preselected.
type ProviderSelection struct {
	Type       string `json:"type" validate:"required,oneof=user_selected preselected"`
	ProviderID string `json:"provider_id,omitempty" validate:"required_if=Type preselected"`
	SchemeID   string `json:"scheme_id,omitempty" validate:"required_if=Type preselected"`
}

// Beneficiary is the receiving side of a payment.
type Beneficiary struct {
	Type              string `json:"type" validate:"required,oneof=merchant_account external_account"`
	MerchantAccountID string `json:"merchant_account_id,omitempty" validate:"required_if=Type merchant_account"`
	AccountHolderName string `json:"account_holder_name,omitempty"`
	Reference         string `json:"reference,omitempty"`
}

// User identifies the payer, either by id or by contact details.
type User struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
	Phone string `json:"phone,omitempty"`
}

// CreateResponse is returned by Create.
type CreateResponse struct {
	ID            string      `json:"id"`
	ResourceToken auth.Secret `json:"resource_token"`
	User          User        `json:"user"`
	Status        Status      `json:"status"`
	FailureStage  string      `json:"failure_stage,omitempty"`
	FailureReason string      `json:"failure_reason,omitempty"`
}

// Payment is a snapshot of a payment. Status-specific fields are set only
// in the matching status.
type Payment struct {
	ID            string            `json:"id"`
	AmountInMinor uint64            `json:"amount_in_minor"`
	Currency      string            `json:"currency"`
	User          User              `json:"user"`
	PaymentMethod json.RawMessage   `json:"payment_method,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	Metadata      map[string]string `json:"metadata,omitempty"`

	Status        Status     `json:"status"`
	ExecutedAt    *time.Time `json:"executed_at,omitempty"`
	SettledAt     *time.Time `json:"settled_at,omitempty"`
	FailedAt      *time.Time `json:"failed_at,omitempty"`
	FailureStage  string     `json:"failure_stage,omitempty"`
	FailureReason string     `json:"failure_reason,omitempty"`
}

// IsInTerminalState reports whether the payment is executed, settled or
// failed.
func (p *Payment) IsInTerminalState() bool {
	return p != nil && p.Status.IsTerminal()
}
