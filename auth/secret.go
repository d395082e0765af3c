package auth

import (
	"encoding/json"

	"github.com/kbukum/payclient/httpclient"
)

// Secret is a credential value that never renders in cleartext through
// fmt, %#v or JSON encoding. Use Expose to read the value.
type Secret string

// Expose returns the cleartext value.
func (s Secret) Expose() string { return string(s) }

// IsZero reports whether the secret is empty.
func (s Secret) IsZero() bool { return s == "" }

func (s Secret) String() string { return httpclient.RedactedValue }

func (s Secret) GoString() string { return httpclient.RedactedValue }

// MarshalJSON always encodes the redacted placeholder.
func (s Secret) MarshalJSON() ([]byte, error) {
	return json.Marshal(httpclient.RedactedValue)
}
