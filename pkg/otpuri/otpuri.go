// Package otpuri parses and builds otpauth:// TOTP enrollment URIs.
package otpuri

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/pquerna/otp"
)

// ErrInvalidURI is returned when a string does not parse as a well-formed
// TOTP enrollment URI or lacks a secret.
var ErrInvalidURI = errors.New("otpuri: invalid otpauth URI")

// Secret holds the fields extracted from one enrollment URI.
// The secret value is opaque base32 text; it is not decoded or validated
// here, only at token generation time.
type Secret struct {
	Account string
	Issuer  string
	Secret  string
}

// Parse extracts account, issuer and secret from a single
// otpauth://totp/... URI.
func Parse(raw string) (Secret, error) {
	key, err := otp.NewKeyFromURL(raw)
	if err != nil {
		return Secret{}, fmt.Errorf("%w: %v", ErrInvalidURI, err)
	}
	if key.Type() != "totp" {
		return Secret{}, fmt.Errorf("%w: type %q is not totp", ErrInvalidURI, key.Type())
	}
	if key.Secret() == "" {
		return Secret{}, fmt.Errorf("%w: missing secret parameter", ErrInvalidURI)
	}
	return Secret{
		Account: key.AccountName(),
		Issuer:  key.Issuer(),
		Secret:  key.Secret(),
	}, nil
}

// URI builds the enrollment URI for a stored secret, suitable for rendering
// as a QR code. Inverse of Parse for the fields the store keeps.
func URI(account, issuer, secret string) string {
	v := url.Values{}
	v.Set("secret", secret)
	label := account
	if issuer != "" {
		v.Set("issuer", issuer)
		label = issuer + ":" + account
	}
	u := url.URL{
		Scheme:   "otpauth",
		Host:     "totp",
		Path:     "/" + label,
		RawQuery: v.Encode(),
	}
	return u.String()
}
