package utils

import (
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// TOTPIssuer is the issuer name shown in authenticator apps
const TOTPIssuer = "Souqly"

// TOTPKey represents a generated TOTP secret for two-factor setup
type TOTPKey struct {
	Secret string `json:"secret"`
	URL    string `json:"url"`
}

// GenerateTOTPKey generates a new TOTP secret for the given account
func GenerateTOTPKey(accountName string) (*TOTPKey, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      TOTPIssuer,
		AccountName: accountName,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
		SecretSize:  20,
	})
	if err != nil {
		return nil, err
	}
	return &TOTPKey{
		Secret: key.Secret(),
		URL:    key.URL(),
	}, nil
}

// ValidateTOTP checks a six-digit code against the stored secret
func ValidateTOTP(secret, code string) bool {
	return totp.Validate(code, secret)
}
