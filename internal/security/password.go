package security

import "errors"

// MinPasswordLength is the shortest password the registration form accepts.
const MinPasswordLength = 6

var (
	ErrPasswordTooShort = errors.New("Password must be at least 6 characters long")
	ErrPasswordMismatch = errors.New("Passwords do not match")
)

// ValidatePassword checks a new password before it is sent to the backend.
// Length is counted in bytes, like the original form.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// ConfirmPassword checks that both registration fields agree.
func ConfirmPassword(password, confirm string) error {
	if password != confirm {
		return ErrPasswordMismatch
	}
	return nil
}

// CheckRegistration runs the registration form checks in the order the form
// reports them.
func CheckRegistration(password, confirm string) error {
	if err := ValidatePassword(password); err != nil {
		return err
	}
	return ConfirmPassword(password, confirm)
}
