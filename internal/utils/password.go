package utils

import (
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the minimum accepted password length at registration
const MinPasswordLength = 8

// PasswordHashCost defines the cost for bcrypt password hashing
const PasswordHashCost = 12

// HashPassword creates a bcrypt hash of the password
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), PasswordHashCost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with a hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
