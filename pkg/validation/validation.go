package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// EmailRegex validates email format
	EmailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	// CategoryRegex validates catalogue category slugs
	CategoryRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

	// IDRegex validates agent and user identifiers
	IDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

const (
	MaxAgentNameLength        = 100
	MaxAgentDescriptionLength = 4000
	MaxPriceCents             = 100_000_00
)

// ValidateEmail validates email address
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if len(email) > 254 {
		return fmt.Errorf("email is too long (max 254 characters)")
	}
	if !EmailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidatePassword validates password
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password is required")
	}
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	// bcrypt ignores everything past 72 bytes
	if len(password) > 72 {
		return fmt.Errorf("password is too long (max 72 bytes)")
	}
	return nil
}

func ValidateDisplayName(name string) error {
	if err := ValidateStringLength(strings.TrimSpace(name), 0, 80, "name"); err != nil {
		return err
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("name contains invalid characters")
	}
	return nil
}

// ValidateID validates an agent or user identifier taken from a URL
func ValidateID(id, fieldName string) error {
	if id == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	if len(id) > 100 {
		return fmt.Errorf("%s is too long (max 100 characters)", fieldName)
	}
	if !IDRegex.MatchString(id) {
		return fmt.Errorf("invalid %s format", fieldName)
	}
	return nil
}

// ValidateAgentName validates agent name
func ValidateAgentName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("agent name is required")
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("agent name contains invalid characters")
	}
	return ValidateStringLength(name, 1, MaxAgentNameLength, "agent name")
}

func ValidateAgentDescription(desc string) error {
	return ValidateStringLength(desc, 0, MaxAgentDescriptionLength, "description")
}

// ValidateCategory accepts lowercase slugs such as "customer-support".
func ValidateCategory(category string) error {
	if category == "" {
		return fmt.Errorf("category is required")
	}
	if len(category) > 50 {
		return fmt.Errorf("category is too long (max 50 characters)")
	}
	if !CategoryRegex.MatchString(category) {
		return fmt.Errorf("invalid category format (lowercase letters, digits and dashes)")
	}
	return nil
}

func ValidatePrice(cents int64) error {
	if cents < 0 {
		return fmt.Errorf("price cannot be negative")
	}
	if cents > MaxPriceCents {
		return fmt.Errorf("price is too high (max %d cents)", MaxPriceCents)
	}
	return nil
}

// ValidateStringLength validates string length
func ValidateStringLength(s string, min, max int, fieldName string) error {
	length := utf8.RuneCountInString(s)
	if length < min {
		return fmt.Errorf("%s must be at least %d characters", fieldName, min)
	}
	if length > max {
		return fmt.Errorf("%s is too long (max %d characters)", fieldName, max)
	}
	return nil
}
