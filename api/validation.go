package api

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/tech-arch1tect/recipemanager/api/apierror"
	"github.com/tech-arch1tect/recipemanager/config"
	"github.com/tech-arch1tect/recipemanager/services/recipe"
)

const (
	maxNameLength  = 100
	maxEmailLength = 254
)

// rules are the request limits that come from configuration.
type rules struct {
	passwordMin int
	passwordMax int
}

// checker keeps the first failed check. Messages read "field - problem".
type checker struct {
	rules rules
	err   *apierror.Error
}

func newChecker(r rules) *checker {
	return &checker{rules: r}
}

func (c *checker) fail(field, format string, args ...any) {
	if c.err == nil {
		c.err = apierror.InvalidRequest(field + " - " + fmt.Sprintf(format, args...))
	}
}

func (c *checker) text(field, value string, min, max int) {
	n := utf8.RuneCountInString(value)
	switch {
	case strings.TrimSpace(value) == "" && min > 0:
		c.fail(field, "Required")
	case n < min:
		c.fail(field, "Should be at least %d characters", min)
	case n > max:
		c.fail(field, "Should be at most %d characters", max)
	}
}

func (c *checker) name(field, value string) {
	c.text(field, value, 1, maxNameLength)
}

// email accepts a bare address only, not "Name <address>".
func (c *checker) email(field, value string) {
	if strings.TrimSpace(value) == "" {
		c.fail(field, "Required")
		return
	}
	if utf8.RuneCountInString(value) > maxEmailLength {
		c.fail(field, "Should be at most %d characters", maxEmailLength)
		return
	}
	trimmed := strings.TrimSpace(value)
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		c.fail(field, "Invalid email")
	}
}

func (c *checker) password(field, value string) {
	n := utf8.RuneCountInString(value)
	switch {
	case n == 0:
		c.fail(field, "Required")
	case n < c.rules.passwordMin:
		c.fail(field, "Should be at least %d characters", c.rules.passwordMin)
	case n > c.rules.passwordMax:
		c.fail(field, "Should be at most %d characters", c.rules.passwordMax)
	case len(value) > config.MaxPasswordBytes:
		c.fail(field, "Should be at most %d bytes", config.MaxPasswordBytes)
	}
}

func (c *checker) token(field, value string) {
	if strings.TrimSpace(value) == "" {
		c.fail(field, "Required")
	}
}

func (c *checker) title(field, value string) {
	c.text(field, value, 1, recipe.MaxTitleLength)
}

func (c *checker) cookingTime(field string, value int) {
	if value < 1 || value > recipe.MaxCookingTimeMinutes {
		c.fail(field, "Should be between 1 and %d", recipe.MaxCookingTimeMinutes)
	}
}

func (c *checker) result() error {
	if c.err == nil {
		return nil
	}
	return c.err
}
