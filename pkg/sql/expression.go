// Package sql screens the SQL fragments embedded in a semantic model:
// the column expressions on dimensions and measures, and the user-entered
// sample values that end up interpolated into generated queries.
package sql

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrEmptyExpression indicates a dimension or measure without a SQL expression.
	ErrEmptyExpression = errors.New("SQL expression is empty")
	// ErrMultipleStatements indicates an expression that smuggles in a statement
	// separator; expressions must be a single fragment, never a statement list.
	ErrMultipleStatements = errors.New("SQL expression must not contain multiple statements")
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*$`)

// IsBareIdentifier reports whether expr is a plain column reference with
// no operators or function calls. Bare identifiers are the only
// expressions checked against physical columns; anything richer is left
// to the warehouse to reject at query time.
func IsBareIdentifier(expr string) bool {
	return identifierPattern.MatchString(strings.TrimSpace(expr))
}

// CheckExpression validates a single column expression. It normalizes
// trailing whitespace and a trailing semicolon, then rejects any
// remaining semicolon outside string literals.
func CheckExpression(expr string) error {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return ErrEmptyExpression
	}

	normalized := strings.TrimRight(expr, " \t\n\r")
	if strings.HasSuffix(normalized, ";") {
		normalized = strings.TrimRight(strings.TrimSuffix(normalized, ";"), " \t\n\r")
		if normalized == "" {
			return ErrEmptyExpression
		}
	}

	if hasSemicolonOutsideStrings(normalized) {
		return ErrMultipleStatements
	}
	return nil
}

// hasSemicolonOutsideStrings returns true if the fragment contains a
// semicolon outside of string literals.
func hasSemicolonOutsideStrings(fragment string) bool {
	const (
		stateNormal = iota
		stateSingleQuote
		stateDoubleQuote
	)

	state := stateNormal
	prevChar := rune(0)

	for _, char := range fragment {
		switch state {
		case stateNormal:
			switch char {
			case ';':
				return true
			case '\'':
				state = stateSingleQuote
			case '"':
				state = stateDoubleQuote
			}
		case stateSingleQuote:
			// Handle both backslash escape (\') and SQL standard escape ('').
			// A doubled quote exits and immediately re-enters on the next
			// quote, which keeps us inside the string.
			if char == '\'' && prevChar != '\\' {
				state = stateNormal
			}
		case stateDoubleQuote:
			if char == '"' && prevChar != '\\' {
				state = stateNormal
			}
		}
		prevChar = char
	}

	return false
}
