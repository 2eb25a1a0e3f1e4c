package sql

import (
	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionCheckResult describes a sample value that tripped the
// injection screen.
type InjectionCheckResult struct {
	IsSQLi      bool   // True if a SQL injection pattern was detected
	Fingerprint string // libinjection fingerprint of the detected pattern
	Field       string // Which field carried the value (e.g. "sample_values")
	Value       string // The value that was checked
}

// CheckValueForInjection runs libinjection over a user-entered value.
// Sample values are data, not SQL; a value that parses as an injection
// payload is almost certainly a paste error or an attack, and either way
// has no business in a published model.
//
// Returns nil if the value is clean.
func CheckValueForInjection(field, value string) *InjectionCheckResult {
	isSQLi, fingerprint := libinjection.IsSQLi(value)
	if !isSQLi {
		return nil
	}
	return &InjectionCheckResult{
		IsSQLi:      true,
		Fingerprint: string(fingerprint),
		Field:       field,
		Value:       value,
	}
}

// CheckValuesForInjection screens a whole sample-value collection and
// returns a result per flagged value, empty when all are clean.
func CheckValuesForInjection(field string, values []string) []*InjectionCheckResult {
	var results []*InjectionCheckResult
	for _, value := range values {
		if result := CheckValueForInjection(field, value); result != nil {
			results = append(results, result)
		}
	}
	return results
}
