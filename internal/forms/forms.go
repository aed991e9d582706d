// Package forms wraps client-side validation failures so every caller can
// tell them apart from backend errors and answer without a network call.
package forms

import (
	"errors"
	"regexp"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
)

const defaultCode = "FORM_VALIDATION_FAILED"

// Check validates v and wraps a failure as a validation-category error
// carrying code.
func Check(v validation.Validatable, code string) error {
	return Wrap(v.Validate(), code)
}

// Wrap tags err as a validation failure.  Already wrapped errors pass
// through untouched.
func Wrap(err error, code string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	if code == "" {
		code = defaultCode
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "form validation failed").
		WithTextCode(code)
}

// Invalid builds a validation failure for a single field.
func Invalid(field, msg, code string) error {
	return Wrap(validation.Errors{field: errors.New(msg)}, code)
}

// IsInvalid reports whether err is a client-side validation failure.
func IsInvalid(err error) bool {
	return err != nil && goerrors.IsCategory(err, goerrors.CategoryValidation)
}

// Fields returns the per-field messages of a validation failure.
func Fields(err error) map[string]string {
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for k, e := range verrs {
		if e != nil {
			out[k] = e.Error()
		}
	}
	return out
}

// Message returns the first field message in key order, or err's text.
func Message(err error) string {
	fields := Fields(err)
	if len(fields) == 0 {
		if err == nil {
			return ""
		}
		return err.Error()
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fields[keys[0]]
}

var bdPhone = regexp.MustCompile(`^(?:\+?88)?01[3-9][0-9]{8}$`)

// Phone accepts Bangladeshi mobile numbers with or without the 88 prefix.
var Phone = validation.Match(bdPhone).Error("সঠিক মোবাইল নম্বর দিন")
