package schema

import (
	"net/mail"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-multierror"
)

// ErrEmptyValue is returned for an empty candidate
var ErrEmptyValue = errors.New("value cannot be empty")

// Validate checks a candidate typed by the operator. For enumerated options
// the candidate is an index into Values. Every validator runs, and each
// failure message is part of the returned error.
func Validate(candidate string, opt Option) error {
	if candidate == "" {
		return ErrEmptyValue
	}
	value := candidate
	if len(opt.Values) > 0 {
		choice, err := Choice(opt, candidate)
		if err != nil {
			return err
		}
		value = choice
	}
	var result *multierror.Error
	for _, validator := range opt.Validators {
		if ok, message := validator(value); !ok {
			result = multierror.Append(result, errors.New(message))
		}
	}
	return result.ErrorOrNil()
}

// Choice maps an index typed by the operator to the enumerated value
func Choice(opt Option, candidate string) (string, error) {
	idx, err := strconv.Atoi(strings.TrimSpace(candidate))
	if err != nil || idx < 0 || idx >= len(opt.Values) {
		return "", errors.Newf("please choose a number between 0 and %d", len(opt.Values)-1)
	}
	return opt.Values[idx], nil
}

// Messages flattens a validation error into the lines shown to the operator
func Messages(err error) []string {
	if err == nil {
		return nil
	}
	var merr *multierror.Error
	if errors.As(err, &merr) {
		out := make([]string, 0, len(merr.Errors))
		for _, e := range merr.Errors {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}

// IsEmail accepts a single RFC 5322 address
func IsEmail(value string) (bool, string) {
	if _, err := mail.ParseAddress(value); err != nil || !strings.Contains(value, "@") {
		return false, "Please enter a valid email"
	}
	return true, ""
}

// NoShellMeta rejects characters that break the shell commands and
// configuration files the value ends up in
func NoShellMeta(value string) (bool, string) {
	if strings.ContainsAny(value, "`$&|;<>(){}'\"\\ ") {
		return false, "Value contains unsafe characters (quotes, spaces or shell metacharacters)"
	}
	return true, ""
}
