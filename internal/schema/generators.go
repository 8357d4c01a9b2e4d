package schema

import (
	"github.com/Masterminds/goutils"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// PasswordLength is the length of generated passwords
const PasswordLength = 16

// GeneratePassword returns a fresh random alphanumeric password
func GeneratePassword() string {
	password, err := goutils.CryptoRandomAlphaNumeric(PasswordLength)
	if err != nil {
		panic(errors.Wrap(err, "generating password"))
	}
	return password
}

// GenerateUUID returns a fresh random UUID, used for OAuth2 client secrets
func GenerateUUID() string {
	return uuid.NewString()
}
