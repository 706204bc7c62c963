package main

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/felixgeelhaar/pimis/internal/errors"
	"github.com/felixgeelhaar/pimis/internal/security"
)

func TestErrorLine(t *testing.T) {
	line := errorLine(errors.NewUnauthorizedError())
	assert.True(t, strings.HasPrefix(line, "Error (Authentication error): [AUTH-"), line)
	assert.Contains(t, line, "pimis auth login")

	line = errorLine(fmt.Errorf("backend rejected Authorization: Bearer abc.def.ghi"))
	assert.True(t, strings.HasPrefix(line, "Error (General error): "), line)
	assert.NotContains(t, line, "abc.def.ghi")
	assert.Contains(t, line, security.Redacted)
}
