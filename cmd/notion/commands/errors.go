package commands

import (
	"errors"
	"fmt"

	"github.com/fivetwenty-io/notion-client/pkg/notion"
)

// Static errors for err113 compliance.
var (
	ErrInvalidOutputFormat = errors.New("invalid output format, expected table, json or yaml")
	ErrUseLogout           = errors.New("the token cannot be unset here, use 'notion logout'")
	ErrTokenPromptFailed   = errors.New("failed to read token")
)

// FormatError renders err for the terminal. Client errors are prefixed with a
// one-line explanation of their kind.
func FormatError(err error) string {
	kind := notion.KindOf(err)
	if kind == "" {
		return fmt.Sprintf("Error: %v", err)
	}

	return fmt.Sprintf("Error: %s\n%v", notion.Describe(kind), err)
}
