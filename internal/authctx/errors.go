package authctx

import (
	"errors"

	"github.com/sundayschool-dev/sundayschool/internal/cli/client"
)

var (
	// ErrSessionConfirmationFailed means the login call succeeded but no
	// session could be read back within the retry bound
	ErrSessionConfirmationFailed = errors.New("session could not be confirmed after login")

	ErrInvalidCredentials = client.ErrInvalidCredentials
	ErrTransient          = client.ErrTransient
	ErrValidation         = client.ErrValidation
)

// errNoSession marks a confirmation attempt that read no user
var errNoSession = errors.New("no session yet")
