package handler

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/jsimonrichard/sceideal/internal/logger"
)

// flowError is an authentication-flow failure whose message is shown to
// the end user. The browser is mid-redirect when these occur, so they
// surface as a redirect back to the frontend rather than a JSON body.
type flowError struct {
	msg string
}

func (e flowError) Error() string { return e.msg }

var (
	errInvalidState       = flowError{"Invalid OAuth State"}
	errUnknownProvider    = flowError{"No provider by that name exists"}
	errMissingInformation = flowError{"The OpenId Connect provider couldn't produce required information"}
	errSignUpDisallowed   = flowError{"Automatic sign-ups have been disallowed"}
	errUserExists         = flowError{"A user with that email already exists"}
)

func providerError(err error) flowError {
	return flowError{fmt.Sprintf("Provider error: %s", err)}
}

func verificationError(err error) flowError {
	return flowError{fmt.Sprintf("Open Id Connect Claim Verification Error: %s", err)}
}

func databaseError(err error) flowError {
	return flowError{fmt.Sprintf("Database error: %s", err)}
}

func sessionError(err error) flowError {
	return flowError{fmt.Sprintf("Session error: %s", err)}
}

// redirectError sends the browser back to the frontend root with the
// failure in the error_msg query parameter.
func redirectError(c *gin.Context, err flowError) {
	logger.Warnw("auth flow failed", "path", c.Request.URL.Path, "error", err.msg)

	q := url.Values{"error_msg": {err.msg}}
	c.Redirect(http.StatusFound, "/?"+q.Encode())
}

// redirectHome ends a successful callback.
func redirectHome(c *gin.Context) {
	c.Redirect(http.StatusFound, "/")
}
