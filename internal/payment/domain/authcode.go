package domain

import "strings"

// AuthorizationCode is the non-empty code an acquirer returns on approval
type AuthorizationCode struct {
	value string
}

// NewAuthorizationCode rejects empty and whitespace-only codes
func NewAuthorizationCode(raw string) Result[AuthorizationCode] {
	if strings.TrimSpace(raw) == "" {
		return Fail[AuthorizationCode](NewIssue(ErrAuthorizationCodeInvalid, "Authorization code provided is empty."))
	}
	return Ok(AuthorizationCode{value: raw})
}

func (c AuthorizationCode) String() string {
	return c.value
}
