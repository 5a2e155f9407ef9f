package models

// Account represents the upstream login credential the agent runs as
type Account struct {
	Username string
	Password string
}

// CredentialID returns the key sessions for this account are stored under
func (a Account) CredentialID() string {
	return a.Username
}
