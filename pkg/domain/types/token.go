package types

// Token is a hub access token. Values of this type are redacted from logs.
type Token string

// String returns the raw token value
func (t Token) String() string {
	return string(t)
}

// IsEmpty reports whether no token is set
func (t Token) IsEmpty() bool {
	return t == ""
}
