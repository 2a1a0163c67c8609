package types

// TokenRecord is a bearer credential with its absolute expiry in epoch milliseconds.
type TokenRecord struct {
	AccessToken string `json:"accessToken"`
	Expiry      int64  `json:"expiry"`
}

// Expired reports whether the token is no longer usable at nowMillis.
func (t TokenRecord) Expired(nowMillis int64) bool {
	return nowMillis >= t.Expiry
}

// FileInfo identifies the remote tracker document.
type FileInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
