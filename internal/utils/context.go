// Package utils provides shared utility functions and constants
package utils

// ContextKeyClaims is the key used to store the session claims in the echo context
const ContextKeyClaims = "claims"

// CookieName is the name of the session cookie
const CookieName = "fm_session"
