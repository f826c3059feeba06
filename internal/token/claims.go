package token

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Info what the client can read from its own token without verifying it
type Info struct {
	Subject   string
	ExpiresAt time.Time
	Expired   bool
	Parsed    bool
}

// Inspect decodes tok without checking the signature. The server is the only
// authority on validity; this is for logging and diagnostics.
func Inspect(tok string) Info {
	return inspectAt(tok, time.Now())
}

func inspectAt(tok string, now time.Time) Info {
	if tok == "" {
		return Info{}
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		return Info{}
	}

	info := Info{Parsed: true}
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		info.Subject = sub
	} else if id, ok := claims["id"]; ok {
		info.Subject = toString(id)
	} else if id, ok := claims["user_id"]; ok {
		info.Subject = toString(id)
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
		info.Expired = !now.Before(exp.Time)
	}
	return info
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}
