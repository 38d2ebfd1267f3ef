package models

import "github.com/golang-jwt/jwt"

// Claims is the access token payload.
type Claims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	jwt.StandardClaims
}
