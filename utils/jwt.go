package utils

import (
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Access tokens are short-lived; clients rotate via the refresh session.
const accessTokenTTL = 15 * time.Minute

func GenerateJWT(userID uint, email string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": userID,
		"email":  email,
		"exp":    time.Now().Add(accessTokenTTL).Unix(),
	})

	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}
