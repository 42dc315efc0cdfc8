package usecase

import (
	"errors"
	"fmt"

	authdomain "update-tracker/internal/auth/domain"

	"github.com/golang-jwt/jwt/v5"
)

// AuthUsecase verifies bearer tokens. Tokens are issued elsewhere.
type AuthUsecase interface {
	ValidateToken(tokenString string) (*authdomain.Principal, error)
}

// authUsecase implements AuthUsecase interface
type authUsecase struct {
	secret []byte
}

// NewAuthUsecase creates a new instance of authUsecase
func NewAuthUsecase(jwtSecret string) AuthUsecase {
	return &authUsecase{
		secret: []byte(jwtSecret),
	}
}

func (u *authUsecase) ValidateToken(tokenString string) (*authdomain.Principal, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return u.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil, errors.New("invalid token claims")
	}

	role, _ := claims["role"].(string)
	if role == "" {
		role = authdomain.RoleUser
	}

	return &authdomain.Principal{UserID: userID, Role: role}, nil
}
