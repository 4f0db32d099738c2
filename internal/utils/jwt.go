package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// JWTClaims are issued by the storefront. OwnerID is set for partner and influencer
// dashboards and points at the partner or influencer record the user manages.
type JWTClaims struct {
	UserID  primitive.ObjectID  `json:"user_id"`
	Role    string              `json:"role"`
	OwnerID *primitive.ObjectID `json:"owner_id,omitempty"`
	Email   string              `json:"email,omitempty"`
	jwt.RegisteredClaims
}

func GenerateAccessToken(userID primitive.ObjectID, role string, ownerID *primitive.ObjectID, email, secretKey string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = JWTAccessTokenTTL
	}
	now := time.Now()

	claims := &JWTClaims{
		UserID:  userID,
		Role:    role,
		OwnerID: ownerID,
		Email:   email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    AppName,
			Subject:   userID.Hex(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secretKey))
}

func ValidateToken(tokenString, secretKey string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secretKey), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		if claims.UserID.IsZero() || claims.Role == "" {
			return nil, errors.New("token missing subject or role")
		}
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
