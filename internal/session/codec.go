package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"connecthub/internal/model"
)

// ErrInvalidToken means a token failed to parse or verify.
var ErrInvalidToken = errors.New("invalid session token")

// Codec turns a user snapshot into a signed token and back.
type Codec struct {
	secret []byte
	now    func() time.Time
}

type claims struct {
	User model.User `json:"user"`
	jwt.RegisteredClaims
}

func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret), now: time.Now}
}

// Encode signs the user snapshot with HS256.
func (c *Codec) Encode(user model.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		User: user,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  user.ID,
			IssuedAt: jwt.NewNumericDate(c.now()),
		},
	})
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Decode verifies the token and returns the embedded user snapshot.
func (c *Codec) Decode(tokenString string) (*model.User, error) {
	var cl claims
	token, err := jwt.ParseWithClaims(tokenString, &cl, func(token *jwt.Token) (interface{}, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || cl.User.ID == "" || cl.Subject != cl.User.ID {
		return nil, ErrInvalidToken
	}

	user := cl.User.Clone()
	return &user, nil
}
