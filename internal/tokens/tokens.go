package tokens

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Skotchmaster/cms_admin/internal/hash"
	"github.com/Skotchmaster/cms_admin/internal/models"
)

var ErrInvalidToken = errors.New("invalid token")

// UserData is the payload carried base64-encoded in the "data" claim.
type UserData struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Privilege string `json:"privilege"`
	Active    bool   `json:"active"`
	Token     string `json:"token"`
}

type Claims struct {
	Data string `json:"data"`
	jwt.RegisteredClaims
}

type Issuer struct {
	secret    []byte
	expiresIn time.Duration
	now       func() time.Time
}

type Option func(*Issuer)

// WithClock replaces time.Now for both signing and validation.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

func NewIssuer(secretKey string, expiresIn time.Duration, opts ...Option) (*Issuer, error) {
	if secretKey == "" {
		return nil, errors.New("tokens: secret key is empty")
	}
	if expiresIn <= 0 {
		return nil, errors.New("tokens: expiry must be positive")
	}
	i := &Issuer{
		secret:    []byte(secretKey),
		expiresIn: expiresIn,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Fragment binds a token to the secret key and the user's current password
// hash, so changing either invalidates previously issued tokens.
func Fragment(secretKey, passwordHash string) string {
	return base64.StdEncoding.EncodeToString([]byte(hash.Sha256Hex(secretKey) + passwordHash))
}

func (i *Issuer) Fragment(passwordHash string) string {
	return Fragment(string(i.secret), passwordHash)
}

func (i *Issuer) Issue(user *models.User) (string, error) {
	data, err := EncodeData(UserData{
		ID:        user.ID.String(),
		Username:  user.Username,
		Email:     user.Email,
		Privilege: user.Privilege,
		Active:    user.Active,
		Token:     i.Fragment(user.Password),
	})
	if err != nil {
		return "", err
	}

	now := i.now()
	claims := Claims{
		Data: data,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.expiresIn)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

func (i *Issuer) Parse(tokenStr string) (*Claims, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !tkn.Valid {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

func EncodeData(d UserData) (string, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

func DecodeData(data string) (*UserData, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: data is not base64: %w", ErrInvalidToken, err)
	}
	var d UserData
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("%w: data is not json: %w", ErrInvalidToken, err)
	}
	return &d, nil
}
