package jwt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"mentor-match/config"
)

const (
	Issuer   = "mentor-mentee-app"
	Audience = "mentor-mentee-app-users"

	// TokenTTL 访问令牌有效期固定为 1 小时
	TokenTTL = time.Hour

	bearerPrefix = "Bearer "
)

var (
	ErrTokenExpired             = errors.New("token expired")
	ErrTokenInvalid             = errors.New("invalid token")
	ErrMissingOrMalformedHeader = errors.New("invalid authorization header")
)

// Subject 签发令牌所需的用户信息
type Subject struct {
	ID    int64
	Name  string
	Email string
	Role  string
}

// Claims 自定义 JWT 声明
type Claims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwtv5.RegisteredClaims
}

// UserID 从 sub 声明解析用户 ID
func (c *Claims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// Manager JWT 管理器
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewManager 创建 JWT 管理器
func NewManager(cfg *config.AuthConfig) *Manager {
	return &Manager{
		secret: []byte(cfg.JWTSecret),
		ttl:    TokenTTL,
		now:    time.Now,
	}
}

// Issue 签发访问令牌
// jti = "<用户ID>-<签发时间戳>"
func (m *Manager) Issue(sub Subject) (string, error) {
	now := m.now().Truncate(time.Second)
	claims := Claims{
		Name:  sub.Name,
		Email: sub.Email,
		Role:  sub.Role,
		RegisteredClaims: jwtv5.RegisteredClaims{
			ID:        fmt.Sprintf("%d-%d", sub.ID, now.Unix()),
			Issuer:    Issuer,
			Subject:   strconv.FormatInt(sub.ID, 10),
			Audience:  jwtv5.ClaimStrings{Audience},
			IssuedAt:  jwtv5.NewNumericDate(now),
			NotBefore: jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify 解析并验证令牌（签名、算法、签发者、受众、有效期）
func (m *Manager) Verify(tokenString string) (*Claims, error) {
	token, err := jwtv5.ParseWithClaims(tokenString, &Claims{}, func(t *jwtv5.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtv5.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return m.secret, nil
	},
		jwtv5.WithIssuer(Issuer),
		jwtv5.WithAudience(Audience),
		jwtv5.WithTimeFunc(m.now),
	)

	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if _, err := claims.UserID(); err != nil {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// ExtractFromHeader 从 Authorization 头中取出令牌
func ExtractFromHeader(header string) (string, error) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", ErrMissingOrMalformedHeader
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return "", ErrMissingOrMalformedHeader
	}
	return token, nil
}
