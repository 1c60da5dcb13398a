// Package token 校验托管身份服务签发的 access token（HS256，项目 JWT 密钥签名）。
package token

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthenticatedAudience 是身份服务给已登录用户签发 token 时使用的 aud / role 值。
const AuthenticatedAudience = "authenticated"

var (
	ErrMissingSubject   = errors.New("token has no subject")
	ErrNotAuthenticated = errors.New("token is not an authenticated user token")
)

// Claims 是身份服务 access token 的载荷。
// Subject 为用户 UUID；UserMetadata 中可能带有邀请时写入的 org_id 与 name。
type Claims struct {
	Email        string                 `json:"email"`
	Role         string                 `json:"role"`
	UserMetadata map[string]interface{} `json:"user_metadata,omitempty"`
	jwt.RegisteredClaims
}

// InvitedOrgID 读取邀请元数据中的组织 ID。元数据里 org_id 以字符串保存。
func (c *Claims) InvitedOrgID() (uint, bool) {
	if c == nil || c.UserMetadata == nil {
		return 0, false
	}
	switch v := c.UserMetadata["org_id"].(type) {
	case string:
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil || id == 0 {
			return 0, false
		}
		return uint(id), true
	case float64:
		if v <= 0 {
			return 0, false
		}
		return uint(v), true
	}
	return 0, false
}

// DisplayName 读取元数据中的 name，没有时返回空串。
func (c *Claims) DisplayName() string {
	if c == nil || c.UserMetadata == nil {
		return ""
	}
	name, _ := c.UserMetadata["name"].(string)
	return name
}

// Verifier 负责签发（仅用于本地开发与测试）和验证 access token。
type Verifier struct {
	secretKey []byte
}

func NewVerifier(secretKey string) *Verifier {
	return &Verifier{secretKey: []byte(secretKey)}
}

// Issue 按身份服务的格式签发 token。生产环境的 token 由身份服务签发，这里只服务本地联调与测试。
func (v *Verifier) Issue(userID, email string, metadata map[string]interface{}, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email:        email,
		Role:         AuthenticatedAudience,
		UserMetadata: metadata,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Audience:  jwt.ClaimStrings{AuthenticatedAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secretKey)
}

// Verify 验证签名与有效期，并要求 token 属于已登录用户。
// 只接受 HS256，防止 alg=none 等算法篡改。
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return v.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}
	// anon / service_role key 同样是合法签名的 JWT，但不代表某个用户
	if claims.Role != AuthenticatedAudience {
		return nil, ErrNotAuthenticated
	}
	return claims, nil
}

// Remaining 返回 token 剩余的有效期，用于设置吊销记录的 TTL。
func Remaining(claims *Claims, now time.Time) time.Duration {
	if claims == nil || claims.ExpiresAt == nil {
		return 0
	}
	return claims.ExpiresAt.Time.Sub(now)
}
