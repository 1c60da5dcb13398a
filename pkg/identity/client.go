// Package identity 是托管身份服务（GoTrue 兼容 REST API）的管理端客户端，基于 auth-go。
// 只覆盖后端需要的三个操作：按邮箱邀请、删除用户、用 access token 取当前用户。
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	auth "github.com/supabase-community/auth-go"
	"github.com/supabase-community/auth-go/types"
)

// Client 身份服务管理接口。
type Client interface {
	InviteUserByEmail(ctx context.Context, email string, data map[string]interface{}) (*User, error)
	DeleteUser(ctx context.Context, userID string) error
	GetUser(ctx context.Context, accessToken string) (*User, error)
}

// User 身份服务返回的用户对象（只保留用到的字段）。
type User struct {
	ID           string                 `json:"id"`
	Email        string                 `json:"email"`
	UserMetadata map[string]interface{} `json:"user_metadata,omitempty"`
}

// APIError 身份服务返回的非 2xx 响应。Message 为服务端给出的原始描述。
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("identity provider error (%d): %s", e.StatusCode, e.Message)
}

// Message 取出可以直接展示给调用方的错误描述。
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

const defaultTimeout = 15 * time.Second

type authClient struct {
	authURL        string
	serviceRoleKey string
	http           *http.Client
}

// NewClient 创建客户端。baseURL 为项目地址（不含 /auth/v1），serviceRoleKey 用于管理端调用。
func NewClient(baseURL, serviceRoleKey string, hc *http.Client) Client {
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	return &authClient{
		authURL:        strings.TrimRight(baseURL, "/") + "/auth/v1",
		serviceRoleKey: serviceRoleKey,
		http:           hc,
	}
}

// session auth-go 的调用不接收 context，这里为每次调用构造带 ctx 的 http.Client。
func (c *authClient) session(ctx context.Context, bearer string) auth.Client {
	hc := *c.http
	hc.Transport = contextTransport{ctx: ctx, next: c.http.Transport}
	return auth.New("", c.serviceRoleKey).
		WithCustomAuthURL(c.authURL).
		WithClient(hc).
		WithToken(bearer)
}

func (c *authClient) InviteUserByEmail(ctx context.Context, email string, data map[string]interface{}) (*User, error) {
	resp, err := c.session(ctx, c.serviceRoleKey).Invite(types.InviteRequest{Email: email, Data: data})
	if err != nil {
		return nil, providerError(err)
	}
	return fromAuthUser(resp.User), nil
}

func (c *authClient) DeleteUser(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return &APIError{StatusCode: http.StatusBadRequest, Message: "user id is required"}
	}
	id, err := uuid.Parse(userID)
	if err != nil {
		return &APIError{StatusCode: http.StatusBadRequest, Message: "invalid user id"}
	}
	if err := c.session(ctx, c.serviceRoleKey).AdminDeleteUser(types.AdminDeleteUserRequest{UserID: id}); err != nil {
		return providerError(err)
	}
	return nil
}

// GetUser 用调用方自己的 access token 查询用户，token 无效时身份服务返回 401。
func (c *authClient) GetUser(ctx context.Context, accessToken string) (*User, error) {
	resp, err := c.session(ctx, accessToken).GetUser()
	if err != nil {
		return nil, providerError(err)
	}
	return fromAuthUser(resp.User), nil
}

func fromAuthUser(u types.User) *User {
	out := &User{Email: u.Email, UserMetadata: u.UserMetadata}
	if u.ID != uuid.Nil {
		out.ID = u.ID.String()
	}
	return out
}

type contextTransport struct {
	ctx  context.Context
	next http.RoundTripper
}

func (t contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	next := t.next
	if next == nil {
		next = http.DefaultTransport
	}
	return next.RoundTrip(req.WithContext(t.ctx))
}

// auth-go 把非 200 响应格式化为 "response status code <code>: <body>"
var statusErrPattern = regexp.MustCompile(`(?s)response status code (\d{3}): (.*)$`)

func providerError(err error) error {
	m := statusErrPattern.FindStringSubmatch(err.Error())
	if m == nil {
		return err
	}
	code, _ := strconv.Atoi(m[1])
	return &APIError{StatusCode: code, Message: errorMessage([]byte(m[2]), http.StatusText(code))}
}

// errorMessage 兼容身份服务不同版本的错误体字段。
func errorMessage(raw []byte, fallback string) string {
	var body struct {
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
		Error            string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		for _, m := range []string{body.Msg, body.Message, body.ErrorDescription, body.Error} {
			if m != "" {
				return m
			}
		}
	}
	if s := strings.TrimSpace(string(raw)); s != "" {
		return s
	}
	return fallback
}
