package apiclient

import (
	"context"
	"net/http"
	"net/mail"
	"strings"
)

// Role values returned by sign-in.
const (
	RoleUser  = "USER"
	RoleGuest = "GUEST"
)

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r SignInRequest) Validate() error {
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	if strings.TrimSpace(r.Password) == "" {
		return &ValidationError{Field: "password", Message: "비밀번호를 입력해 주세요."}
	}
	return nil
}

// SignInResult is the validated sign-in response.
type SignInResult struct {
	AccessToken  string
	RefreshToken string
	Role         string
}

type signInWire struct {
	TokenServiceResponse struct {
		AccessToken  Text `json:"accessToken"`
		RefreshToken Text `json:"refreshToken"`
	} `json:"tokenServiceResponse"`
	Role Text `json:"role"`
}

type SignUpRequest struct {
	Email           string  `json:"email"`
	Password        string  `json:"password"`
	PasswordConfirm string  `json:"-"`
	Nickname        string  `json:"nickname"`
	Gender          string  `json:"gender"` // MALE | FEMALE
	Age             int     `json:"age"`
	HeightCm        float64 `json:"height"`
	WeightKg        float64 `json:"weight"`
}

func (r SignUpRequest) Validate() error {
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	if len(r.Password) < 8 {
		return &ValidationError{Field: "password", Message: "비밀번호는 8자 이상이어야 합니다."}
	}
	if r.Password != r.PasswordConfirm {
		return &ValidationError{Field: "password_confirm", Message: "비밀번호가 일치하지 않습니다."}
	}
	if strings.TrimSpace(r.Nickname) == "" {
		return &ValidationError{Field: "nickname", Message: "닉네임을 입력해 주세요."}
	}
	switch r.Gender {
	case "MALE", "FEMALE":
	default:
		return &ValidationError{Field: "gender", Message: "성별을 선택해 주세요."}
	}
	if r.Age < 1 || r.Age > 120 {
		return &ValidationError{Field: "age", Message: "나이를 확인해 주세요."}
	}
	if r.HeightCm < 50 || r.HeightCm > 250 {
		return &ValidationError{Field: "height", Message: "키를 확인해 주세요."}
	}
	if r.WeightKg < 20 || r.WeightKg > 300 {
		return &ValidationError{Field: "weight", Message: "몸무게를 확인해 주세요."}
	}
	return nil
}

// User is the profile returned by GET /users/me.
type User struct {
	UserID              int64
	Email               string
	Nickname            string
	Gender              string
	Age                 int
	HeightCm            float64
	WeightKg            float64
	RecommendedCalories float64
}

type userWire struct {
	UserID              Number `json:"userId"`
	Email               Text   `json:"email"`
	Nickname            Text   `json:"nickname"`
	Gender              Text   `json:"gender"`
	Age                 Number `json:"age"`
	Height              Number `json:"height"`
	Weight              Number `json:"weight"`
	RecommendedCalories Number `json:"recommendedCalories"`
}

// SignIn exchanges credentials for a token pair. It does not store the tokens.
func (c *Client) SignIn(ctx context.Context, in SignInRequest) (*SignInResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	req, err := jsonRequest(http.MethodPost, "/users/sign-in", in, false)
	if err != nil {
		return nil, err
	}

	var wire signInWire
	if err := c.doJSON(ctx, req, &wire); err != nil {
		return nil, err
	}

	result := &SignInResult{
		AccessToken:  strings.TrimSpace(wire.TokenServiceResponse.AccessToken.String()),
		RefreshToken: strings.TrimSpace(wire.TokenServiceResponse.RefreshToken.String()),
		Role:         strings.TrimSpace(wire.Role.String()),
	}
	if result.AccessToken == "" {
		return nil, malformed("sign-in response has no accessToken")
	}
	if result.Role == "" {
		result.Role = RoleUser
	}
	return result, nil
}

func (c *Client) SignUp(ctx context.Context, in SignUpRequest) error {
	if err := in.Validate(); err != nil {
		return err
	}
	req, err := jsonRequest(http.MethodPost, "/users/sign-up", in, false)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, req)
	return err
}

func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, request{method: http.MethodPost, path: "/users/logout", auth: true})
	return err
}

func (c *Client) Withdraw(ctx context.Context) error {
	_, err := c.do(ctx, request{method: http.MethodDelete, path: "/users/withdraw", auth: true})
	return err
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	body, err := c.do(ctx, request{method: http.MethodGet, path: "/users/me", auth: true})
	if err != nil {
		return nil, err
	}

	var wire userWire
	if err := decodeJSON(unwrapObject(body), &wire); err != nil {
		return nil, err
	}

	return &User{
		UserID:              int64(wire.UserID),
		Email:               wire.Email.String(),
		Nickname:            wire.Nickname.String(),
		Gender:              wire.Gender.String(),
		Age:                 int(wire.Age),
		HeightCm:            wire.Height.Float(),
		WeightKg:            wire.Weight.Float(),
		RecommendedCalories: wire.RecommendedCalories.Float(),
	}, nil
}

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return &ValidationError{Field: "email", Message: "이메일을 입력해 주세요."}
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return &ValidationError{Field: "email", Message: "이메일 형식이 올바르지 않습니다."}
	}
	return nil
}
