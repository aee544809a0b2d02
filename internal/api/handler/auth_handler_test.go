package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/zsea1234/ZhiWU-sub000/internal/core/domain"
)

type stubAuthService struct {
	registered  *domain.User
	registerErr error
	token       string
	loginErr    error
}

func (s *stubAuthService) Register(_ context.Context, username, _, email string, role domain.Role) (*domain.User, error) {
	if s.registerErr != nil {
		return nil, s.registerErr
	}
	s.registered = &domain.User{ID: "user_1", Username: username, Email: email, Role: role}
	return s.registered, nil
}

func (s *stubAuthService) Login(_ context.Context, username, _ string) (string, *domain.User, error) {
	if s.loginErr != nil {
		return "", nil, s.loginErr
	}
	return s.token, &domain.User{ID: "user_1", Username: username, Role: domain.RoleTenant}, nil
}

func postJSON(t *testing.T, h echo.HandlerFunc, path, body string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return rec, h(e.NewContext(req, rec))
}

func TestAuthHandler_Register(t *testing.T) {
	svc := &stubAuthService{}
	h := NewAuthHandler(svc)

	rec, err := postJSON(t, h.Register, "/auth/register",
		`{"username":"alice","password":"s3cret-pass","role":"tenant"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	if svc.registered == nil || svc.registered.Role != domain.RoleTenant {
		t.Error("registration must reach the service with the requested role")
	}
}

func TestAuthHandler_Register_ShortPassword(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{})

	_, err := postJSON(t, h.Register, "/auth/register",
		`{"username":"alice","password":"short","role":"tenant"}`)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestAuthHandler_Register_BadRole(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{})

	_, err := postJSON(t, h.Register, "/auth/register",
		`{"username":"alice","password":"s3cret-pass","role":"superuser"}`)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestAuthHandler_Login(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{token: "signed.jwt.token"})

	rec, err := postJSON(t, h.Login, "/auth/login",
		`{"username":"alice","password":"s3cret-pass"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var body authResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body.Token != "signed.jwt.token" {
		t.Errorf("expected token in response, got %q", body.Token)
	}
}

func TestAuthHandler_Login_ServiceErrorPropagates(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{loginErr: domain.ErrInvalidCredentials})

	_, err := postJSON(t, h.Login, "/auth/login",
		`{"username":"alice","password":"wrong-pass"}`)
	if err != domain.ErrInvalidCredentials {
		t.Fatalf("the sentinel must reach the central error handler, got %v", err)
	}
}
