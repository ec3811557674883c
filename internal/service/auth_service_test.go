package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/azizhamoud35/namatclinic3/internal/domain"

	"github.com/golang-jwt/jwt/v4"
)

const testJWTSecret = "test-secret"

func TestRegisterAndLogin(t *testing.T) {
	users := &fakeUserRepo{}
	svc := NewAuthService(users, testJWTSecret, time.Hour)

	user, err := svc.Register(context.Background(), "Sara", "Ahmed", "sara@example.com", "s3cret", domain.RoleCustomer)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.PasswordHash == "s3cret" {
		t.Error("password stored in the clear")
	}
	if user.Status != domain.UserActive {
		t.Errorf("status = %q, want active", user.Status)
	}

	token, loggedIn, err := svc.Login(context.Background(), "sara@example.com", "s3cret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if loggedIn.ID != user.ID {
		t.Errorf("logged-in user %v, want %v", loggedIn.ID, user.ID)
	}

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims["uid"] != user.ID.Hex() {
		t.Errorf("uid claim = %v, want %s", claims["uid"], user.ID.Hex())
	}
	if claims["role"] != string(domain.RoleCustomer) {
		t.Errorf("role claim = %v, want customer", claims["role"])
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	users := &fakeUserRepo{}
	svc := NewAuthService(users, testJWTSecret, time.Hour)

	if _, err := svc.Register(context.Background(), "Sara", "Ahmed", "sara@example.com", "s3cret", domain.RoleCustomer); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(context.Background(), "Other", "Person", "sara@example.com", "pass", domain.RoleCoach); !errors.Is(err, ErrUserAlreadyExists) {
		t.Fatalf("err = %v, want ErrUserAlreadyExists", err)
	}
}

func TestRegister_RejectsUnknownRole(t *testing.T) {
	users := &fakeUserRepo{}
	svc := NewAuthService(users, testJWTSecret, time.Hour)

	if _, err := svc.Register(context.Background(), "Sara", "Ahmed", "sara@example.com", "s3cret", domain.Role("owner")); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("err = %v, want ErrInvalidRole", err)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	users := &fakeUserRepo{}
	svc := NewAuthService(users, testJWTSecret, time.Hour)

	if _, err := svc.Register(context.Background(), "Sara", "Ahmed", "sara@example.com", "s3cret", domain.RoleCustomer); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "sara@example.com", "wrong"); !errors.Is(err, ErrAuthenticationFailed) {
		t.Fatalf("wrong password err = %v, want ErrAuthenticationFailed", err)
	}
	if _, _, err := svc.Login(context.Background(), "nobody@example.com", "s3cret"); !errors.Is(err, ErrAuthenticationFailed) {
		t.Fatalf("unknown email err = %v, want ErrAuthenticationFailed", err)
	}
}
