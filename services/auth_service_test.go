package services

import (
	"context"
	"testing"

	"github.com/Honahec/CloudBackend/models"
	"github.com/Honahec/CloudBackend/utils"
)

func TestRegisterAndLogin(t *testing.T) {
	setupTestConfig()
	users := newFakeUserRepo()
	service := NewAuthService(users)

	user, err := service.Register(context.Background(), RegisterInput{
		Username: "alice",
		Password: "password123",
		Email:    "alice@example.com",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.ID == 0 {
		t.Fatal("registered user must get an ID")
	}

	stored, _ := users.GetByID(context.Background(), nil, user.ID)
	if stored.Password == "password123" {
		t.Fatal("password must be stored hashed")
	}
	if stored.Quota != 10*1024*1024*1024 {
		t.Errorf("quota = %d, want default 10 GiB", stored.Quota)
	}

	out, err := service.Login(context.Background(), LoginInput{Username: "alice", Password: "password123"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	claims, err := utils.ParseToken(out.Token)
	if err != nil {
		t.Fatalf("issued token must parse: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("token user_id = %d, want %d", claims.UserID, user.ID)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	setupTestConfig()
	users := newFakeUserRepo()
	users.addUser(models.User{ID: 1, Username: "alice"})
	service := NewAuthService(users)

	_, err := service.Register(context.Background(), RegisterInput{
		Username: "alice",
		Password: "password123",
		Email:    "alice@example.com",
	})
	if ErrorCode(err) != CodeValidationError {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	setupTestConfig()
	users := newFakeUserRepo()
	hash, _ := utils.HashPassword("correct")
	users.addUser(models.User{ID: 1, Username: "alice", Password: hash})
	service := NewAuthService(users)

	if _, err := service.Login(context.Background(), LoginInput{Username: "alice", Password: "wrong"}); ErrorCode(err) != CodePermissionDenied {
		t.Fatalf("expected PERMISSION_DENIED, got %v", err)
	}
	// 未知用户与密码错误不可区分
	if _, err := service.Login(context.Background(), LoginInput{Username: "nobody", Password: "x"}); ErrorCode(err) != CodePermissionDenied {
		t.Fatalf("expected PERMISSION_DENIED, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	setupTestConfig()
	users := newFakeUserRepo()
	hash, _ := utils.HashPassword("old-pass")
	users.addUser(models.User{ID: 1, Username: "alice", Password: hash})
	service := NewAuthService(users)

	if err := service.ChangePassword(context.Background(), 1, "wrong", "new-pass"); ErrorCode(err) != CodeValidationError {
		t.Fatalf("wrong old password: expected VALIDATION_ERROR, got %v", err)
	}
	if err := service.ChangePassword(context.Background(), 1, "old-pass", "new-pass"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}

	stored, _ := users.GetByID(context.Background(), nil, 1)
	if !utils.CheckPassword("new-pass", stored.Password) {
		t.Error("new password must verify after change")
	}
}
