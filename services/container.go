package services

import (
	"github.com/Honahec/CloudBackend/oss"
	"github.com/Honahec/CloudBackend/repositories"
)

type Container struct {
	Auth    AuthService
	User    UserService
	File    FileService
	Upload  UploadService
	Drop    DropService
	Cleanup CleanupService
}

func NewContainer(repos repositories.Container, gateway oss.Gateway) *Container {
	return &Container{
		Auth:    NewAuthService(repos.Users),
		User:    NewUserService(repos.TxManager, repos.Users, repos.Files),
		File:    NewFileService(repos.TxManager, repos.Users, repos.Files, gateway),
		Upload:  NewUploadService(repos.TxManager, repos.Users, repos.Files, repos.UploadSessions, gateway),
		Drop:    NewDropService(repos.TxManager, repos.Drops, repos.Files, gateway),
		Cleanup: NewCleanupService(repos.Drops),
	}
}
