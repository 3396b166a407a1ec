package di

import (
	"gorm.io/gorm"

	chathandler "leafchat/internal/chat/handler"
	"leafchat/internal/config"
	"leafchat/internal/user"
)

// Application bundles everything the server binary needs.
type Application struct {
	Config *config.Config
	DB     *gorm.DB
	Chat   *chathandler.ChatHandler
	Users  *user.Handler
}
