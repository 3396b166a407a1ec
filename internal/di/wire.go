//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	chathandler "leafchat/internal/chat/handler"
	"leafchat/internal/chat/repository"
	"leafchat/internal/chat/service"
	"leafchat/internal/config"
	"leafchat/internal/dbmysql"
	"leafchat/internal/user"
)

// InitializeApplication builds the full dependency graph for the server.
func InitializeApplication() (*Application, error) {
	wire.Build(
		config.LoadConfig,
		dbmysql.NewMySQL,
		repository.NewConversationRepository,
		repository.NewMessageRepository,
		service.NewChatService,
		chathandler.NewChatHandler,
		user.NewUserRepository,
		user.NewUserService,
		user.NewHandler,
		wire.Struct(new(Application), "*"),
	)
	return &Application{}, nil
}
