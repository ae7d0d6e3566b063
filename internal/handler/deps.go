package handler

import (
	"pulsechat/internal/app/account"
	"pulsechat/internal/app/chat"
	"pulsechat/internal/app/session"
	"pulsechat/internal/configs"
)

// AppDeps bundles the services the HTTP handlers depend on.
type AppDeps struct {
	Hub      *chat.Hub
	Config   *configs.AppConfig
	Sessions *session.Store
	Accounts *account.Service
}
