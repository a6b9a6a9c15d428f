// Package internal wires the long lived services handed to every handler
package internal

import (
	"startupconnect/api/internal/service"
	"startupconnect/api/pkg/security"

	"github.com/jellydator/ttlcache/v2"
	"gorm.io/gorm"
)

type Deps struct {
	DB           *gorm.DB
	Argon        *security.Argon2id
	Storage      service.Storage
	Accounts     *service.Accounts
	Verification *service.Verification
	Notifier     *service.Notifier
	Dispatcher   *service.Dispatcher
	Mailer       service.MailSender

	// Users that recently asked for a new verification mail
	ResendCooldown *ttlcache.Cache
}
