package commands

import (
	"context"

	"go.uber.org/zap"

	"github.com/lifeline-network/lifeline-engine/internal/config"
	"github.com/lifeline-network/lifeline-engine/pkg/core/services"
	"github.com/lifeline-network/lifeline-engine/pkg/db"
	"github.com/lifeline-network/lifeline-engine/pkg/locks"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg      *config.Config
	Database db.Database
	LockMgr  *locks.Manager
	Notifier services.Notifier
	Logger   *zap.Logger
	Ctx      context.Context
}
