package interfaces

import (
	"context"

	"gorm.io/gorm"
)

// DuelResolver 对决结算（外部协作方）。必须只使用传入的事务句柄，不得自行提交
type DuelResolver interface {
	ResolveDuel(ctx context.Context, tx *gorm.DB, matchID uint64) error
}
