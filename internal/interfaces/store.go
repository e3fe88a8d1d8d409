package interfaces

import (
	"context"

	"LotterySync/internal/model"
)

// LotteryStore 开奖数据持久化（关系型存储）
type LotteryStore interface {
	UpsertGame(ctx context.Context, slug, name string) (*model.Game, error)
	UpsertDraw(ctx context.Context, draw *model.Draw) error
	ReplacePrizes(ctx context.Context, drawID uint64, prizes []*model.Prize) error

	GameExists(ctx context.Context, slug string) (bool, error)
	GetGameBySlug(ctx context.Context, slug string) (*model.Game, error)
	ListGames(ctx context.Context) ([]*model.Game, error)

	FindDraw(ctx context.Context, gameSlug string, drawNumber int) (*model.Draw, error)
	DrawExists(ctx context.Context, gameSlug string, drawNumber int) (bool, error)
	ExistingDrawNumbers(ctx context.Context, gameSlug string, from, to int) (map[int]struct{}, error)
	CountPrizes(ctx context.Context, drawID uint64) (int64, error)
	LatestDraw(ctx context.Context, gameID uint64) (*model.Draw, error)
	RecentDraws(ctx context.Context, gameSlug string, limit int) ([]*model.Draw, error)
	ListDraws(ctx context.Context, gameID uint64) ([]*model.Draw, error)

	// Transaction 在同一事务内执行 fn，fn 返回错误则整体回滚
	Transaction(ctx context.Context, fn func(tx LotteryStore) error) error
}

// GameCatalog 支持导入的游戏目录（静态配置或数据库）
type GameCatalog interface {
	List(ctx context.Context) ([]string, error)
	Exists(ctx context.Context, slug string) (bool, error)
}
