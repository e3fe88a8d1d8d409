package catalog

import (
	"context"
	"fmt"
	"time"

	"LotterySync/internal/config"
	"LotterySync/internal/interfaces"

	"github.com/sirupsen/logrus"
)

// Static 配置文件中的固定游戏列表
type Static struct {
	slugs []string
	set   map[string]struct{}
}

var _ interfaces.GameCatalog = (*Static)(nil)

func NewStatic(entries []config.GameEntry) *Static {
	s := &Static{set: make(map[string]struct{}, len(entries))}
	for _, e := range entries {
		if _, dup := s.set[e.Slug]; dup {
			continue
		}
		s.set[e.Slug] = struct{}{}
		s.slugs = append(s.slugs, e.Slug)
	}
	return s
}

func (s *Static) List(context.Context) ([]string, error) {
	out := make([]string, len(s.slugs))
	copy(out, s.slugs)
	return out, nil
}

func (s *Static) Exists(_ context.Context, slug string) (bool, error) {
	_, ok := s.set[slug]
	return ok, nil
}

// Store lottery_games 表中的游戏，Exists 结果按 ttl 缓存
type Store struct {
	store interfaces.LotteryStore
	cache interfaces.Cache
	ttl   time.Duration
}

var _ interfaces.GameCatalog = (*Store)(nil)

func NewStore(store interfaces.LotteryStore, cache interfaces.Cache, ttl time.Duration) *Store {
	return &Store{store: store, cache: cache, ttl: ttl}
}

func ExistsCacheKey(slug string) string {
	return "lottery_game_exists_" + slug
}

func (s *Store) List(ctx context.Context) ([]string, error) {
	games, err := s.store.ListGames(ctx)
	if err != nil {
		return nil, err
	}
	slugs := make([]string, 0, len(games))
	for _, g := range games {
		slugs = append(slugs, g.Slug)
	}
	return slugs, nil
}

func (s *Store) Exists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := s.cache.GetOrCompute(ctx, ExistsCacheKey(slug), s.ttl, &exists, func(ctx context.Context) (any, error) {
		return s.store.GameExists(ctx, slug)
	})
	return exists, err
}

// New 按 lottery.games.source 选择目录实现
func New(cfg config.GamesConfig, store interfaces.LotteryStore, cache interfaces.Cache, ttl time.Duration, logger *logrus.Logger) (interfaces.GameCatalog, error) {
	switch cfg.Source {
	case "static", "":
		logger.WithField("games", len(cfg.Catalog)).Info("使用静态游戏目录")
		return NewStatic(cfg.Catalog), nil
	case "database":
		logger.Info("使用数据库游戏目录")
		return NewStore(store, cache, ttl), nil
	default:
		return nil, fmt.Errorf("未知的游戏目录来源: %s", cfg.Source)
	}
}
