package repository

import (
	"context"
	"errors"
	"fmt"

	"LotterySync/internal/interfaces"
	"LotterySync/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LotteryRepository 游戏、开奖、奖级的 gorm 实现
type LotteryRepository struct {
	db *gorm.DB
}

func NewLotteryRepository(db *gorm.DB) *LotteryRepository {
	return &LotteryRepository{db: db}
}

var _ interfaces.LotteryStore = (*LotteryRepository)(nil)

// UpsertGame 按 slug 插入或更新名称
func (r *LotteryRepository) UpsertGame(ctx context.Context, slug, name string) (*model.Game, error) {
	game := &model.Game{Slug: slug, Name: name}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
	}).Create(game).Error; err != nil {
		return nil, fmt.Errorf("保存游戏%s失败: %w", slug, err)
	}
	// 冲突更新时部分驱动不回填主键，统一回查
	var saved model.Game
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&saved).Error; err != nil {
		return nil, err
	}
	return &saved, nil
}

// UpsertDraw 单条 INSERT ... ON CONFLICT (game_id, draw_number) DO UPDATE
func (r *LotteryRepository) UpsertDraw(ctx context.Context, draw *model.Draw) error {
	if draw.GameID == 0 {
		return errors.New("draw.GameID 不能为空")
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "game_id"}, {Name: "draw_number"}},
		DoUpdates: clause.AssignmentColumns(model.DrawUpdateColumns),
	}).Create(draw).Error; err != nil {
		return fmt.Errorf("保存开奖%d失败: %w", draw.DrawNumber, err)
	}
	var ids []uint64
	if err := r.db.WithContext(ctx).Model(&model.Draw{}).
		Where("game_id = ? AND draw_number = ?", draw.GameID, draw.DrawNumber).
		Limit(1).Pluck("id", &ids).Error; err != nil {
		return err
	}
	if len(ids) == 0 {
		return fmt.Errorf("开奖%d写入后未找到", draw.DrawNumber)
	}
	draw.ID = ids[0]
	return nil
}

// ReplacePrizes 删除该期全部奖级后一次性批量插入
func (r *LotteryRepository) ReplacePrizes(ctx context.Context, drawID uint64, prizes []*model.Prize) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("draw_id = ?", drawID).Delete(&model.Prize{}).Error; err != nil {
		return fmt.Errorf("删除奖级失败: %w, draw_id: %d", err, drawID)
	}
	if len(prizes) == 0 {
		return nil
	}
	for _, p := range prizes {
		p.ID = 0
		p.DrawID = drawID
	}
	if err := db.CreateInBatches(prizes, len(prizes)).Error; err != nil {
		return fmt.Errorf("批量插入奖级失败: %w, draw_id: %d", err, drawID)
	}
	return nil
}

func (r *LotteryRepository) GameExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Game{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetGameBySlug 不存在时返回 nil, nil
func (r *LotteryRepository) GetGameBySlug(ctx context.Context, slug string) (*model.Game, error) {
	var game model.Game
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&game).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &game, nil
}

func (r *LotteryRepository) ListGames(ctx context.Context) ([]*model.Game, error) {
	var games []*model.Game
	if err := r.db.WithContext(ctx).Order("slug ASC").Find(&games).Error; err != nil {
		return nil, err
	}
	return games, nil
}

func (r *LotteryRepository) drawsOfGame(ctx context.Context, gameSlug string) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.Draw{}).
		Joins("JOIN lottery_games ON lottery_games.id = draws.game_id").
		Where("lottery_games.slug = ?", gameSlug)
}

// FindDraw 不存在时返回 nil, nil
func (r *LotteryRepository) FindDraw(ctx context.Context, gameSlug string, drawNumber int) (*model.Draw, error) {
	var draw model.Draw
	err := r.drawsOfGame(ctx, gameSlug).
		Where("draws.draw_number = ?", drawNumber).
		Select("draws.*").
		First(&draw).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &draw, nil
}

func (r *LotteryRepository) DrawExists(ctx context.Context, gameSlug string, drawNumber int) (bool, error) {
	var count int64
	if err := r.drawsOfGame(ctx, gameSlug).
		Where("draws.draw_number = ?", drawNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ExistingDrawNumbers 一次查询取出区间内已存在的期号，避免逐期查询
func (r *LotteryRepository) ExistingDrawNumbers(ctx context.Context, gameSlug string, from, to int) (map[int]struct{}, error) {
	var numbers []int
	if err := r.drawsOfGame(ctx, gameSlug).
		Where("draws.draw_number BETWEEN ? AND ?", from, to).
		Pluck("draws.draw_number", &numbers).Error; err != nil {
		return nil, err
	}
	set := make(map[int]struct{}, len(numbers))
	for _, n := range numbers {
		set[n] = struct{}{}
	}
	return set, nil
}

func (r *LotteryRepository) CountPrizes(ctx context.Context, drawID uint64) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Prize{}).Where("draw_id = ?", drawID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// LatestDraw 期号最大的一期，没有数据时返回 nil, nil
func (r *LotteryRepository) LatestDraw(ctx context.Context, gameID uint64) (*model.Draw, error) {
	var draw model.Draw
	err := r.db.WithContext(ctx).
		Where("game_id = ?", gameID).
		Order("draw_number DESC").
		First(&draw).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &draw, nil
}

// RecentDraws 最近 limit 期，期号倒序
func (r *LotteryRepository) RecentDraws(ctx context.Context, gameSlug string, limit int) ([]*model.Draw, error) {
	if limit <= 0 {
		limit = 10
	}
	var draws []*model.Draw
	if err := r.drawsOfGame(ctx, gameSlug).
		Select("draws.*").
		Order("draws.draw_number DESC").
		Limit(limit).
		Find(&draws).Error; err != nil {
		return nil, err
	}
	return draws, nil
}

// ListDraws 该游戏全部开奖，期号正序
func (r *LotteryRepository) ListDraws(ctx context.Context, gameID uint64) ([]*model.Draw, error) {
	var draws []*model.Draw
	if err := r.db.WithContext(ctx).
		Where("game_id = ?", gameID).
		Order("draw_number ASC").
		Find(&draws).Error; err != nil {
		return nil, err
	}
	return draws, nil
}

// Transaction fn 内使用 tx 绑定的仓储，返回错误即回滚
func (r *LotteryRepository) Transaction(ctx context.Context, fn func(tx interfaces.LotteryStore) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&LotteryRepository{db: tx})
	})
}
