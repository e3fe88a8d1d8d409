package repository

import (
	"context"
	"time"

	"LotterySync/internal/model"

	"gorm.io/gorm"
)

// DrawFilter 历史开奖列表筛选条件
type DrawFilter struct {
	GameSlug    string     // 必填
	FromDate    *time.Time // 开奖日期起
	ToDate      *time.Time // 开奖日期止
	Accumulated *bool      // 仅看是否滚存
}

// DrawQueryRepository 面向查询接口的只读仓储
type DrawQueryRepository interface {
	// ListDraws 按过滤条件分页查询开奖，期号倒序
	ListDraws(ctx context.Context, filter DrawFilter, page, pageSize int) ([]*model.Draw, int64, error)
	// GetPrizesByDrawIDs 批量查询奖级
	GetPrizesByDrawIDs(ctx context.Context, drawIDs []uint64) ([]*model.Prize, error)
}

type drawQueryRepository struct {
	db *gorm.DB
}

// NewDrawQueryRepository 创建 DrawQueryRepository 实例
func NewDrawQueryRepository(db *gorm.DB) DrawQueryRepository {
	return &drawQueryRepository{db: db}
}

func (r *drawQueryRepository) ListDraws(ctx context.Context, filter DrawFilter, page, pageSize int) ([]*model.Draw, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	db := r.db.WithContext(ctx).Model(&model.Draw{}).
		Joins("JOIN lottery_games ON lottery_games.id = draws.game_id").
		Where("lottery_games.slug = ?", filter.GameSlug)
	if filter.FromDate != nil {
		db = db.Where("draws.draw_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		db = db.Where("draws.draw_date <= ?", *filter.ToDate)
	}
	if filter.Accumulated != nil {
		db = db.Where("draws.has_accumulated = ?", *filter.Accumulated)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var draws []*model.Draw
	if err := db.
		Select("draws.*").
		Order("draws.draw_number DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&draws).Error; err != nil {
		return nil, 0, err
	}
	return draws, total, nil
}

func (r *drawQueryRepository) GetPrizesByDrawIDs(ctx context.Context, drawIDs []uint64) ([]*model.Prize, error) {
	if len(drawIDs) == 0 {
		return []*model.Prize{}, nil
	}
	var prizes []*model.Prize
	if err := r.db.WithContext(ctx).
		Where("draw_id IN ?", drawIDs).
		Order("draw_id ASC, tier ASC").
		Find(&prizes).Error; err != nil {
		return nil, err
	}
	return prizes, nil
}
