package interfaces

import (
	"context"

	"LotterySync/internal/model"
)

// LotteryClient 开奖数据源必须实现的接口
type LotteryClient interface {
	GetName() string
	FetchLatest(ctx context.Context, game string) (*model.RawDraw, error)
	FetchByNumber(ctx context.Context, game string, drawNumber int) (*model.RawDraw, error)
}

// DrawNormalizer 将原始开奖数据转换为数据库模型
type DrawNormalizer interface {
	ConvertToDBModel(raw *model.RawDraw) (*model.ConvertedDraw, error)
}

// ContestImporter 后台任务执行单期导入所需的能力
type ContestImporter interface {
	ImportContest(ctx context.Context, game string, drawNumber int) (*model.ContestResult, error)
}
