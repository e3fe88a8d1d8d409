package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Game 彩票游戏，slug 为自然键
type Game struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	Slug      string    `gorm:"column:slug;type:varchar(64);uniqueIndex;not null"`
	Name      string    `gorm:"column:name;type:varchar(128);not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Draw 一期开奖（concurso），(game_id, draw_number) 唯一
type Draw struct {
	ID                     uint64              `gorm:"column:id;primaryKey;autoIncrement"`
	GameID                 uint64              `gorm:"column:game_id;type:bigint;not null;uniqueIndex:uk_game_draw"`
	DrawNumber             int                 `gorm:"column:draw_number;type:integer;not null;uniqueIndex:uk_game_draw"`
	DrawDate               *time.Time          `gorm:"column:draw_date;type:date"`
	Location               *string             `gorm:"column:location;type:varchar(256)"`
	Numbers                datatypes.JSON      `gorm:"column:numbers;type:jsonb;not null"`
	HasAccumulated         bool                `gorm:"column:has_accumulated;type:boolean;default:false"`
	NextDrawNumber         *int                `gorm:"column:next_draw_number;type:integer"`
	NextDrawDate           *time.Time          `gorm:"column:next_draw_date;type:date"`
	EstimatedPrizeNextDraw decimal.NullDecimal `gorm:"column:estimated_prize_next_draw;type:numeric(14,2)"`
	ExtraData              datatypes.JSON      `gorm:"column:extra_data;type:jsonb"`
	CreatedAt              time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// Prize 奖级，(draw_id, tier) 唯一；每次导入整体替换
type Prize struct {
	ID          uint64          `gorm:"column:id;primaryKey;autoIncrement"`
	DrawID      uint64          `gorm:"column:draw_id;type:bigint;not null;uniqueIndex:uk_draw_tier"`
	Tier        int             `gorm:"column:tier;type:integer;not null;uniqueIndex:uk_draw_tier"`
	Description string          `gorm:"column:description;type:text"`
	Winners     int             `gorm:"column:winners;type:integer;not null;default:0"`
	PrizeAmount decimal.Decimal `gorm:"column:prize_amount;type:numeric(14,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Game) TableName() string  { return "lottery_games" }
func (Draw) TableName() string  { return "draws" }
func (Prize) TableName() string { return "prizes" }

// DrawUpdateColumns 重复导入时覆盖的可变字段
var DrawUpdateColumns = []string{
	"draw_date", "location", "numbers", "has_accumulated", "next_draw_number",
	"next_draw_date", "estimated_prize_next_draw", "extra_data", "updated_at",
}
