package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// GameShape 号码池配置
type GameShape struct {
	Slug         string `json:"slug"`
	TotalNumbers int    `json:"total_numbers"`
	PickCount    int    `json:"pick_count"`
	MinNumber    int    `json:"min_number"`
	MaxNumber    int    `json:"max_number"`
}

// ValidationResult 号码校验结果
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// SessionStats 单个客户端当日选号统计
type SessionStats struct {
	GeneratedToday int `json:"generated_today"`
	Remaining      int `json:"remaining"`
	DailyLimit     int `json:"daily_limit"`
}

// DrawView 对外展示的开奖信息，numbers 原样输出
type DrawView struct {
	DrawNumber int             `json:"draw_number"`
	DrawDate   *string         `json:"draw_date"`
	Location   *string         `json:"location"`
	Numbers    json.RawMessage `json:"numbers"`
}

// LatestDraw 某游戏最新一期
type LatestDraw struct {
	Game    GameView `json:"game"`
	Contest DrawView `json:"contest"`
}

// GameView 游戏基本信息
type GameView struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// CheckResult 用户号码是否曾经中过头奖
type CheckResult struct {
	Winner      bool       `json:"winner"`
	Message     string     `json:"message"`
	UserNumbers []int      `json:"user_numbers"`
	Contests    []DrawView `json:"contests,omitempty"`
	TotalWins   int        `json:"total_wins,omitempty"`
	Suggestion  string     `json:"suggestion,omitempty"`
}

// GenerateResult 一次选号请求的结果
type GenerateResult struct {
	Game         string       `json:"game"`
	Games        [][]int      `json:"games"`
	Count        int          `json:"count"`
	SessionStats SessionStats `json:"session_stats"`
	Config       GameShape    `json:"config"`
}

// PrizeView 对外展示的奖级
type PrizeView struct {
	Tier        int             `json:"tier"`
	Description string          `json:"description"`
	Winners     int             `json:"winners"`
	PrizeAmount decimal.Decimal `json:"prize_amount"`
}

// DrawDetail 历史列表中的一期，含奖级
type DrawDetail struct {
	DrawView
	HasAccumulated         bool                `json:"has_accumulated"`
	NextDrawNumber         *int                `json:"next_draw_number"`
	NextDrawDate           *string             `json:"next_draw_date"`
	EstimatedPrizeNextDraw decimal.NullDecimal `json:"estimated_prize_next_draw"`
	Prizes                 []PrizeView         `json:"prizes"`
}

// DrawPage 分页结果
type DrawPage struct {
	Game     string       `json:"game"`
	Items    []DrawDetail `json:"items"`
	Total    int64        `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
}
