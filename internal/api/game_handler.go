package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"LotterySync/internal/adapter/caixa"
	"LotterySync/internal/model"
	"LotterySync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// GameHandler 智能选号接口，按客户端 IP 统计当日额度
type GameHandler struct {
	generator *service.GeneratorService
	logger    *logrus.Logger
}

func NewGameHandler(generator *service.GeneratorService, logger *logrus.Logger) *GameHandler {
	return &GameHandler{generator: generator, logger: logger}
}

// Generate POST /games/generate/:game?count=3
func (h *GameHandler) Generate(c *gin.Context) {
	game := c.Param("game")
	count := 1
	if raw := c.Query("count"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Dados inválidos", "errors": []string{"count deve ser um número inteiro"}})
			return
		}
		count = v
	}

	result, err := h.generator.GenerateForClient(c.Request.Context(), game, count, c.ClientIP())
	if err != nil {
		var unknown *model.UnknownGameError
		if errors.As(err, &unknown) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Jogo não suportado", "supported_games": h.generator.SupportedGames()})
			return
		}
		writeError(c, h.logger, "Generate", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"game":          result.Game,
		"games":         result.Games,
		"count":         result.Count,
		"session_stats": result.SessionStats,
		"config":        result.Config,
	})
}

type gameInfo struct {
	Name         string `json:"name"`
	PickCount    int    `json:"pick_count"`
	NumberRange  string `json:"number_range"`
	TotalNumbers int    `json:"total_numbers"`
}

// Info GET /games/info
func (h *GameHandler) Info(c *gin.Context) {
	games := make(map[string]gameInfo)
	for _, slug := range h.generator.SupportedGames() {
		sh, _ := h.generator.GameConfig(slug)
		games[slug] = gameInfo{
			Name:         caixa.DisplayName(slug),
			PickCount:    sh.PickCount,
			NumberRange:  fmt.Sprintf("%d-%d", sh.MinNumber, sh.MaxNumber),
			TotalNumbers: sh.TotalNumbers,
		}
	}
	limit := h.generator.DailyLimit()
	c.JSON(http.StatusOK, gin.H{
		"supported_games": games,
		"daily_limit":     limit,
		"rules": gin.H{
			"smart_generation": "Evita números premiados recentemente",
			"max_overlap":      "40% máximo de sobreposição com números recentes",
			"session_limit":    fmt.Sprintf("%d jogos por IP/sessão por dia", limit),
		},
	})
}

// SessionStats GET /games/session-stats
func (h *GameHandler) SessionStats(c *gin.Context) {
	stats, err := h.generator.SessionStats(c.Request.Context(), c.ClientIP())
	if err != nil {
		writeError(c, h.logger, "SessionStats", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"generated_today": stats.GeneratedToday,
		"remaining":       stats.Remaining,
		"daily_limit":     stats.DailyLimit,
		"reset_time":      "Meia-noite (00:00)",
	})
}
