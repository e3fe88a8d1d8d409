package api

import (
	"net/http"
	"strconv"

	"LotterySync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type SyncHandler struct {
	importer *service.ImportService
	logger   *logrus.Logger
}

func NewSyncHandler(importer *service.ImportService, logger *logrus.Logger) *SyncHandler {
	return &SyncHandler{
		importer: importer,
		logger:   logger,
	}
}

// SyncLatestHandler 导入指定游戏的最新一期
// @Param game path string true "游戏（megasena/lotofacil/quina）"
// @Router /sync/{game} [post]
func (h *SyncHandler) SyncLatestHandler(c *gin.Context) {
	game := c.Param("game")
	result, err := h.importer.ImportGame(c.Request.Context(), game)
	if err != nil {
		h.logger.Errorf("同步%s失败: %v", game, err)
		writeError(c, h.logger, "SyncLatest", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// SyncContestHandler 导入指定期，已存在时直接返回
// @Router /sync/{game}/contests/{number} [post]
func (h *SyncHandler) SyncContestHandler(c *gin.Context) {
	game := c.Param("game")
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil || number < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "número do concurso inválido"})
		return
	}
	result, err := h.importer.ImportContest(c.Request.Context(), game, number)
	if err != nil {
		writeError(c, h.logger, "SyncContest", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// SyncMissingHandler 补齐缺失期次，数量超过阈值时转后台并返回 202
// POST /sync/:game/missing?from=1&to=100
func (h *SyncHandler) SyncMissingHandler(c *gin.Context) {
	game := c.Param("game")
	from, err := optionalInt(c, "from")
	if err != nil {
		writeError(c, h.logger, "SyncMissing", err)
		return
	}
	to, err := optionalInt(c, "to")
	if err != nil {
		writeError(c, h.logger, "SyncMissing", err)
		return
	}

	result, err := h.importer.ImportMissingContests(c.Request.Context(), game, from, to)
	if err != nil {
		writeError(c, h.logger, "SyncMissing", err)
		return
	}
	if result.JobID != "" {
		c.JSON(http.StatusAccepted, result)
		return
	}
	c.JSON(http.StatusOK, result)
}
