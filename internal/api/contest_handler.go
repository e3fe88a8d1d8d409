package api

import (
	"net/http"
	"strconv"
	"time"

	"LotterySync/internal/repository"
	"LotterySync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ContestHandler 开奖查询接口
type ContestHandler struct {
	results *service.ResultsService
	logger  *logrus.Logger
}

func NewContestHandler(results *service.ResultsService, logger *logrus.Logger) *ContestHandler {
	return &ContestHandler{results: results, logger: logger}
}

// LatestAll 每个游戏最新一期
// GET /contests/latest
func (h *ContestHandler) LatestAll(c *gin.Context) {
	result, err := h.results.LatestAll(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, "LatestAll", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Latest GET /contests/latest/:game
func (h *ContestHandler) Latest(c *gin.Context) {
	result, err := h.results.Latest(c.Request.Context(), c.Param("game"))
	if err != nil {
		writeError(c, h.logger, "Latest", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// History 历史开奖分页
// GET /contests/history/:game?page=1&page_size=20&from_date=2025-01-01&to_date=2025-12-31&accumulated=true
func (h *ContestHandler) History(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	filter := repository.DrawFilter{GameSlug: c.Param("game")}
	for name, dst := range map[string]**time.Time{"from_date": &filter.FromDate, "to_date": &filter.ToDate} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": name + " deve estar no formato AAAA-MM-DD"})
			return
		}
		*dst = &t
	}
	if raw := c.Query("accumulated"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "accumulated deve ser true ou false"})
			return
		}
		filter.Accumulated = &v
	}

	result, err := h.results.History(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		writeError(c, h.logger, "History", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type checkNumbersRequest struct {
	Numbers []int `json:"numbers" binding:"required,min=1,dive,min=1"`
}

// CheckNumbers 号码是否曾经开出
// POST /contests/check/:game {"numbers":[4,5,30,33,41,52]}
func (h *ContestHandler) CheckNumbers(c *gin.Context) {
	var req checkNumbersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Números inválidos", "errors": []string{err.Error()}})
		return
	}
	result, err := h.results.CheckNumbers(c.Request.Context(), c.Param("game"), req.Numbers)
	if err != nil {
		writeError(c, h.logger, "CheckNumbers", err)
		return
	}
	c.JSON(http.StatusOK, result)
}
