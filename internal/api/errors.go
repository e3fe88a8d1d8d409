package api

import (
	"errors"
	"net/http"
	"strconv"

	"LotterySync/internal/model"
	"LotterySync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// writeError 按错误类型输出状态码与错误体
func writeError(c *gin.Context, logger *logrus.Logger, op string, err error) {
	var (
		unknown   *model.UnknownGameError
		verr      *model.ValidationError
		invalid   *model.InvalidRangeError
		quota     *model.QuotaExceededError
		status    *model.UpstreamStatusError
		transport *model.TransportError
		malformed *model.MalformedPayloadError
	)
	switch {
	case errors.As(err, &unknown):
		available := unknown.Available
		if available == nil {
			available = []string{}
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "Jogo não encontrado", "available_games": available})
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dados inválidos", "errors": verr.Errors})
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": invalid.Error()})
	case errors.As(err, &quota):
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":           quota.Error(),
			"generated_today": quota.Generated,
			"remaining":       quota.Remaining(),
			"max_allowed":     quota.Remaining(),
		})
	case errors.Is(err, service.ErrNoDraws):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &status), errors.As(err, &transport), errors.As(err, &malformed):
		logger.WithError(err).Warnf("%s: 数据源异常", op)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Falha ao consultar a API de loterias", "message": err.Error()})
	default:
		logger.WithError(err).Errorf("%s failed", op)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro interno", "message": err.Error()})
	}
}

// optionalInt 读取可选的整数查询参数，缺省返回 nil
func optionalInt(c *gin.Context, name string) (*int, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, &model.ValidationError{Errors: []string{name + " deve ser um número inteiro"}}
	}
	return &v, nil
}
