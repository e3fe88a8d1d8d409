package api

import (
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
)

// Handlers 路由依赖的全部处理器
type Handlers struct {
	Sync    *SyncHandler
	Contest *ContestHandler
	Game    *GameHandler
}

// NewRouter 注册全部路由；mode 为 gin 运行模式（debug/release/test）
func NewRouter(mode string, h Handlers) *gin.Engine {
	gin.SetMode(mode)
	r := gin.Default()

	// 注册ppof 方便调试和监测性能问题
	pprof.Register(r)

	r.POST("/sync/:game", h.Sync.SyncLatestHandler)
	r.POST("/sync/:game/missing", h.Sync.SyncMissingHandler)
	r.POST("/sync/:game/contests/:number", h.Sync.SyncContestHandler)

	contests := r.Group("/contests")
	contests.GET("/latest", h.Contest.LatestAll)
	contests.GET("/latest/:game", h.Contest.Latest)
	contests.GET("/history/:game", h.Contest.History)
	contests.POST("/check/:game", h.Contest.CheckNumbers)

	games := r.Group("/games")
	games.GET("/info", h.Game.Info)
	games.GET("/session-stats", h.Game.SessionStats)
	games.POST("/generate/:game", h.Game.Generate)

	return r
}
