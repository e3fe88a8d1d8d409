package adapter

import (
	"fmt"

	"LotterySync/internal/config"
	"LotterySync/internal/interfaces"

	"github.com/sirupsen/logrus"
)

// NewLotteryClient 按配置中的 provider 创建数据源客户端
func NewLotteryClient(cfg *config.APIConfig, logger *logrus.Logger) (interfaces.LotteryClient, error) {
	factory, ok := GetFactory(cfg.Provider)
	if !ok {
		return nil, fmt.Errorf("数据源%s未注册（已注册：%v）", cfg.Provider, ListFactories())
	}
	client := factory(cfg, logger)
	if client == nil {
		return nil, fmt.Errorf("数据源%s工厂函数返回nil", cfg.Provider)
	}
	logger.WithFields(logrus.Fields{
		"provider": cfg.Provider,
		"base_url": cfg.BaseURL,
	}).Info("开奖数据源初始化成功")
	return client, nil
}
