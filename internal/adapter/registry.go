package adapter

import (
	"fmt"
	"sort"

	"LotterySync/internal/config"
	"LotterySync/internal/interfaces"

	"github.com/sirupsen/logrus"
)

// Factory 数据源客户端工厂函数
type Factory func(cfg *config.APIConfig, logger *logrus.Logger) interfaces.LotteryClient

var factoryRegistry = make(map[string]Factory)

// Register 供数据源包的 init 调用
func Register(provider string, factory Factory) {
	if factory == nil {
		panic(fmt.Sprintf("数据源%s的工厂函数不能为nil", provider))
	}
	if _, exists := factoryRegistry[provider]; exists {
		logrus.Warnf("数据源%s已注册，将覆盖原有实现", provider)
	}
	factoryRegistry[provider] = factory
}

// GetFactory 获取指定数据源的工厂函数
func GetFactory(provider string) (Factory, bool) {
	factory, ok := factoryRegistry[provider]
	return factory, ok
}

// ListFactories 已注册的数据源名称（排序后）
func ListFactories() []string {
	providers := make([]string, 0, len(factoryRegistry))
	for p := range factoryRegistry {
		providers = append(providers, p)
	}
	sort.Strings(providers)
	return providers
}
