package interfaces

import (
	"encoding/json"
	"fmt"
)

// JSONValues 逐个编码为 JSON 字符串，结果可直接作为 LPUSH/RPUSH 的可变参数
func JSONValues[T any](items []T) ([]interface{}, error) {
	values := make([]interface{}, 0, len(items))
	for i, item := range items {
		b, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("encode item %d: %w", i, err)
		}
		values = append(values, string(b))
	}
	return values, nil
}
