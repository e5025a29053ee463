// 随机数引擎，包装了golang.org/x/exp/rand，为仿真实体提供可复现的随机序列
package randengine

import (
	"flag"

	"golang.org/x/exp/rand"
)

var (
	seedOffset = flag.Uint64("rand.seed_offset", 0, "seed offset") // 种子偏移量，用于调整随机数生成
)

// Engine 随机数引擎
// 说明：同一种子总是产生相同序列，保证同一场景的重复运行结果一致
type Engine struct {
	*rand.Rand
}

// New 创建随机数引擎
// 说明：种子偏移量允许在不修改代码的情况下整体调整随机数序列
func New(seed uint64) *Engine {
	return &Engine{Rand: rand.New(rand.NewSource(seed + *seedOffset))}
}

// Uniform 在[low, high)范围内生成随机浮点数
func (e *Engine) Uniform(low, high float64) float64 {
	return low + (high-low)*e.Float64()
}

// PTrue 以指定概率返回true
func (e *Engine) PTrue(p float64) bool {
	return e.Float64() < p
}
