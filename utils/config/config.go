package config

// RuntimeConfig 运行时配置
// 功能：在原始YAML配置的基础上补全缺省值，供各组件直接使用
type RuntimeConfig struct {
	All Config  // 全部配置
	C   Control // 全局控制配置
}

// NewRuntimeConfig 根据配置初始化运行时配置
// 说明：步长缺省1秒，动态调整节拍缺省30秒，搜索半径缺省100米
func NewRuntimeConfig(config Config) *RuntimeConfig {
	rc := &RuntimeConfig{}

	rc.All = config
	rc.C = config.Control
	if rc.C.Step.Interval <= 0 {
		rc.C.Step.Interval = 1.0
	}
	if rc.C.AdjustInterval <= 0 {
		rc.C.AdjustInterval = 30.0
	}
	if rc.C.SearchRadius <= 0 {
		rc.C.SearchRadius = 100.0
	}
	if rc.C.HeartbeatInterval <= 0 {
		rc.C.HeartbeatInterval = 100
	}
	if rc.C.Mode == "" {
		rc.C.Mode = "baseline"
	}

	return rc
}
