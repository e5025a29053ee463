package config

// ScenarioPath 指定场景数据来源的配置（文件系统、MongoDB）
// 说明：File优先级高于MongoDB
type ScenarioPath struct {
	File string `yaml:"file,omitempty"` // 场景JSON文件路径（优先级高于MongoDB）
	DB   string `yaml:"db,omitempty"`   // 数据库名
	Col  string `yaml:"col,omitempty"`  // 集合名
}

// Input 指定模拟器所有输入数据的配置项
type Input struct {
	URI      string       `yaml:"uri,omitempty"` // MongoDB连接字符串
	Scenario ScenarioPath `yaml:"scenario"`      // 场景（路网+信控+出行）
}

// ControlStep 指定模拟时间范围和间隔的配置项
type ControlStep struct {
	Start    int32   `yaml:"start"`    // 开始步数
	Total    int32   `yaml:"total"`    // 总步数
	Interval float64 `yaml:"interval"` // 每步的时间间隔（秒）
}

// Control 模拟器控制配置
type Control struct {
	Step ControlStep `yaml:"step"`
	// 信控模式（baseline/optimized/dynamic）
	Mode string `yaml:"mode,omitempty"`
	// 动态信控的调整节拍（秒），缺省30
	AdjustInterval float64 `yaml:"adjust_interval,omitempty"`
	// 障碍物最近车道搜索半径（米），缺省100
	SearchRadius float64 `yaml:"search_radius,omitempty"`
	// 心跳日志间隔步数，缺省100
	HeartbeatInterval int32 `yaml:"heartbeat_interval,omitempty"`
}

// Config YAML配置文件的根结构
type Config struct {
	Input      Input   `yaml:"input"`                 // 输入
	Control    Control `yaml:"control"`               // 模拟过程控制
	Obstacles  string  `yaml:"obstacles,omitempty"`   // 障碍物描述字符串
	TLSProgram string  `yaml:"tls_program,omitempty"` // 信号程序描述文件路径
	Output     string  `yaml:"output,omitempty"`      // 结果记录输出路径
}
