// 仿真引擎控制面，定义驱动程序与底层微观交通仿真器之间的窄接口
// 驱动逻辑只通过本接口访问仿真器，便于用内存引擎替换真实仿真器进行测试
package engine

import "errors"

var (
	// ErrEngineCommunication 引擎控制通道故障（仿真中途失联等）
	ErrEngineCommunication = errors.New("engine: communication with simulation engine failed")
	// ErrNoLaneFound 在给定搜索半径内没有可用车道
	ErrNoLaneFound = errors.New("engine: no lane found within search radius")
)

// Projection 路网平面坐标系的投影参数
// 说明：路网局部坐标 = WebMercator投影坐标 + 偏移量
type Projection struct {
	OffsetX float64 // X方向偏移量（米）
	OffsetY float64 // Y方向偏移量（米）
}

// NetworkLocation 路网内的一个位置
// 功能：描述障碍物在路网中的落点，由Mapper生成、Injector消费
type NetworkLocation struct {
	EdgeID    string  // 所在edge ID
	LaneIndex int     // 车道序号，0为最右侧车道
	S         float64 // 沿车道中心线的弧长偏移（米）
	X         float64 // 局部平面X坐标
	Y         float64 // 局部平面Y坐标
	Heading   float64 // 朝向角（度，以正北为0、顺时针增加）
}

// LaneID 获取位置所在车道的完整ID（edge ID + 车道序号）
func (l NetworkLocation) LaneID() string {
	return laneID(l.EdgeID, l.LaneIndex)
}

// VehicleStats 单车行程统计
type VehicleStats struct {
	Duration float64 // 行程时长（秒）
	TimeLoss float64 // 相对自由流的时间损失（秒）
	WaitTime float64 // 累计等待时间（秒）
}

// TLSPhase 信号灯程序中的一个相位
// 说明：State为逐信号组指示字符串（G/g为绿、y为黄、r为红），
// MinDuration/MaxDuration为动态调整的时长边界，缺失时该相位不可调整
type TLSPhase struct {
	Duration    float64  // 相位时长（秒）
	State       string   // 逐信号组指示字符串
	MinDuration *float64 // 可调整的最小时长（秒，可缺失）
	MaxDuration *float64 // 可调整的最大时长（秒，可缺失）
}

// Bounded 检查相位是否带有完整的时长边界
func (p TLSPhase) Bounded() bool {
	return p.MinDuration != nil && p.MaxDuration != nil
}

// TLSProgram 单个信号灯控制器的信号程序
type TLSProgram struct {
	ProgramID string     // 程序ID
	Phases    []TLSPhase // 按执行顺序排列的相位序列
}

// Engine 仿真引擎控制面
// 功能：驱动程序消费的全部引擎操作，与具体传输方式无关
// 说明：AdvanceStep是唯一可能阻塞在外部I/O上的调用；
// 逐步查询（ListDeparted等）返回的是最近一次AdvanceStep产生的数据，
// 必须在下一次AdvanceStep之前读取
type Engine interface {
	// AdvanceStep 将仿真推进一个步长
	AdvanceStep() error
	// Projection 获取路网投影参数
	Projection() Projection
	// NearestLane 查询距离(x,y)最近的行车道及其上的落点
	// 说明：等距时按(edge ID, 车道序号)升序取第一个，保证结果确定；
	// 半径内没有车道时返回ErrNoLaneFound
	NearestLane(x, y, radius float64) (NetworkLocation, error)
	// InsertStationaryVehicle 在指定位置插入一辆静止车辆
	InsertStationaryVehicle(id string, loc NetworkLocation) error
	// DisableMotion 关闭车辆的全部运动与安全行为，速度恒为0
	DisableMotion(id string) error
	// VehicleSpeed 查询车辆当前速度（米/秒）
	VehicleSpeed(id string) (float64, error)

	// Controllers 获取全部信号灯控制器ID
	Controllers() []string
	// SetProgram 替换控制器的信号程序并从第一个相位开始执行
	SetProgram(controllerID string, program TLSProgram) error
	// SetCurrentPhaseDuration 调整控制器当前相位的时长（秒）
	SetCurrentPhaseDuration(controllerID string, seconds float64) error
	// CurrentProgram 获取控制器当前执行的信号程序
	CurrentProgram(controllerID string) (TLSProgram, error)
	// CurrentPhase 获取控制器当前相位序号
	CurrentPhase(controllerID string) (int, error)
	// GroupOccupancies 获取控制器各信号组进口道的排队占用率[0,1]，
	// 顺序与相位State字符串对齐
	GroupOccupancies(controllerID string) ([]float64, error)

	// ListDeparted 获取最近一步内出发的车辆ID
	ListDeparted() []string
	// ListArrived 获取最近一步内到达的车辆ID
	ListArrived() []string
	// VehicleStats 获取已到达车辆的行程统计
	VehicleStats(id string) (VehicleStats, error)
	// HasPendingActivity 是否还有在途或待出发的车辆
	HasPendingActivity() bool

	// Close 结束仿真并释放资源
	Close() error
}
