package obstacle

import (
	"errors"
	"fmt"

	"github.com/SaferDrive-AI/San-Jose-GTC-Demo/engine"
)

var (
	// ErrInjectionFailed 引擎拒绝插入障碍物车辆
	ErrInjectionFailed = errors.New("obstacle: engine rejected stationary vehicle insertion")
)

// IDPrefix 障碍物车辆ID前缀，出发/到达统计按该前缀排除障碍物
const IDPrefix = "obstacle_"

// Agent 已注入仿真的静止障碍物
// 说明：在仿真开始前创建，整个运行期间保持静止，仿真结束时随引擎一起销毁
type Agent struct {
	ID       string                 // 障碍物车辆ID
	Location engine.NetworkLocation // 所在路网位置
}

// Injector 障碍物注入器
// 功能：把解析好的路网位置转换为仿真中的静止车辆
type Injector struct {
	eng engine.Engine
}

// NewInjector 创建注入器
func NewInjector(eng engine.Engine) *Injector {
	return &Injector{eng: eng}
}

// Inject 在第一步推进之前注入一个障碍物
// 功能：插入静止车辆并关闭其全部运动与安全行为，速度钉死为0
// 参数：index-障碍物序号（决定ID），loc-路网位置
// 返回：注入完成的Agent与错误信息
// 说明：插入被引擎拒绝时立即失败、不重试——缺失的障碍物会让整个实验失效
func (j *Injector) Inject(index int, loc engine.NetworkLocation) (Agent, error) {
	id := fmt.Sprintf("%s%d", IDPrefix, index)
	if err := j.eng.InsertStationaryVehicle(id, loc); err != nil {
		return Agent{}, fmt.Errorf("%w: %s at lane %s s=%.2f: %v",
			ErrInjectionFailed, id, loc.LaneID(), loc.S, err)
	}
	if err := j.eng.DisableMotion(id); err != nil {
		return Agent{}, fmt.Errorf("%w: %s: disable motion: %v", ErrInjectionFailed, id, err)
	}
	log.Infof("obstacle %s injected at lane %s s=%.2f angle=%.1f", id, loc.LaneID(), loc.S, loc.Heading)
	return Agent{ID: id, Location: loc}, nil
}
