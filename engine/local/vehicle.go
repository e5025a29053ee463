package local

import (
	"math"

	"git.fiblab.net/general/common/v2/mathutil"
)

const (
	vehicleLength = 5.0 // 车身长度（米）
	maxAccel      = 2.6 // 最大加速度（米/秒²）
	minGap        = 2.5 // 停车时与前车的最小间距（米）
	stopSpeed     = 0.1 // 低于该速度视为停车（米/秒）
	stopLineGap   = 1.0 // 红灯停车时与车道末端的距离（米）

	// 黄灯时距车道末端小于该距离则继续通过
	yellowPassDistance = 5.0

	// 一辆停驶车辆占用的车道长度，用于计算占用率
	jamSpacing = vehicleLength + minGap
)

// vehicle 车辆运行时
// 说明：s为前保险杠在车道上的坐标；frozen车辆永不移动，仅作为跟驰障碍存在
type vehicle struct {
	id         string
	route      []string // 途经edge ID序列
	routeIndex int
	laneIndex  int // 车道选择，超出目标edge车道数时取最外侧

	lane *lane
	s    float64
	v    float64

	speedFactor float64 // 个体期望速度与限速之比
	length      float64
	frozen      bool

	departAt   float64 // 计划出发时间
	departedAt float64 // 实际出发时间
	freeflow   float64 // 自由流行程时间（秒）
	waitTime   float64 // 累计停车等待时间（秒）
	lastMove   int32   // 最近一次移动发生的步数，防止跨车道转移后同一步重复推进
}

// step 推进车辆一个时间步
// 参数：e-引擎，leader-同车道前车（可为nil）
// 返回：是否已到达终点
// 算法说明：
// 1. 期望速度为限速乘以个体速度系数，按最大加速度逼近
// 2. 跟驰约束：与前车车尾保持最小间距
// 3. 末端约束：非终点edge且前方红灯或下一车道入口被占时，在停车线前停下
// 4. 跨越车道末端且允许通行时转移到路线的下一条edge
func (veh *vehicle) step(e *Engine, leader *vehicle) (arrived bool) {
	l := veh.lane
	v := math.Min(l.maxV*veh.speedFactor, veh.v+maxAccel*e.dt)

	maxAdvance := mathutil.INF
	if leader != nil {
		maxAdvance = leader.s - leader.length - minGap - veh.s
	}
	distToEnd := l.length - veh.s
	atLast := veh.routeIndex == len(veh.route)-1
	canCross := false
	if !atLast {
		next := e.nextLane(veh)
		stopForLight := l.controlled && !l.isGreen()
		if l.light == 'y' && distToEnd < yellowPassDistance {
			stopForLight = false
		}
		canCross = !stopForLight && !next.entryBlocked()
		if !canCross {
			maxAdvance = math.Min(maxAdvance, distToEnd-stopLineGap)
		}
	}

	move := v * e.dt
	if maxAdvance < move {
		move = math.Max(0, maxAdvance)
		v = move / e.dt
	}
	veh.v = v
	veh.s += move
	if veh.v < stopSpeed {
		veh.waitTime += e.dt
	}

	if atLast {
		return veh.s >= l.length
	}
	if canCross && veh.s >= l.length {
		overshoot := veh.s - l.length
		next := e.nextLane(veh)
		l.removeVehicle(veh)
		veh.routeIndex++
		veh.lane = next
		veh.s = math.Min(veh.length+overshoot, next.length)
		next.insertVehicle(veh)
	}
	return false
}
