// 内置交通引擎，在内存中完成路网、信号灯与车辆运动的微观仿真
package local

import (
	"fmt"
	"math"
	"sort"

	"git.fiblab.net/general/common/v2/geometry"
	"git.fiblab.net/general/common/v2/mathutil"
	"git.fiblab.net/general/common/v2/parallel"
	"github.com/samber/lo"

	"github.com/SaferDrive-AI/San-Jose-GTC-Demo/engine"
	"github.com/SaferDrive-AI/San-Jose-GTC-Demo/utils/container"
	"github.com/SaferDrive-AI/San-Jose-GTC-Demo/utils/input"
	"github.com/SaferDrive-AI/San-Jose-GTC-Demo/utils/randengine"
)

// 个体期望速度与限速之比的取值范围
const (
	speedFactorLow  = 0.9
	speedFactorHigh = 1.0
)

// Engine 内置交通引擎
// 功能：实现engine.Engine接口的单机内存实现，单线程推进，不涉及跨进程通信
type Engine struct {
	dt        float64
	t         float64
	stepCount int32

	offset      engine.Projection
	lanes       map[string]*lane   // lane ID -> 车道
	lanesSorted []*lane            // 按(edge ID, 车道序号)升序
	edges       map[string][]*lane // edge ID -> 按序号排列的车道

	controllers   map[string]*controller
	controllerIDs []string // 升序

	pending   *container.PriorityQueue[*vehicle] // 待出发队列，按计划出发时间排序
	active    map[string]*vehicle                // 在途车辆
	obstacles map[string]*vehicle                // 外部插入的静止车辆
	stats     map[string]engine.VehicleStats

	departed []string // 本步实际出发的车辆
	arrived  []string // 本步到达终点的车辆

	rand *randengine.Engine
}

// New 从场景数据构建内置引擎
// 参数：sc-场景数据，dt-步长（秒），startTime-仿真起始时间（秒）
// 算法说明：
// 1. 并行构建各edge的车道几何
// 2. 构建信号灯控制器并立即应用初始相位
// 3. 出行计划按出发时间压入优先队列，计划时间早于起始时间的在首步出发
func New(sc *input.Scenario, dt, startTime float64) (*Engine, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	if dt <= 0 {
		return nil, fmt.Errorf("local: non-positive step length %f", dt)
	}
	e := &Engine{
		dt:          dt,
		t:           startTime,
		offset:      engine.Projection{OffsetX: sc.NetOffset[0], OffsetY: sc.NetOffset[1]},
		lanes:       make(map[string]*lane),
		edges:       make(map[string][]*lane, len(sc.Edges)),
		controllers: make(map[string]*controller, len(sc.Controllers)),
		pending:     container.NewPriorityQueue[*vehicle](),
		active:      make(map[string]*vehicle),
		obstacles:   make(map[string]*vehicle),
		stats:       make(map[string]engine.VehicleStats),
		rand:        randengine.New(1),
	}

	laneGroups := parallel.GoMap(sc.Edges, func(def input.EdgeDef) []*lane {
		return lo.Map(def.Lanes, func(ld input.LaneDef, i int) *lane {
			return newLane(def.ID, i, ld)
		})
	})
	for i, def := range sc.Edges {
		e.edges[def.ID] = laneGroups[i]
		for _, l := range laneGroups[i] {
			e.lanes[l.id] = l
		}
	}
	edgeIDs := lo.Keys(e.edges)
	sort.Strings(edgeIDs)
	for _, id := range edgeIDs {
		e.lanesSorted = append(e.lanesSorted, e.edges[id]...)
	}

	for _, def := range sc.Controllers {
		groups := lo.Map(def.Groups, func(g input.GroupRef, _ int) *lane {
			return e.edges[g.Edge][g.Lane]
		})
		e.controllers[def.ID] = newController(def, groups)
		e.controllerIDs = append(e.controllerIDs, def.ID)
	}
	sort.Strings(e.controllerIDs)

	for _, trip := range sc.Trips {
		veh := &vehicle{
			id:          trip.ID,
			route:       trip.Route,
			laneIndex:   trip.DepartLane,
			speedFactor: e.rand.Uniform(speedFactorLow, speedFactorHigh),
			length:      vehicleLength,
			departAt:    trip.Depart,
		}
		for i := range trip.Route {
			l := e.routeLane(veh, i)
			veh.freeflow += l.length / (l.maxV * veh.speedFactor)
		}
		e.pending.Push(veh, trip.Depart)
	}
	log.Infof("local engine ready: %d lanes, %d controllers, %d trips",
		len(e.lanes), len(e.controllers), len(sc.Trips))
	return e, nil
}

// routeLane 车辆在路线第i条edge上选择的车道
func (e *Engine) routeLane(veh *vehicle, i int) *lane {
	lanes := e.edges[veh.route[i]]
	idx := veh.laneIndex
	if idx >= len(lanes) {
		idx = len(lanes) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return lanes[idx]
}

// nextLane 车辆路线中下一条edge上的车道
func (e *Engine) nextLane(veh *vehicle) *lane {
	return e.routeLane(veh, veh.routeIndex+1)
}

// AdvanceStep 推进一个时间步
// 算法说明：
// 1. 时间前移dt，弹出到时的待出发车辆，入口被占的推迟到下一步
// 2. 推进所有信号灯控制器
// 3. 按(edge ID, 车道序号)升序遍历车道，车道内自前向后推进车辆，
//    保证跟驰约束使用前车的最新位置
// 4. 到达终点的车辆结算行程统计
func (e *Engine) AdvanceStep() error {
	e.t += e.dt
	e.stepCount++
	e.departed = e.departed[:0]
	e.arrived = e.arrived[:0]

	var deferred []*vehicle
	for e.pending.Len() > 0 {
		if _, at := e.pending.Peek(); at > e.t {
			break
		}
		veh, _ := e.pending.Pop()
		start := e.routeLane(veh, 0)
		if start.entryBlocked() {
			deferred = append(deferred, veh)
			continue
		}
		veh.lane = start
		veh.s = veh.length
		veh.v = 0
		veh.departedAt = e.t
		start.insertVehicle(veh)
		e.active[veh.id] = veh
		e.departed = append(e.departed, veh.id)
	}
	for _, veh := range deferred {
		e.pending.Push(veh, e.t+e.dt)
	}

	for _, id := range e.controllerIDs {
		e.controllers[id].update(e.dt)
	}

	for _, l := range e.lanesSorted {
		for i := len(l.vehicles) - 1; i >= 0; i-- {
			veh := l.vehicles[i]
			if veh.frozen || veh.lastMove == e.stepCount {
				continue
			}
			veh.lastMove = e.stepCount
			var leader *vehicle
			if i+1 < len(l.vehicles) {
				leader = l.vehicles[i+1]
			}
			if veh.step(e, leader) {
				l.removeVehicle(veh)
				delete(e.active, veh.id)
				duration := e.t - veh.departedAt
				e.stats[veh.id] = engine.VehicleStats{
					Duration: duration,
					TimeLoss: math.Max(0, duration-veh.freeflow),
					WaitTime: veh.waitTime,
				}
				e.arrived = append(e.arrived, veh.id)
			}
		}
	}
	for _, l := range e.lanesSorted {
		l.sortVehicles()
	}
	return nil
}

// Projection 路网局部平面坐标相对投影坐标的偏移量
func (e *Engine) Projection() engine.Projection {
	return e.offset
}

// NearestLane 查找与给定平面坐标最近的车道
// 说明：遍历按(edge ID, 车道序号)升序排列的车道，距离严格更小才替换，
// 距离相同时保留先遍历到的车道，保证结果确定
func (e *Engine) NearestLane(x, y, radius float64) (engine.NetworkLocation, error) {
	pos := geometry.Point{X: x, Y: y}
	var best *lane
	bestS, bestDist := 0.0, mathutil.INF
	for _, l := range e.lanesSorted {
		s := l.projectToLane(pos)
		p := l.getPositionByS(s)
		if d := math.Hypot(p.X-x, p.Y-y); d < bestDist {
			best, bestS, bestDist = l, s, d
		}
	}
	if best == nil || bestDist > radius {
		return engine.NetworkLocation{}, engine.ErrNoLaneFound
	}
	p := best.getPositionByS(bestS)
	return engine.NetworkLocation{
		EdgeID:    best.edgeID,
		LaneIndex: best.index,
		S:         bestS,
		X:         p.X,
		Y:         p.Y,
		Heading:   best.headingByS(bestS),
	}, nil
}

// InsertStationaryVehicle 在指定位置插入一辆静止车辆
// 说明：插入的车辆不参与出发/到达统计，作为跟驰障碍参与其他车辆的运动约束
func (e *Engine) InsertStationaryVehicle(id string, loc engine.NetworkLocation) error {
	if _, ok := e.obstacles[id]; ok {
		return fmt.Errorf("local: vehicle %s already exists", id)
	}
	if _, ok := e.active[id]; ok {
		return fmt.Errorf("local: vehicle %s already exists", id)
	}
	lanes, ok := e.edges[loc.EdgeID]
	if !ok || loc.LaneIndex < 0 || loc.LaneIndex >= len(lanes) {
		return fmt.Errorf("local: unknown lane %s_%d", loc.EdgeID, loc.LaneIndex)
	}
	l := lanes[loc.LaneIndex]
	s := lo.Clamp(loc.S, 0, l.length)
	for _, other := range l.vehicles {
		if math.Abs(other.s-s) < vehicleLength {
			return fmt.Errorf("local: position %s s=%f overlaps vehicle %s", l.id, s, other.id)
		}
	}
	veh := &vehicle{
		id:     id,
		route:  []string{loc.EdgeID},
		lane:   l,
		s:      s,
		length: vehicleLength,
		frozen: true,
	}
	l.insertVehicle(veh)
	e.obstacles[id] = veh
	return nil
}

// DisableMotion 永久禁止车辆移动
func (e *Engine) DisableMotion(id string) error {
	veh, ok := e.obstacles[id]
	if !ok {
		veh, ok = e.active[id]
	}
	if !ok {
		return fmt.Errorf("local: unknown vehicle %s", id)
	}
	veh.frozen = true
	veh.v = 0
	return nil
}

// VehicleSpeed 获取车辆当前速度
func (e *Engine) VehicleSpeed(id string) (float64, error) {
	if veh, ok := e.obstacles[id]; ok {
		return veh.v, nil
	}
	if veh, ok := e.active[id]; ok {
		return veh.v, nil
	}
	return 0, fmt.Errorf("local: unknown vehicle %s", id)
}

// Controllers 获取全部信号灯控制器ID（升序）
func (e *Engine) Controllers() []string {
	return append([]string(nil), e.controllerIDs...)
}

// SetProgram 替换控制器的信号程序
func (e *Engine) SetProgram(controllerID string, program engine.TLSProgram) error {
	c, ok := e.controllers[controllerID]
	if !ok {
		return fmt.Errorf("local: unknown controller %s", controllerID)
	}
	return c.setProgram(program)
}

// SetCurrentPhaseDuration 调整控制器当前相位本轮的时长
func (e *Engine) SetCurrentPhaseDuration(controllerID string, seconds float64) error {
	c, ok := e.controllers[controllerID]
	if !ok {
		return fmt.Errorf("local: unknown controller %s", controllerID)
	}
	return c.setCurrentPhaseDuration(seconds)
}

// CurrentProgram 获取控制器当前信号程序的副本
func (e *Engine) CurrentProgram(controllerID string) (engine.TLSProgram, error) {
	c, ok := e.controllers[controllerID]
	if !ok {
		return engine.TLSProgram{}, fmt.Errorf("local: unknown controller %s", controllerID)
	}
	return c.currentProgram(), nil
}

// CurrentPhase 获取控制器当前相位序号
func (e *Engine) CurrentPhase(controllerID string) (int, error) {
	c, ok := e.controllers[controllerID]
	if !ok {
		return 0, fmt.Errorf("local: unknown controller %s", controllerID)
	}
	return c.phaseIndex, nil
}

// GroupOccupancies 获取控制器各信号组车道的停驶占用率
func (e *Engine) GroupOccupancies(controllerID string) ([]float64, error) {
	c, ok := e.controllers[controllerID]
	if !ok {
		return nil, fmt.Errorf("local: unknown controller %s", controllerID)
	}
	return c.occupancies(), nil
}

// ListDeparted 获取最近一步实际出发的车辆ID
func (e *Engine) ListDeparted() []string {
	return append([]string(nil), e.departed...)
}

// ListArrived 获取最近一步到达终点的车辆ID
func (e *Engine) ListArrived() []string {
	return append([]string(nil), e.arrived...)
}

// VehicleStats 获取已到达车辆的行程统计
func (e *Engine) VehicleStats(id string) (engine.VehicleStats, error) {
	stats, ok := e.stats[id]
	if !ok {
		return engine.VehicleStats{}, fmt.Errorf("local: no stats for vehicle %s", id)
	}
	return stats, nil
}

// HasPendingActivity 检查是否还有待出发或在途的车辆
func (e *Engine) HasPendingActivity() bool {
	return e.pending.Len() > 0 || len(e.active) > 0
}

// Close 释放引擎资源
// 说明：内存实现无外部资源
func (e *Engine) Close() error {
	return nil
}

// T 当前仿真时间（秒）
func (e *Engine) T() float64 {
	return e.t
}
