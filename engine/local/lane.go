package local

import (
	"fmt"
	"math"
	"sort"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/samber/lo"

	"github.com/SaferDrive-AI/San-Jose-GTC-Demo/engine"
	"github.com/SaferDrive-AI/San-Jose-GTC-Demo/utils/input"
)

// lane 车道运行时
// 功能：维护车道的折线几何、限速、信号灯状态与在道车辆
type lane struct {
	edgeID string
	index  int
	id     string

	line           []geometry.Point             // 中心线折线
	lineLengths    []float64                    // 中心线折线的累积长度
	lineDirections []geometry.PolylineDirection // 中心线折线段每一段的方向（atan2）
	length         float64
	maxV           float64 // 限速（米/秒）

	controlled bool
	light      byte // 信号灯状态字符，非受控车道恒为'G'

	vehicles []*vehicle // 按s升序排列
}

func newLane(edgeID string, index int, def input.LaneDef) *lane {
	l := &lane{
		edgeID: edgeID,
		index:  index,
		id:     fmt.Sprintf("%s_%d", edgeID, index),
		maxV:   def.MaxSpeed,
		light:  'G',
	}
	l.line = lo.Map(def.Shape, func(p [2]float64, _ int) geometry.Point {
		return geometry.Point{X: p[0], Y: p[1]}
	})
	l.lineLengths = geometry.GetPolylineLengths2D(l.line)
	l.lineDirections = geometry.GetPolylineDirections(l.line)
	l.length = l.lineLengths[len(l.lineLengths)-1]
	return l
}

// getPositionByS 将当前车道s坐标转换为xy坐标
func (l *lane) getPositionByS(s float64) (pos geometry.Point) {
	s = lo.Clamp(s, l.lineLengths[0], l.lineLengths[len(l.lineLengths)-1])
	if i := sort.SearchFloat64s(l.lineLengths, s); i == 0 {
		pos = l.line[0]
	} else {
		sHigh, sLow := l.lineLengths[i], l.lineLengths[i-1]
		k := (s - sLow) / (sHigh - sLow)
		pos = geometry.Blend(l.line[i-1], l.line[i], k)
	}
	return
}

// getDirectionByS 根据本车道s坐标计算切向角度
func (l *lane) getDirectionByS(s float64) (direction geometry.PolylineDirection) {
	s = lo.Clamp(s, l.lineLengths[0], l.lineLengths[len(l.lineLengths)-1])
	if i := sort.SearchFloat64s(l.lineLengths, s); i == 0 {
		direction = l.lineDirections[0]
	} else {
		direction = l.lineDirections[i-1]
	}
	return
}

// headingByS 根据s坐标计算车头朝向
// 说明：切向角为以东为零的弧度（逆时针），车头朝向为以北为零的角度（顺时针），范围[0,360)
func (l *lane) headingByS(s float64) float64 {
	return engine.NormalizeHeading(90 - l.getDirectionByS(s).Direction*180/math.Pi)
}

// projectToLane 将xy坐标投影到车道折线上，计算出对应的s坐标
func (l *lane) projectToLane(pos geometry.Point) float64 {
	s := geometry.GetClosestPolylineSToPoint2D(l.line, l.lineLengths, pos)
	return lo.Clamp(s, 0, l.length)
}

// isGreen 检查车道末端是否允许通行
func (l *lane) isGreen() bool {
	return l.light == 'G' || l.light == 'g'
}

// entryBlocked 检查车道入口处是否有车辆阻挡新车驶入
func (l *lane) entryBlocked() bool {
	if len(l.vehicles) == 0 {
		return false
	}
	first := l.vehicles[0]
	return first.s-first.length < vehicleLength+minGap
}

// insertVehicle 按s坐标插入车辆并保持升序
func (l *lane) insertVehicle(veh *vehicle) {
	i := sort.Search(len(l.vehicles), func(i int) bool { return l.vehicles[i].s >= veh.s })
	l.vehicles = append(l.vehicles, nil)
	copy(l.vehicles[i+1:], l.vehicles[i:])
	l.vehicles[i] = veh
}

func (l *lane) removeVehicle(veh *vehicle) {
	for i, v := range l.vehicles {
		if v == veh {
			l.vehicles = append(l.vehicles[:i], l.vehicles[i+1:]...)
			return
		}
	}
}

// sortVehicles 恢复车辆列表的s升序
// 说明：车辆推进后位置发生变化，每步结束时统一整理
func (l *lane) sortVehicles() {
	sort.SliceStable(l.vehicles, func(i, j int) bool { return l.vehicles[i].s < l.vehicles[j].s })
}
