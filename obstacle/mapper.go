package obstacle

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"

	"github.com/SaferDrive-AI/San-Jose-GTC-Demo/engine"
)

var (
	// ErrUnresolvableLocation 搜索半径内没有可放置障碍物的车道
	ErrUnresolvableLocation = errors.New("obstacle: no lane within search radius of projected point")
)

// DefaultSearchRadius 默认的最近车道搜索半径（米）
const DefaultSearchRadius = 100.0

// Mapper 经纬度到路网位置的映射器
// 功能：把GeoSpec投影到路网局部平面坐标，并解析出最近的行车道落点
type Mapper struct {
	eng    engine.Engine
	radius float64
}

// NewMapper 创建映射器
// 参数：eng-引擎控制面，radius-最近车道搜索半径（米），非正数时使用默认值
func NewMapper(eng engine.Engine, radius float64) *Mapper {
	if radius <= 0 {
		radius = DefaultSearchRadius
	}
	return &Mapper{eng: eng, radius: radius}
}

// Resolve 将单个GeoSpec解析为路网位置
// 功能：投影经纬度、查询最近车道、确定朝向角
// 返回：路网位置与错误信息
// 算法说明：
// 1. WGS84经纬度经WebMercator投影，再加路网偏移量得到局部平面坐标
// 2. 在搜索半径内查询最近车道，得到落点弧长与车道切向角
// 3. GeoSpec带显式角度时覆盖切向角（归一化到[0,360)），否则保留切向角
// 说明：各障碍物相互独立解析，允许落在同一车道，不做去重
func (m *Mapper) Resolve(spec GeoSpec) (engine.NetworkLocation, error) {
	x, y := m.project(spec.Latitude, spec.Longitude)
	loc, err := m.eng.NearestLane(x, y, m.radius)
	if err != nil {
		if errors.Is(err, engine.ErrNoLaneFound) {
			return engine.NetworkLocation{}, fmt.Errorf(
				"%w: (%.6f, %.6f) -> local (%.2f, %.2f), radius %.1fm",
				ErrUnresolvableLocation, spec.Latitude, spec.Longitude, x, y, m.radius)
		}
		return engine.NetworkLocation{}, err
	}
	if spec.Angle != nil {
		loc.Heading = engine.NormalizeHeading(*spec.Angle)
		log.Debugf("lane %s s=%.2f: using specified angle %.1f", loc.LaneID(), loc.S, loc.Heading)
	} else {
		log.Debugf("lane %s s=%.2f: auto-detected lane angle %.1f", loc.LaneID(), loc.S, loc.Heading)
	}
	return loc, nil
}

// project 将经纬度转换为路网局部平面坐标
func (m *Mapper) project(lat, lon float64) (x, y float64) {
	merc := project.WGS84.ToMercator(orb.Point{lon, lat})
	p := m.eng.Projection()
	return merc[0] + p.OffsetX, merc[1] + p.OffsetY
}
