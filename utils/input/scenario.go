package input

import "fmt"

// LaneDef 车道定义
type LaneDef struct {
	MaxSpeed float64      `json:"maxSpeed" bson:"maxSpeed"` // 限速（米/秒）
	Shape    [][2]float64 `json:"shape" bson:"shape"`       // 中心线折线（局部平面坐标）
}

// EdgeDef 边定义
// 说明：Lanes按车道序号排列，0为最右侧车道
type EdgeDef struct {
	ID    string    `json:"id" bson:"id"`
	Lanes []LaneDef `json:"lanes" bson:"lanes"`
}

// GroupRef 信号组引用的进口车道
type GroupRef struct {
	Edge string `json:"edge" bson:"edge"`
	Lane int    `json:"lane" bson:"lane"`
}

// PhaseDef 信号程序相位定义
type PhaseDef struct {
	Duration float64  `json:"duration" bson:"duration"`
	State    string   `json:"state" bson:"state"`
	MinDur   *float64 `json:"minDur,omitempty" bson:"minDur,omitempty"`
	MaxDur   *float64 `json:"maxDur,omitempty" bson:"maxDur,omitempty"`
}

// ControllerDef 信号灯控制器定义
// 说明：Groups与相位State字符串逐位对应
type ControllerDef struct {
	ID        string     `json:"id" bson:"id"`
	Groups    []GroupRef `json:"groups" bson:"groups"`
	ProgramID string     `json:"programID" bson:"programID"`
	Phases    []PhaseDef `json:"phases" bson:"phases"`
}

// TripDef 出行定义
type TripDef struct {
	ID         string   `json:"id" bson:"id"`
	Depart     float64  `json:"depart" bson:"depart"`         // 计划出发时间（秒）
	Route      []string `json:"route" bson:"route"`           // 途经edge ID序列
	DepartLane int      `json:"departLane" bson:"departLane"` // 出发车道序号
}

// Scenario 场景数据
// 功能：内存引擎的全部输入：路网几何、信号灯与出行计划
type Scenario struct {
	NetOffset   [2]float64      `json:"netOffset" bson:"netOffset"` // 路网投影偏移量
	Edges       []EdgeDef       `json:"edges" bson:"edges"`
	Controllers []ControllerDef `json:"controllers" bson:"controllers"`
	Trips       []TripDef       `json:"trips" bson:"trips"`
}

// Validate 检查场景数据的完整性与一致性
// 算法说明：
// 1. edge/controller/trip的ID唯一性
// 2. 每条edge至少一条车道，每条车道至少两个折线点
// 3. 信号组引用的车道必须存在，相位State长度与信号组数一致
// 4. 出行路线非空且只引用存在的edge
func (s *Scenario) Validate() error {
	edgeIDs := make(map[string]int, len(s.Edges))
	for _, e := range s.Edges {
		if _, ok := edgeIDs[e.ID]; ok {
			return fmt.Errorf("input: duplicated edge id %s", e.ID)
		}
		if len(e.Lanes) == 0 {
			return fmt.Errorf("input: edge %s has no lanes", e.ID)
		}
		for i, l := range e.Lanes {
			if len(l.Shape) < 2 {
				return fmt.Errorf("input: lane %s_%d has fewer than 2 shape points", e.ID, i)
			}
			if l.MaxSpeed <= 0 {
				return fmt.Errorf("input: lane %s_%d has non-positive max speed", e.ID, i)
			}
		}
		edgeIDs[e.ID] = len(e.Lanes)
	}
	controllerIDs := make(map[string]struct{}, len(s.Controllers))
	for _, c := range s.Controllers {
		if _, ok := controllerIDs[c.ID]; ok {
			return fmt.Errorf("input: duplicated controller id %s", c.ID)
		}
		controllerIDs[c.ID] = struct{}{}
		if len(c.Groups) == 0 {
			return fmt.Errorf("input: controller %s has no signal groups", c.ID)
		}
		for _, g := range c.Groups {
			n, ok := edgeIDs[g.Edge]
			if !ok || g.Lane < 0 || g.Lane >= n {
				return fmt.Errorf("input: controller %s references unknown lane %s_%d", c.ID, g.Edge, g.Lane)
			}
		}
		if len(c.Phases) == 0 {
			return fmt.Errorf("input: controller %s has no phases", c.ID)
		}
		for i, p := range c.Phases {
			if len(p.State) != len(c.Groups) {
				return fmt.Errorf("input: controller %s phase %d: state length %d does not match %d groups",
					c.ID, i, len(p.State), len(c.Groups))
			}
			if p.Duration <= 0 {
				return fmt.Errorf("input: controller %s phase %d: non-positive duration", c.ID, i)
			}
		}
	}
	tripIDs := make(map[string]struct{}, len(s.Trips))
	for _, t := range s.Trips {
		if _, ok := tripIDs[t.ID]; ok {
			return fmt.Errorf("input: duplicated trip id %s", t.ID)
		}
		tripIDs[t.ID] = struct{}{}
		if len(t.Route) == 0 {
			return fmt.Errorf("input: trip %s has empty route", t.ID)
		}
		for _, edge := range t.Route {
			if _, ok := edgeIDs[edge]; !ok {
				return fmt.Errorf("input: trip %s references unknown edge %s", t.ID, edge)
			}
		}
	}
	return nil
}
