package local_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/SaferDrive-AI/San-Jose-GTC-Demo/engine"
	"github.com/SaferDrive-AI/San-Jose-GTC-Demo/engine/local"
	"github.com/SaferDrive-AI/San-Jose-GTC-Demo/utils/input"
)

func straightEdge(id string, y, x0, x1, maxV float64) input.EdgeDef {
	return input.EdgeDef{
		ID:    id,
		Lanes: []input.LaneDef{{MaxSpeed: maxV, Shape: [][2]float64{{x0, y}, {x1, y}}}},
	}
}

// run 推进引擎n步，返回累计的出发与到达车辆ID
func run(t *testing.T, eng *local.Engine, n int) (departed, arrived []string) {
	t.Helper()
	for i := 0; i < n; i++ {
		assert.NoError(t, eng.AdvanceStep())
		departed = append(departed, eng.ListDeparted()...)
		arrived = append(arrived, eng.ListArrived()...)
	}
	return
}

func TestNearestLane(t *testing.T) {
	sc := &input.Scenario{Edges: []input.EdgeDef{
		straightEdge("E1", 0, 0, 100, 10),
		straightEdge("E2", 10, 0, 100, 10),
	}}
	eng, err := local.New(sc, 1, 0)
	assert.NoError(t, err)

	loc, err := eng.NearestLane(50, 4, 100)
	assert.NoError(t, err)
	assert.Equal(t, "E1", loc.EdgeID)
	assert.Equal(t, 0, loc.LaneIndex)
	assert.InDelta(t, 50.0, loc.S, 1e-9)
	assert.InDelta(t, 0.0, loc.Y, 1e-9)
	// 车道指向正东，车头朝向90度
	assert.InDelta(t, 90.0, loc.Heading, 1e-9)

	// 等距时按(edge ID, 车道序号)升序取第一个
	loc, err = eng.NearestLane(50, 5, 100)
	assert.NoError(t, err)
	assert.Equal(t, "E1", loc.EdgeID)

	_, err = eng.NearestLane(50, 200, 50)
	assert.ErrorIs(t, err, engine.ErrNoLaneFound)
}

func TestNearestLaneReversedHeading(t *testing.T) {
	sc := &input.Scenario{Edges: []input.EdgeDef{{
		ID:    "W1",
		Lanes: []input.LaneDef{{MaxSpeed: 10, Shape: [][2]float64{{100, 0}, {0, 0}}}},
	}}}
	eng, err := local.New(sc, 1, 0)
	assert.NoError(t, err)

	loc, err := eng.NearestLane(50, 1, 100)
	assert.NoError(t, err)
	// 车道指向正西，车头朝向270度
	assert.InDelta(t, 270.0, loc.Heading, 1e-9)
	assert.InDelta(t, 50.0, loc.S, 1e-9)
}

func TestVehicleLifecycle(t *testing.T) {
	sc := &input.Scenario{
		Edges: []input.EdgeDef{straightEdge("E1", 0, 0, 200, 15)},
		Trips: []input.TripDef{{ID: "v1", Depart: 0, Route: []string{"E1"}}},
	}
	eng, err := local.New(sc, 1, 0)
	assert.NoError(t, err)
	assert.True(t, eng.HasPendingActivity())

	departed, arrived := run(t, eng, 60)
	assert.Equal(t, []string{"v1"}, departed)
	assert.Equal(t, []string{"v1"}, arrived)
	assert.False(t, eng.HasPendingActivity())

	stats, err := eng.VehicleStats("v1")
	assert.NoError(t, err)
	assert.Greater(t, stats.Duration, 0.0)
	assert.GreaterOrEqual(t, stats.TimeLoss, 0.0)
	assert.InDelta(t, 0.0, stats.WaitTime, 1e-9)

	_, err = eng.VehicleStats("ghost")
	assert.Error(t, err)
}

func TestDeferredDeparture(t *testing.T) {
	sc := &input.Scenario{
		Edges: []input.EdgeDef{straightEdge("E1", 0, 0, 200, 15)},
		Trips: []input.TripDef{
			{ID: "v1", Depart: 0, Route: []string{"E1"}},
			{ID: "v2", Depart: 0, Route: []string{"E1"}},
		},
	}
	eng, err := local.New(sc, 1, 0)
	assert.NoError(t, err)

	// 入口一次只容得下一辆车，另一辆被推迟
	assert.NoError(t, eng.AdvanceStep())
	assert.Len(t, eng.ListDeparted(), 1)

	departed, _ := run(t, eng, 10)
	assert.Len(t, departed, 1)
}

func TestRedLightStopsVehicle(t *testing.T) {
	sc := &input.Scenario{
		Edges: []input.EdgeDef{
			straightEdge("E1", 0, 0, 100, 15),
			straightEdge("E2", 0, 100, 200, 15),
		},
		Controllers: []input.ControllerDef{{
			ID:        "TL1",
			Groups:    []input.GroupRef{{Edge: "E1", Lane: 0}},
			ProgramID: "fixed",
			Phases:    []input.PhaseDef{{Duration: 1000, State: "r"}},
		}},
		Trips: []input.TripDef{{ID: "v1", Depart: 0, Route: []string{"E1", "E2"}}},
	}
	eng, err := local.New(sc, 1, 0)
	assert.NoError(t, err)

	_, arrived := run(t, eng, 60)
	assert.Empty(t, arrived)

	v, err := eng.VehicleSpeed("v1")
	assert.NoError(t, err)
	assert.Less(t, v, 0.1)

	// 一辆停驶车辆折算7.5米的占用长度
	occ, err := eng.GroupOccupancies("TL1")
	assert.NoError(t, err)
	assert.Len(t, occ, 1)
	assert.InDelta(t, 0.075, occ[0], 1e-9)

	// 切换为绿灯后车辆通过并到达
	assert.NoError(t, eng.SetProgram("TL1", engine.TLSProgram{
		ProgramID: "green",
		Phases:    []engine.TLSPhase{{Duration: 1000, State: "G"}},
	}))
	_, arrived = run(t, eng, 80)
	assert.Equal(t, []string{"v1"}, arrived)
}

func TestPhaseCycling(t *testing.T) {
	sc := &input.Scenario{
		Edges: []input.EdgeDef{straightEdge("E1", 0, 0, 100, 15)},
		Controllers: []input.ControllerDef{{
			ID:        "TL1",
			Groups:    []input.GroupRef{{Edge: "E1", Lane: 0}},
			ProgramID: "fixed",
			Phases:    []input.PhaseDef{{Duration: 10, State: "G"}, {Duration: 10, State: "r"}},
		}},
	}
	eng, err := local.New(sc, 1, 0)
	assert.NoError(t, err)

	p, err := eng.CurrentProgram("TL1")
	assert.NoError(t, err)
	assert.Equal(t, "fixed", p.ProgramID)
	assert.Len(t, p.Phases, 2)

	phase, err := eng.CurrentPhase("TL1")
	assert.NoError(t, err)
	assert.Equal(t, 0, phase)

	run(t, eng, 5)
	phase, _ = eng.CurrentPhase("TL1")
	assert.Equal(t, 0, phase)

	// 缩短当前相位时长，下一步立即切相
	assert.NoError(t, eng.SetCurrentPhaseDuration("TL1", 3))
	run(t, eng, 1)
	phase, _ = eng.CurrentPhase("TL1")
	assert.Equal(t, 1, phase)

	// 未知控制器
	_, err = eng.CurrentPhase("TLX")
	assert.Error(t, err)
	assert.Error(t, eng.SetCurrentPhaseDuration("TLX", 10))
}

func TestStationaryObstacle(t *testing.T) {
	sc := &input.Scenario{
		Edges: []input.EdgeDef{straightEdge("E1", 0, 0, 200, 15)},
		Trips: []input.TripDef{{ID: "v1", Depart: 0, Route: []string{"E1"}}},
	}
	eng, err := local.New(sc, 1, 0)
	assert.NoError(t, err)

	loc := engine.NetworkLocation{EdgeID: "E1", LaneIndex: 0, S: 100}
	assert.NoError(t, eng.InsertStationaryVehicle("obstacle_0", loc))
	assert.NoError(t, eng.DisableMotion("obstacle_0"))

	// 重复ID与重叠位置被拒绝
	assert.Error(t, eng.InsertStationaryVehicle("obstacle_0", loc))
	assert.Error(t, eng.InsertStationaryVehicle("obstacle_1",
		engine.NetworkLocation{EdgeID: "E1", LaneIndex: 0, S: 102}))

	departed, arrived := run(t, eng, 60)
	// 障碍物不出现在出发/到达统计中
	assert.Equal(t, []string{"v1"}, departed)
	assert.Empty(t, arrived)

	// 障碍物速度恒为0，后车被其拦停
	v, err := eng.VehicleSpeed("obstacle_0")
	assert.NoError(t, err)
	assert.Zero(t, v)
	v, err = eng.VehicleSpeed("v1")
	assert.NoError(t, err)
	assert.Less(t, v, 0.1)
	assert.True(t, eng.HasPendingActivity())
}

func TestProjection(t *testing.T) {
	sc := &input.Scenario{
		NetOffset: [2]float64{123.5, -456.25},
		Edges:     []input.EdgeDef{straightEdge("E1", 0, 0, 100, 10)},
	}
	eng, err := local.New(sc, 1, 0)
	assert.NoError(t, err)
	assert.Equal(t, engine.Projection{OffsetX: 123.5, OffsetY: -456.25}, eng.Projection())
}
