package sim_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SaferDrive-AI/San-Jose-GTC-Demo/engine/local"
	"github.com/SaferDrive-AI/San-Jose-GTC-Demo/obstacle"
	"github.com/SaferDrive-AI/San-Jose-GTC-Demo/sim"
	"github.com/SaferDrive-AI/San-Jose-GTC-Demo/utils/config"
	"github.com/SaferDrive-AI/San-Jose-GTC-Demo/utils/input"
)

// testScenario 一条横跨原点的200米直路与两个出行
// 说明：经纬度(0,0)的WebMercator投影恰为原点，落在车道中点
func testScenario() *input.Scenario {
	return &input.Scenario{
		Edges: []input.EdgeDef{{
			ID:    "E1",
			Lanes: []input.LaneDef{{MaxSpeed: 15, Shape: [][2]float64{{-100, 0}, {100, 0}}}},
		}},
		Trips: []input.TripDef{
			{ID: "v1", Depart: 0, Route: []string{"E1"}},
			{ID: "v2", Depart: 3, Route: []string{"E1"}},
		},
	}
}

func testConfig(total int32) *config.RuntimeConfig {
	return config.NewRuntimeConfig(config.Config{
		Control: config.Control{Step: config.ControlStep{Start: 0, Total: total, Interval: 1}},
	})
}

func newSession(t *testing.T, sc *input.Scenario, rc *config.RuntimeConfig) *sim.Session {
	t.Helper()
	eng, err := local.New(sc, rc.C.Step.Interval, 0)
	require.NoError(t, err)
	s, err := sim.NewSession(eng, rc)
	require.NoError(t, err)
	return s
}

func TestRunBaseline(t *testing.T) {
	s := newSession(t, testScenario(), testConfig(300))
	defer s.Close()

	summary, err := s.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 2, summary.TotalDeparted)
	assert.Equal(t, 2, summary.TotalArrived)
	assert.LessOrEqual(t, summary.TotalArrived, summary.TotalDeparted)
	assert.Greater(t, summary.AverageDuration, 0.0)
	assert.False(t, summary.Incomplete)
}

func TestRunCancelledAtBoundary(t *testing.T) {
	s := newSession(t, testScenario(), testConfig(300))
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary, err := s.Run(ctx)

	var re *sim.RunError
	assert.ErrorAs(t, err, &re)
	assert.Equal(t, sim.StageRuntime, re.Stage)
	assert.ErrorIs(t, err, context.Canceled)
	// 取消发生在第一个步边界，没有任何车辆出发
	assert.True(t, summary.Incomplete)
	assert.Equal(t, 0, summary.TotalDeparted)
}

func TestConfigStageErrors(t *testing.T) {
	for name, c := range map[string]config.Config{
		"unknown mode": {
			Control: config.Control{Mode: "adaptive",
				Step: config.ControlStep{Total: 10, Interval: 1}},
		},
		"bad obstacle spec": {
			Obstacles: "37.3",
			Control:   config.Control{Step: config.ControlStep{Total: 10, Interval: 1}},
		},
		"optimized without descriptor": {
			Control: config.Control{Mode: "optimized",
				Step: config.ControlStep{Total: 10, Interval: 1}},
		},
	} {
		rc := config.NewRuntimeConfig(c)
		eng, err := local.New(testScenario(), 1, 0)
		require.NoError(t, err)
		_, err = sim.NewSession(eng, rc)
		var re *sim.RunError
		assert.ErrorAs(t, err, &re, name)
		assert.Equal(t, sim.StageConfig, re.Stage, name)
		eng.Close()
	}
}

func TestUnresolvableObstacleIsConfigError(t *testing.T) {
	c := config.Config{
		Obstacles: "10,10",
		Control:   config.Control{Step: config.ControlStep{Total: 10, Interval: 1}},
	}
	eng, err := local.New(testScenario(), 1, 0)
	require.NoError(t, err)
	defer eng.Close()

	_, err = sim.NewSession(eng, config.NewRuntimeConfig(c))
	assert.ErrorIs(t, err, obstacle.ErrUnresolvableLocation)
	var re *sim.RunError
	assert.ErrorAs(t, err, &re)
	assert.Equal(t, sim.StageConfig, re.Stage)
}

func TestRunWithObstacle(t *testing.T) {
	c := config.Config{
		Obstacles: "0,0",
		Control:   config.Control{Step: config.ControlStep{Total: 30, Interval: 1}},
	}
	rc := config.NewRuntimeConfig(c)
	eng, err := local.New(testScenario(), 1, 0)
	require.NoError(t, err)
	s, err := sim.NewSession(eng, rc)
	require.NoError(t, err)
	defer s.Close()

	require.Len(t, s.Obstacles, 1)
	assert.Equal(t, "obstacle_0", s.Obstacles[0].ID)
	assert.Equal(t, []string{"obstacle_0"}, s.ObstacleIDs())
	assert.Equal(t, "E1", s.Obstacles[0].Location.EdgeID)
	assert.InDelta(t, 100.0, s.Obstacles[0].Location.S, 1e-6)

	summary, err := s.Run(context.Background())
	assert.NoError(t, err)
	// 障碍物拦住全部车辆：有车出发、无车到达，障碍物自身不计入统计
	assert.GreaterOrEqual(t, summary.TotalDeparted, 1)
	assert.Equal(t, 0, summary.TotalArrived)
	assert.Zero(t, summary.AverageDuration)
	assert.False(t, summary.Incomplete)
}

func signalScenario() *input.Scenario {
	sc := testScenario()
	sc.Edges = append(sc.Edges, input.EdgeDef{
		ID:    "E2",
		Lanes: []input.LaneDef{{MaxSpeed: 15, Shape: [][2]float64{{100, 0}, {300, 0}}}},
	})
	sc.Controllers = []input.ControllerDef{{
		ID:        "TL1",
		Groups:    []input.GroupRef{{Edge: "E1", Lane: 0}},
		ProgramID: "allred",
		Phases:    []input.PhaseDef{{Duration: 10000, State: "r"}},
	}}
	sc.Trips = []input.TripDef{{ID: "v1", Depart: 0, Route: []string{"E1", "E2"}}}
	return sc
}

func writeDescriptor(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "programs.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestRunOptimized(t *testing.T) {
	descriptor := writeDescriptor(t, `{
		"TL1": {"programID": "opt", "phases": [{"duration": 1000, "state": "G"}]}
	}`)
	c := config.Config{
		TLSProgram: descriptor,
		Control: config.Control{Mode: "optimized",
			Step: config.ControlStep{Total: 300, Interval: 1}},
	}
	rc := config.NewRuntimeConfig(c)
	eng, err := local.New(signalScenario(), 1, 0)
	require.NoError(t, err)
	s, err := sim.NewSession(eng, rc)
	require.NoError(t, err)
	defer s.Close()

	// Setup阶段已经替换了信号程序
	p, err := eng.CurrentProgram("TL1")
	require.NoError(t, err)
	assert.Equal(t, "opt", p.ProgramID)

	summary, err := s.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, summary.TotalArrived)
}

func TestRunDynamic(t *testing.T) {
	descriptor := writeDescriptor(t, `{
		"TL1": {"programID": "opt", "phases": [
			{"duration": 30, "state": "G", "minDur": 5, "maxDur": 60}
		]}
	}`)
	c := config.Config{
		TLSProgram: descriptor,
		Control: config.Control{Mode: "dynamic", AdjustInterval: 10,
			Step: config.ControlStep{Total: 300, Interval: 1}},
	}
	rc := config.NewRuntimeConfig(c)
	eng, err := local.New(signalScenario(), 1, 0)
	require.NoError(t, err)
	s, err := sim.NewSession(eng, rc)
	require.NoError(t, err)
	defer s.Close()

	summary, err := s.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, summary.TotalDeparted)
	assert.Equal(t, 1, summary.TotalArrived)
	assert.False(t, summary.Incomplete)
}

func TestUnknownControllerIsConfigError(t *testing.T) {
	descriptor := writeDescriptor(t, `{
		"TLX": {"programID": "opt", "phases": [{"duration": 30, "state": "G"}]}
	}`)
	c := config.Config{
		TLSProgram: descriptor,
		Control: config.Control{Mode: "optimized",
			Step: config.ControlStep{Total: 10, Interval: 1}},
	}
	eng, err := local.New(signalScenario(), 1, 0)
	require.NoError(t, err)
	defer eng.Close()

	_, err = sim.NewSession(eng, config.NewRuntimeConfig(c))
	var re *sim.RunError
	assert.ErrorAs(t, err, &re)
	assert.Equal(t, sim.StageConfig, re.Stage)
}
