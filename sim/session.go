// 实验会话，把障碍物注入、信控策略与延误统计组装为一次完整运行
package sim

import (
	"fmt"
	"os"

	"github.com/samber/lo"

	"github.com/SaferDrive-AI/San-Jose-GTC-Demo/clock"
	"github.com/SaferDrive-AI/San-Jose-GTC-Demo/delay"
	"github.com/SaferDrive-AI/San-Jose-GTC-Demo/engine"
	"github.com/SaferDrive-AI/San-Jose-GTC-Demo/obstacle"
	"github.com/SaferDrive-AI/San-Jose-GTC-Demo/tlsctl"
	"github.com/SaferDrive-AI/San-Jose-GTC-Demo/utils/config"
)

// Stage 错误发生阶段
type Stage int

const (
	// StageConfig 配置阶段：第一步推进之前的任何失败，没有部分结果
	StageConfig Stage = iota
	// StageRuntime 运行阶段：推进开始之后的失败，携带部分统计结果
	StageRuntime
)

// String 获取阶段名
func (s Stage) String() string {
	if s == StageConfig {
		return "config"
	}
	return "runtime"
}

// RunError 带阶段标记的运行错误
// 说明：运行阶段的错误同时返回Incomplete标记的部分Summary，调用方据此决定退出码与记录内容
type RunError struct {
	Stage Stage
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s error: %v", e.Stage, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// Session 实验会话
// 功能：持有引擎控制面与全部实验组件，NewSession完成配置阶段，Run执行运行阶段
type Session struct {
	eng      engine.Engine
	clock    *clock.Clock
	strategy tlsctl.Strategy
	agg      *delay.Aggregator
	mode     tlsctl.Mode
	rc       *config.RuntimeConfig

	// Obstacles 注入完成的障碍物，按注入顺序排列
	Obstacles []obstacle.Agent
}

// NewSession 创建实验会话并完成全部配置阶段工作
// 算法说明：
// 1. 解析信控模式与障碍物描述字符串
// 2. 逐个解析障碍物位置并注入引擎，任一失败立即终止
// 3. 非基线模式下读取并解析信号程序描述文件
// 4. 调用策略Setup完成启动前的信号程序下发
// 说明：本函数返回的错误全部属于配置阶段，引擎状态虽可能已被部分修改，
// 但尚未推进任何时间步
func NewSession(eng engine.Engine, rc *config.RuntimeConfig) (*Session, error) {
	s := &Session{
		eng:   eng,
		clock: clock.New(rc.C.Step),
		agg:   delay.NewAggregator(),
		rc:    rc,
	}

	mode, err := tlsctl.ParseMode(rc.C.Mode)
	if err != nil {
		return nil, &RunError{Stage: StageConfig, Err: err}
	}
	s.mode = mode

	specs, err := obstacle.ParseSpecs(rc.All.Obstacles)
	if err != nil {
		return nil, &RunError{Stage: StageConfig, Err: err}
	}
	mapper := obstacle.NewMapper(eng, rc.C.SearchRadius)
	injector := obstacle.NewInjector(eng)
	for i, spec := range specs {
		loc, err := mapper.Resolve(spec)
		if err != nil {
			return nil, &RunError{Stage: StageConfig, Err: err}
		}
		agent, err := injector.Inject(i, loc)
		if err != nil {
			return nil, &RunError{Stage: StageConfig, Err: err}
		}
		s.Obstacles = append(s.Obstacles, agent)
	}

	var programs map[string]engine.TLSProgram
	if mode != tlsctl.ModeBaseline {
		if rc.All.TLSProgram == "" {
			return nil, &RunError{Stage: StageConfig,
				Err: fmt.Errorf("sim: mode %s requires a tls program descriptor", mode)}
		}
		data, err := os.ReadFile(rc.All.TLSProgram)
		if err != nil {
			return nil, &RunError{Stage: StageConfig, Err: err}
		}
		if programs, err = tlsctl.ParseDescriptor(data); err != nil {
			return nil, &RunError{Stage: StageConfig, Err: err}
		}
	}
	s.strategy = tlsctl.New(mode, programs, rc.C.AdjustInterval)
	if err := s.strategy.Setup(eng); err != nil {
		return nil, &RunError{Stage: StageConfig, Err: err}
	}

	log.Infof("session ready: mode=%s, %d obstacles, %d programs, steps [%d, %d) dt=%.2f",
		mode, len(s.Obstacles), len(programs),
		rc.C.Step.Start, rc.C.Step.Start+rc.C.Step.Total, rc.C.Step.Interval)
	return s, nil
}

// Mode 本会话的信控模式
func (s *Session) Mode() tlsctl.Mode {
	return s.mode
}

// ObstacleIDs 已注入障碍物的车辆ID
func (s *Session) ObstacleIDs() []string {
	return lo.Map(s.Obstacles, func(a obstacle.Agent, _ int) string { return a.ID })
}

// Close 释放会话持有的引擎
func (s *Session) Close() error {
	return s.eng.Close()
}
