package tlsctl

import (
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/SaferDrive-AI/San-Jose-GTC-Demo/engine"
)

var (
	// ErrUnknownController 信号程序引用了不存在的控制器
	ErrUnknownController = errors.New("tlsctl: program references unknown controller")
	// ErrUnknownMode 未知的信控模式名
	ErrUnknownMode = errors.New("tlsctl: unknown control mode")
)

// Mode 信控模式
type Mode int

const (
	// ModeBaseline 基线模式：路网自带的信号程序原样运行
	ModeBaseline Mode = iota
	// ModeOptimized 优化模式：启动前替换为给定程序，此后不再干预
	ModeOptimized
	// ModeDynamic 动态模式：启动时同优化模式，运行中按节拍调整当前相位时长
	ModeDynamic
)

// ParseMode 解析信控模式名
// 说明：接受baseline/optimized/dynamic，兼容bench/opt写法
func ParseMode(s string) (Mode, error) {
	switch s {
	case "baseline", "bench":
		return ModeBaseline, nil
	case "optimized", "opt":
		return ModeOptimized, nil
	case "dynamic":
		return ModeDynamic, nil
	default:
		return ModeBaseline, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// String 获取模式名
func (m Mode) String() string {
	switch m {
	case ModeBaseline:
		return "baseline"
	case ModeOptimized:
		return "optimized"
	case ModeDynamic:
		return "dynamic"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Strategy 信控策略
// 功能：三种模式各自实现本接口，Driver对模式不感知
// 说明：Setup在第一步推进之前调用一次，OnStep在每步推进之后调用
type Strategy interface {
	// Setup 仿真开始前的一次性配置
	Setup(eng engine.Engine) error
	// OnStep 每个仿真步的回调，t为当前仿真时间（秒）
	OnStep(eng engine.Engine, t float64) error
}

// New 按模式创建信控策略
// 参数：mode-信控模式，programs-信号程序集合（基线模式下忽略），
// cadence-动态模式的调整节拍（秒）
func New(mode Mode, programs map[string]engine.TLSProgram, cadence float64) Strategy {
	switch mode {
	case ModeOptimized:
		return &optimized{programs: programs}
	case ModeDynamic:
		return &dynamic{
			optimized: optimized{programs: programs},
			cadence:   cadence,
		}
	default:
		return baseline{}
	}
}

// baseline 基线策略：不做任何干预
type baseline struct{}

func (baseline) Setup(engine.Engine) error          { return nil }
func (baseline) OnStep(engine.Engine, float64) error { return nil }

// optimized 优化策略
// 功能：启动前把每个指定控制器的程序替换为给定相位序列，运行中不再修改
type optimized struct {
	programs map[string]engine.TLSProgram
}

// Setup 校验控制器ID并下发信号程序
// 说明：先对全部控制器做存在性校验再下发，保证配置错误发生在任何改动之前
func (o *optimized) Setup(eng engine.Engine) error {
	known := lo.SliceToMap(eng.Controllers(), func(id string) (string, struct{}) {
		return id, struct{}{}
	})
	for id := range o.programs {
		if _, ok := known[id]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownController, id)
		}
	}
	for id, p := range o.programs {
		if err := eng.SetProgram(id, p); err != nil {
			return fmt.Errorf("tlsctl: set program %s on controller %s: %w", p.ProgramID, id, err)
		}
		log.Infof("controller %s: program %s with %d phases", id, p.ProgramID, len(p.Phases))
	}
	return nil
}

func (o *optimized) OnStep(engine.Engine, float64) error { return nil }
