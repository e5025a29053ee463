package tlsctl

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/SaferDrive-AI/San-Jose-GTC-Demo/engine"
)

// DefaultCadence 动态调整的默认节拍（秒）
const DefaultCadence = 30.0

// dynamic 动态策略
// 功能：启动时同优化策略，运行中按固定节拍观测各控制器进口道的排队占用率，
// 在相位声明的[minDur, maxDur]边界内重设当前相位时长，向拥堵方向延长绿灯
type dynamic struct {
	optimized

	cadence    float64 // 调整节拍（秒）
	lastAdjust float64 // 上一次调整的仿真时间
	started    bool
}

// OnStep 节拍到达时对每个受控控制器做一次相位时长调整
func (d *dynamic) OnStep(eng engine.Engine, t float64) error {
	if d.cadence <= 0 {
		d.cadence = DefaultCadence
	}
	if d.started && t-d.lastAdjust < d.cadence {
		return nil
	}
	d.started = true
	d.lastAdjust = t
	for id, p := range d.programs {
		if err := d.adjust(eng, id, p); err != nil {
			return err
		}
	}
	return nil
}

// adjust 调整单个控制器当前相位的时长
// 算法说明：
// 1. 读取当前相位，缺失minDur/maxDur任一边界的相位不做调整（回落到基准时长）
// 2. 读取各信号组进口道的排队占用率，分别对当前为绿/非绿的信号组求均值
// 3. 目标时长 = minDur + (maxDur-minDur) * 绿灯侧占用率份额
// 4. 目标时长钳制到[minDur, maxDur]后下发，越界请求从不报错
// 说明：两侧占用率都为0时路口是空的，保持基准时长不动
func (d *dynamic) adjust(eng engine.Engine, controllerID string, p engine.TLSProgram) error {
	index, err := eng.CurrentPhase(controllerID)
	if err != nil {
		return fmt.Errorf("tlsctl: current phase of %s: %w", controllerID, err)
	}
	if index < 0 || index >= len(p.Phases) {
		return fmt.Errorf("tlsctl: controller %s: phase index %d out of program %s", controllerID, index, p.ProgramID)
	}
	phase := p.Phases[index]
	if !phase.Bounded() {
		return nil
	}
	occ, err := eng.GroupOccupancies(controllerID)
	if err != nil {
		return fmt.Errorf("tlsctl: occupancies of %s: %w", controllerID, err)
	}
	if len(occ) != len(phase.State) {
		return fmt.Errorf("tlsctl: controller %s: %d occupancies for %d signal groups",
			controllerID, len(occ), len(phase.State))
	}
	var greenOcc, redOcc float64
	var greenN, redN int
	for i, c := range phase.State {
		if c == 'G' || c == 'g' {
			greenOcc += occ[i]
			greenN++
		} else {
			redOcc += occ[i]
			redN++
		}
	}
	if greenN > 0 {
		greenOcc /= float64(greenN)
	}
	if redN > 0 {
		redOcc /= float64(redN)
	}
	if greenOcc+redOcc == 0 {
		return nil
	}
	share := greenOcc / (greenOcc + redOcc)
	target := *phase.MinDuration + (*phase.MaxDuration-*phase.MinDuration)*share
	target = lo.Clamp(target, *phase.MinDuration, *phase.MaxDuration)
	if err := eng.SetCurrentPhaseDuration(controllerID, target); err != nil {
		return fmt.Errorf("tlsctl: set phase duration on %s: %w", controllerID, err)
	}
	log.Debugf("controller %s phase %d: green occ %.3f red occ %.3f -> duration %.1fs",
		controllerID, index, greenOcc, redOcc, target)
	return nil
}
