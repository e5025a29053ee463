package local

import (
	"fmt"
	"math"

	"github.com/samber/lo"

	"github.com/SaferDrive-AI/San-Jose-GTC-Demo/engine"
	"github.com/SaferDrive-AI/San-Jose-GTC-Demo/utils/input"
)

// controller 信号灯控制器运行时
// 功能：按信号程序循环切换相位，并把相位状态逐位写到各信号组车道上
type controller struct {
	id     string
	groups []*lane // 与相位State字符串逐位对应

	program         engine.TLSProgram
	phaseIndex      int
	remaining       float64 // 当前相位剩余时间
	currentDuration float64 // 当前相位本轮的实际时长，可被运行时调整
}

func newController(def input.ControllerDef, groups []*lane) *controller {
	c := &controller{
		id:     def.ID,
		groups: groups,
		program: engine.TLSProgram{
			ProgramID: def.ProgramID,
			Phases: lo.Map(def.Phases, func(p input.PhaseDef, _ int) engine.TLSPhase {
				return engine.TLSPhase{
					Duration:    p.Duration,
					State:       p.State,
					MinDuration: p.MinDur,
					MaxDuration: p.MaxDur,
				}
			}),
		},
	}
	for _, l := range groups {
		l.controlled = true
	}
	c.reset()
	return c
}

// reset 回到程序的第一个相位并立即生效
func (c *controller) reset() {
	c.phaseIndex = 0
	c.currentDuration = c.program.Phases[0].Duration
	c.remaining = c.currentDuration
	c.apply()
}

// apply 将当前相位状态写入各信号组车道
func (c *controller) apply() {
	state := c.program.Phases[c.phaseIndex].State
	for i, l := range c.groups {
		l.light = state[i]
	}
}

// update 推进信号灯一个时间步
// 算法说明：剩余时间递减，不足时循环推进相位直到剩余时间为正，
// 跳过时长小于步长的相位也能正确累计
func (c *controller) update(dt float64) {
	c.remaining -= dt
	if c.remaining <= 0 {
		for {
			c.phaseIndex = (c.phaseIndex + 1) % len(c.program.Phases)
			c.currentDuration = c.program.Phases[c.phaseIndex].Duration
			c.remaining += c.currentDuration
			if c.remaining > 0 {
				break
			}
		}
	}
	c.apply()
}

// setProgram 替换信号程序并从第一个相位重新开始
func (c *controller) setProgram(p engine.TLSProgram) error {
	if len(p.Phases) == 0 {
		return fmt.Errorf("local: program %s for controller %s has no phases", p.ProgramID, c.id)
	}
	for i, ph := range p.Phases {
		if len(ph.State) != len(c.groups) {
			return fmt.Errorf("local: program %s phase %d: state length %d does not match %d signal groups",
				p.ProgramID, i, len(ph.State), len(c.groups))
		}
		if ph.Duration <= 0 {
			return fmt.Errorf("local: program %s phase %d: non-positive duration", p.ProgramID, i)
		}
	}
	c.program = engine.TLSProgram{
		ProgramID: p.ProgramID,
		Phases:    append([]engine.TLSPhase(nil), p.Phases...),
	}
	c.reset()
	return nil
}

// setCurrentPhaseDuration 调整当前相位本轮的时长
// 说明：只影响本轮，下一次进入该相位时恢复程序定义的时长
func (c *controller) setCurrentPhaseDuration(seconds float64) error {
	if seconds <= 0 {
		return fmt.Errorf("local: non-positive phase duration %f for controller %s", seconds, c.id)
	}
	c.remaining = math.Max(0, c.remaining+seconds-c.currentDuration)
	c.currentDuration = seconds
	return nil
}

// currentProgram 返回当前信号程序的副本
func (c *controller) currentProgram() engine.TLSProgram {
	return engine.TLSProgram{
		ProgramID: c.program.ProgramID,
		Phases:    append([]engine.TLSPhase(nil), c.program.Phases...),
	}
}

// occupancies 计算各信号组车道的停驶占用率
// 算法说明：车道上每辆停驶车辆（含冻结的障碍物）折算jamSpacing米的占用长度，
// 除以车道长度并截断到[0,1]
func (c *controller) occupancies() []float64 {
	return lo.Map(c.groups, func(l *lane, _ int) float64 {
		occupied := 0.0
		for _, veh := range l.vehicles {
			if veh.v < stopSpeed {
				occupied += jamSpacing
			}
		}
		return lo.Clamp(occupied/l.length, 0, 1)
	})
}
