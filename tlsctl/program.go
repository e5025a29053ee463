package tlsctl

import (
	"encoding/json"
	"fmt"

	"github.com/SaferDrive-AI/San-Jose-GTC-Demo/engine"
)

// phaseDescriptor JSON描述文件中的单个相位
type phaseDescriptor struct {
	Duration float64  `json:"duration"`
	State    string   `json:"state"`
	MinDur   *float64 `json:"minDur,omitempty"`
	MaxDur   *float64 `json:"maxDur,omitempty"`
}

// programDescriptor JSON描述文件中单个控制器的信号程序
type programDescriptor struct {
	ProgramID string            `json:"programID"`
	Phases    []phaseDescriptor `json:"phases"`
}

// ParseDescriptor 解析信号程序描述文件
// 功能：将控制器ID到信号程序的JSON映射解析为引擎信号程序集合
// 参数：data-JSON数据
// 返回：按控制器ID索引的信号程序集合与错误信息
// 说明：控制器ID的唯一性由JSON对象键保证；
// 每个程序内所有相位的State长度必须一致，时长与边界必须合法
func ParseDescriptor(data []byte) (map[string]engine.TLSProgram, error) {
	var raw map[string]programDescriptor
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("tlsctl: bad program descriptor: %w", err)
	}
	programs := make(map[string]engine.TLSProgram, len(raw))
	for controllerID, desc := range raw {
		if len(desc.Phases) == 0 {
			return nil, fmt.Errorf("tlsctl: controller %s: program has no phases", controllerID)
		}
		if desc.ProgramID == "" {
			return nil, fmt.Errorf("tlsctl: controller %s: programID is required", controllerID)
		}
		p := engine.TLSProgram{
			ProgramID: desc.ProgramID,
			Phases:    make([]engine.TLSPhase, 0, len(desc.Phases)),
		}
		groups := len(desc.Phases[0].State)
		for i, ph := range desc.Phases {
			if ph.State == "" {
				return nil, fmt.Errorf("tlsctl: controller %s phase %d: empty state string", controllerID, i)
			}
			if len(ph.State) != groups {
				return nil, fmt.Errorf("tlsctl: controller %s phase %d: state length %d does not match %d",
					controllerID, i, len(ph.State), groups)
			}
			if ph.Duration <= 0 {
				return nil, fmt.Errorf("tlsctl: controller %s phase %d: duration must be positive", controllerID, i)
			}
			if ph.MinDur != nil && ph.MaxDur != nil && *ph.MinDur > *ph.MaxDur {
				return nil, fmt.Errorf("tlsctl: controller %s phase %d: minDur %.1f > maxDur %.1f",
					controllerID, i, *ph.MinDur, *ph.MaxDur)
			}
			p.Phases = append(p.Phases, engine.TLSPhase{
				Duration:    ph.Duration,
				State:       ph.State,
				MinDuration: ph.MinDur,
				MaxDuration: ph.MaxDur,
			})
		}
		programs[controllerID] = p
	}
	return programs, nil
}
