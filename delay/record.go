package delay

import (
	"encoding/json"
	"fmt"
	"os"
)

// Configuration 输出记录中回显的运行配置
type Configuration struct {
	Scenario       string  `json:"scenario"`
	Obstacles      string  `json:"obstacles"`
	TLSProgram     string  `json:"tls_program,omitempty"`
	Mode           string  `json:"mode"`
	SimulationTime float64 `json:"simulation_time"`
	StepLength     float64 `json:"step_length"`
}

// Record 运行结束时输出的唯一记录
type Record struct {
	Configuration Configuration `json:"configuration"`
	Results       Summary       `json:"results"`
}

// Write 将记录以JSON写入文件
// 说明：path为空时只打印到日志，不落盘
func (r Record) Write(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("delay: marshal record: %w", err)
	}
	if path == "" {
		log.Infof("result record:\n%s", data)
		return nil
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("delay: write record: %w", err)
	}
	log.Infof("result record written to %s", path)
	return nil
}
