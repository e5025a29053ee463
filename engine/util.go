package engine

import "fmt"

// laneID 拼接edge ID与车道序号得到车道ID（SUMO惯例：<edge>_<index>）
func laneID(edgeID string, laneIndex int) string {
	return fmt.Sprintf("%s_%d", edgeID, laneIndex)
}

// NormalizeHeading 将角度归一化到[0, 360)度
func NormalizeHeading(deg float64) float64 {
	deg = deg - 360*float64(int(deg/360))
	if deg < 0 {
		deg += 360
	}
	return deg
}
