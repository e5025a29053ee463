// 延误统计聚合，从完成行程的车辆样本构建最终统计记录
package delay

import (
	"github.com/sirupsen/logrus"

	"github.com/SaferDrive-AI/San-Jose-GTC-Demo/engine"
)

// log 统计模块的日志记录器
var log = logrus.WithField("module", "delay")

// trip 在途车辆的临时记录
// 说明：车辆进入仿真时创建，离开仿真时结算并删除
type trip struct {
	departTime float64
}

// Summary 延误统计汇总
// 说明：均值只在已到达车辆上计算，没有到达车辆时全部均值为0；
// VehicleCount恒等于TotalArrived；Incomplete标记运行中途失败后写出的部分结果
type Summary struct {
	TotalDeparted   int     `json:"total_departed"`
	TotalArrived    int     `json:"total_arrived"`
	AverageDuration float64 `json:"average_duration"`
	AverageDelay    float64 `json:"average_delay"`
	AverageWaitTime float64 `json:"average_wait_time"`
	TotalTimeLoss   float64 `json:"total_time_loss"`
	VehicleCount    int     `json:"vehicle_count"`
	Incomplete      bool    `json:"incomplete,omitempty"`
}

// Aggregator 延误聚合器
// 功能：跟踪在途车辆、累计全局出发/到达计数，收集结算样本并在finalize时产出Summary
type Aggregator struct {
	active    map[string]trip
	samples   []engine.VehicleStats
	departed  int
	arrived   int
	finalized bool
	summary   Summary
}

// NewAggregator 创建聚合器
func NewAggregator() *Aggregator {
	return &Aggregator{
		active:  make(map[string]trip),
		samples: make([]engine.VehicleStats, 0),
	}
}

// OpenTrip 登记新出发的车辆
func (a *Aggregator) OpenTrip(id string, departTime float64) {
	if a.finalized {
		log.Warnf("trip %s departed after finalize, dropped", id)
		return
	}
	if _, ok := a.active[id]; ok {
		log.Warnf("trip %s departed twice, keeping first record", id)
		return
	}
	a.active[id] = trip{departTime: departTime}
	a.departed++
}

// CloseTrip 结算到达的车辆并记录其样本
// 说明：finalize之后到达的样本不再接收
func (a *Aggregator) CloseTrip(id string, stats engine.VehicleStats) {
	if a.finalized {
		log.Warnf("trip %s arrived after finalize, dropped", id)
		return
	}
	if _, ok := a.active[id]; !ok {
		log.Warnf("trip %s arrived without departure record", id)
		return
	}
	delete(a.active, id)
	a.samples = append(a.samples, stats)
	a.arrived++
}

// ActiveTrips 获取在途车辆数
func (a *Aggregator) ActiveTrips() int {
	return len(a.active)
}

// Finalize 产出最终统计
// 功能：对全部已结算样本求和与求均值，一次性快照、可重复调用
// 说明：未到达的在途车辆不参与均值，但保留在TotalDeparted中；
// 零到达时所有均值显式置0，避免除零
func (a *Aggregator) Finalize(incomplete bool) Summary {
	if a.finalized {
		return a.summary
	}
	a.finalized = true
	s := Summary{
		TotalDeparted: a.departed,
		TotalArrived:  a.arrived,
		VehicleCount:  a.arrived,
		Incomplete:    incomplete,
	}
	if a.arrived == 0 {
		a.summary = s
		return s
	}
	var totalDuration, totalWait float64
	for _, sample := range a.samples {
		totalDuration += sample.Duration
		totalWait += sample.WaitTime
		s.TotalTimeLoss += sample.TimeLoss
	}
	n := float64(a.arrived)
	s.AverageDuration = totalDuration / n
	s.AverageDelay = s.TotalTimeLoss / n
	s.AverageWaitTime = totalWait / n
	a.summary = s
	return s
}
