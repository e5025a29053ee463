package sim

import (
	"context"
	"strings"

	"github.com/SaferDrive-AI/San-Jose-GTC-Demo/delay"
	"github.com/SaferDrive-AI/San-Jose-GTC-Demo/obstacle"
)

// Run 执行运行阶段的主循环
// 功能：单线程推进仿真直到时间窗耗尽或交通流自然排空，产出延误统计
// 参数：ctx-取消上下文，只在步边界检查，从不打断推进中的一步
// 返回：统计汇总与错误信息
// 算法说明：每步依次执行
// 1. 步边界检查取消与时间窗
// 2. 推进引擎一个时间步并推进时钟
// 3. 策略回调（动态模式在此调整相位时长）
// 4. 登记本步出发车辆（排除障碍物），结算本步到达车辆
// 5. 待出发与在途车辆全部清空时提前结束
// 说明：任何运行阶段错误都先对已有样本做Finalize，
// 返回Incomplete标记的部分结果与StageRuntime错误
func (s *Session) Run(ctx context.Context) (delay.Summary, error) {
	for {
		if err := ctx.Err(); err != nil {
			log.Warnf("run cancelled at %s, finalizing partial results", s.clock)
			return s.agg.Finalize(true), &RunError{Stage: StageRuntime, Err: err}
		}
		if s.clock.Done() {
			log.Infof("simulation window exhausted at %s", s.clock)
			break
		}

		if err := s.eng.AdvanceStep(); err != nil {
			return s.fail(err)
		}
		s.clock.Tick()

		if err := s.strategy.OnStep(s.eng, s.clock.T); err != nil {
			return s.fail(err)
		}

		for _, id := range s.eng.ListDeparted() {
			if strings.HasPrefix(id, obstacle.IDPrefix) {
				continue
			}
			s.agg.OpenTrip(id, s.clock.T)
		}
		for _, id := range s.eng.ListArrived() {
			stats, err := s.eng.VehicleStats(id)
			if err != nil {
				return s.fail(err)
			}
			s.agg.CloseTrip(id, stats)
		}

		if s.clock.InternalStep%s.rc.C.HeartbeatInterval == 0 {
			log.Infof("[%s] step %d: %d active trips", s.clock, s.clock.InternalStep, s.agg.ActiveTrips())
		}

		if !s.eng.HasPendingActivity() && s.agg.ActiveTrips() == 0 {
			log.Infof("traffic drained at %s, stopping early", s.clock)
			break
		}
	}
	return s.agg.Finalize(false), nil
}

// fail 运行阶段失败的统一收尾
func (s *Session) fail(err error) (delay.Summary, error) {
	log.Errorf("runtime failure at %s: %v", s.clock, err)
	return s.agg.Finalize(true), &RunError{Stage: StageRuntime, Err: err}
}
