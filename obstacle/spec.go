package obstacle

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// GeoSpec 用户输入的单个障碍物描述
// 功能：以经纬度描述障碍物位置，解析完成后不可变
// 说明：Width/Height仅作记录、不影响放置与物理行为（障碍物使用引擎默认车辆尺寸）；
// Angle为nil时表示自动跟随车道切向角
type GeoSpec struct {
	Latitude  float64  // 纬度
	Longitude float64  // 经度
	Width     float64  // 宽度（米，仅记录）
	Height    float64  // 高度（米，仅记录）
	Angle     *float64 // 朝向角（度，可缺失）
}

// ParseSpecs 解析障碍物描述字符串
// 功能：将"lat,lon[,width,height,angle];lat,lon[...]"格式的字符串解析为GeoSpec列表
// 参数：s-障碍物描述字符串，空字符串表示没有障碍物
// 返回：GeoSpec列表与错误信息
// 说明：任何字段缺失或非法都是配置错误，必须在触碰引擎之前失败，
// 否则静默丢弃的障碍物会使实验结果失去意义
func ParseSpecs(s string) ([]GeoSpec, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	specs := make([]GeoSpec, 0)
	for i, entry := range strings.Split(s, ";") {
		parts := strings.Split(entry, ",")
		for j := range parts {
			parts[j] = strings.TrimSpace(parts[j])
		}
		if len(parts) < 2 {
			return nil, fmt.Errorf("obstacle %d %q: latitude and longitude are required", i, entry)
		}
		if len(parts) > 5 {
			return nil, fmt.Errorf("obstacle %d %q: too many fields (at most lat,lon,width,height,angle)", i, entry)
		}
		values := make([]float64, len(parts))
		for j, p := range parts {
			v, err := strconv.ParseFloat(p, 64)
			if err != nil {
				return nil, fmt.Errorf("obstacle %d %q: bad field %q: %w", i, entry, p, err)
			}
			values[j] = v
		}
		spec := GeoSpec{Latitude: values[0], Longitude: values[1]}
		if len(values) > 2 {
			spec.Width = values[2]
		}
		if len(values) > 3 {
			spec.Height = values[3]
		}
		if len(values) > 4 {
			spec.Angle = &values[4]
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// String 单个障碍物的规范字符串形式
// 说明：只输出到最后一个有意义的字段为止，保证Parse∘Format幂等
func (g GeoSpec) String() string {
	fields := []string{formatFloat(g.Latitude), formatFloat(g.Longitude)}
	if g.Width != 0 || g.Height != 0 || g.Angle != nil {
		fields = append(fields, formatFloat(g.Width), formatFloat(g.Height))
	}
	if g.Angle != nil {
		fields = append(fields, formatFloat(*g.Angle))
	}
	return strings.Join(fields, ",")
}

// FormatSpecs 将GeoSpec列表序列化回规范字符串形式
func FormatSpecs(specs []GeoSpec) string {
	return strings.Join(lo.Map(specs, func(g GeoSpec, _ int) string {
		return g.String()
	}), ";")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
