package input

import (
	"context"
	"encoding/json"
	"os"

	"git.fiblab.net/general/common/v2/mongoutil"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/SaferDrive-AI/San-Jose-GTC-Demo/utils/config"
)

// Load 加载场景数据
// 功能：根据配置从文件或数据库加载场景，并完成一致性校验
// 参数：c-输入配置
// 返回：校验通过的场景数据指针
// 算法说明：
// 1. 优先从JSON文件加载
// 2. 否则按URI连接MongoDB，从指定db.col读取单个场景文档
// 3. 统一调用Validate做完整性检查
// 说明：加载失败直接Panic，场景数据不完整时仿真没有意义
func Load(c config.Input) *Scenario {
	s := &Scenario{}
	if c.Scenario.File != "" {
		data, err := os.ReadFile(c.Scenario.File)
		if err != nil {
			log.Panicf("failed to read scenario file: %v", err)
		}
		if err := json.Unmarshal(data, s); err != nil {
			log.Panicf("failed to parse scenario file %s: %v", c.Scenario.File, err)
		}
		log.Infof("load scenario from file %s", c.Scenario.File)
	} else {
		if c.URI == "" {
			log.Panicf("no scenario source: both file and mongo uri are empty")
		}
		client := mongoutil.NewClient(c.URI)
		defer client.Disconnect(context.Background())
		coll := client.Database(c.Scenario.DB).Collection(c.Scenario.Col)
		if err := coll.FindOne(context.Background(), bson.D{}).Decode(s); err != nil {
			log.Panicf("failed to load scenario from %s.%s: %v", c.Scenario.DB, c.Scenario.Col, err)
		}
		log.Infof("load scenario from mongodb %s.%s", c.Scenario.DB, c.Scenario.Col)
	}
	if err := s.Validate(); err != nil {
		log.Panicf("invalid scenario: %v", err)
	}
	log.Infof("scenario loaded: %d edges, %d controllers, %d trips",
		len(s.Edges), len(s.Controllers), len(s.Trips))
	return s
}
