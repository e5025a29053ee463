package main

import (
	"context"
	"encoding/base64"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	easy "git.fiblab.net/utils/logrus-easy-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/SaferDrive-AI/San-Jose-GTC-Demo/delay"
	"github.com/SaferDrive-AI/San-Jose-GTC-Demo/engine/local"
	"github.com/SaferDrive-AI/San-Jose-GTC-Demo/sim"
	"github.com/SaferDrive-AI/San-Jose-GTC-Demo/utils/config"
	"github.com/SaferDrive-AI/San-Jose-GTC-Demo/utils/input"
)

var (
	// 配置文件路径
	configPath = flag.String("config", "", "config file path")
	// 配置文件Base64编码后的数据
	configData = flag.String("config-data", "", "config file base64 encoded data")
	// 障碍物描述字符串，非空时覆盖配置文件中的obstacles
	obstacles = flag.String("obstacles", "", "obstacle specs \"lat,lon[,w,h[,angle]];...\" (overrides config)")
	// 信控模式，非空时覆盖配置文件中的control.mode
	mode = flag.String("mode", "", "signal control mode: baseline/optimized/dynamic (overrides config)")
	// 信号程序描述文件路径，非空时覆盖配置文件中的tls_program
	tlsProgram = flag.String("tls-program", "", "tls program descriptor path (overrides config)")
	// 结果记录输出路径，非空时覆盖配置文件中的output
	output = flag.String("output", "", "result record path (overrides config)")

	// log
	logLevels = map[string]logrus.Level{
		"trace":    logrus.TraceLevel,
		"debug":    logrus.DebugLevel,
		"info":     logrus.InfoLevel,
		"warn":     logrus.WarnLevel,
		"error":    logrus.ErrorLevel,
		"critical": logrus.FatalLevel,
		"off":      logrus.PanicLevel,
	}
	logLevel = flag.String("log.level", "info", "日志级别（可选项：trace debug info warn error critical off）")

	log = logrus.WithField("module", "main")
)

func main() {
	flag.Parse()
	logrus.SetFormatter(&easy.Formatter{
		TimestampFormat: "2006-01-02 15:04:05.0000",
		LogFormat:       "[%module%] [%time%] [%lvl%] %msg%\n",
	})
	// log: 运行时才修改
	if level, ok := logLevels[*logLevel]; ok {
		logrus.SetLevel(level)
	} else {
		log.Panicf("log.level must be one of %v", logLevels)
	}
	// 获取配置
	var c config.Config
	var file []byte
	var err error
	if *configPath != "" {
		file, err = os.ReadFile(*configPath)
		if err != nil {
			log.Panicf("config file load err: %v", err)
		}
	} else if *configData != "" {
		file, err = base64.StdEncoding.DecodeString(*configData)
		if err != nil {
			log.Panicf("config data load err: %v", err)
		}
	} else {
		log.Panic("config file or config data must be specified")
	}
	if err := yaml.UnmarshalStrict(file, &c); err != nil {
		log.Panicf("config file load err: %v", err)
	}
	// 命令行覆盖配置文件
	if *obstacles != "" {
		c.Obstacles = *obstacles
	}
	if *mode != "" {
		c.Control.Mode = *mode
	}
	if *tlsProgram != "" {
		c.TLSProgram = *tlsProgram
	}
	if *output != "" {
		c.Output = *output
	}
	log.Infof("%+v", c)
	rc := config.NewRuntimeConfig(c)

	// 加载场景并构建内置引擎
	scenario := input.Load(rc.All.Input)
	eng, err := local.New(scenario, rc.C.Step.Interval, float64(rc.C.Step.Start)*rc.C.Step.Interval)
	if err != nil {
		log.Fatalf("engine init err: %v", err)
	}

	session, err := sim.NewSession(eng, rc)
	if err != nil {
		log.Errorf("configuration failed: %v", err)
		eng.Close()
		os.Exit(2)
	}
	defer session.Close()

	// Ctrl-C与SIGTERM在步边界优雅终止
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, runErr := session.Run(ctx)
	record := delay.Record{
		Configuration: delay.Configuration{
			Scenario:       rc.All.Input.Scenario.File,
			Obstacles:      rc.All.Obstacles,
			TLSProgram:     rc.All.TLSProgram,
			Mode:           session.Mode().String(),
			SimulationTime: float64(rc.C.Step.Total) * rc.C.Step.Interval,
			StepLength:     rc.C.Step.Interval,
		},
		Results: summary,
	}
	if err := record.Write(rc.All.Output); err != nil {
		log.Errorf("failed to write result record: %v", err)
	}
	if runErr != nil {
		var re *sim.RunError
		if errors.As(runErr, &re) && re.Stage == sim.StageRuntime {
			log.Errorf("run aborted, partial results recorded: %v", runErr)
			os.Exit(3)
		}
		log.Errorf("run failed: %v", runErr)
		os.Exit(2)
	}
	log.Infof("done: %d departed, %d arrived, average delay %.2fs",
		summary.TotalDeparted, summary.TotalArrived, summary.AverageDelay)
}
