package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/zoeyai/droidauto/internal/logger"
	"github.com/zoeyai/droidauto/pkg/config"
)

// 版本信息 (可通过 ldflags 注入)
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// command 子命令
type command struct {
	name  string
	usage string
	run   func(ctx context.Context, app *App, args []string) error
}

var commands = []command{
	{"devices", "列出 adb 设备", runDevices},
	{"connect", "连接模拟器并显示设备信息", runConnect},
	{"info", "显示设备信息与当前 Activity", runInfo},
	{"screenshot", "截图 [-o 输出路径]", runScreenshot},
	{"tap", "点击 [-d 毫秒] <x> <y>", runTap},
	{"swipe", "滑动 [-d 毫秒] <x1> <y1> <x2> <y2>", runSwipe},
	{"key", "发送按键 <keycode>", runKey},
	{"text", "输入文字 <text>", runText},
	{"find", "查找模板/元素 [-template 路径 | -name 元素]", runFind},
	{"wait", "等待元素或文字出现 [-name 元素 | -text 文字] [-timeout 10s] [-tap]", runWait},
	{"ocr", "识别屏幕文字 [-find 文字] [-tap]", runOCR},
	{"run", "执行 YAML 用例 [-json] [-no-history] <case.yaml>", runCase},
	{"history", "查看执行记录 [-n 条数] [-show ID] [-delete ID] [-prune 保留条数]", runHistory},
	{"doctor", "检查 adb、模拟器、OCR 环境", runDoctor},
	{"ocr-install", "下载 OCR 模型", runOCRInstall},
}

func main() {
	// 全局参数，优先级: 命令行 > 环境变量 > 配置文件
	var (
		configFile  = flag.String("config", "", "配置文件 (.json/.ini)，默认使用本地配置")
		envFile     = flag.String("env", config.DefaultEnvFile, "环境变量文件")
		host        = flag.String("host", "", "模拟器地址 (例: 127.0.0.1)")
		port        = flag.Int("port", 0, "模拟器 adb 端口 (例: 16384)")
		adbPath     = flag.String("adb", "", "adb 可执行文件路径")
		manifest    = flag.String("templates", "", "模板清单 (YAML)")
		logLevel    = flag.String("log-level", "", "日志级别 (DEBUG/INFO/WARN/ERROR)")
		saveConfig  = flag.Bool("save", false, "保存配置到本地")
		showVersion = flag.Bool("version", false, "显示版本信息")
		showHelp    = flag.Bool("help", false, "显示帮助信息")
	)
	flag.Usage = printHelp
	flag.Parse()

	if *showVersion {
		printVersion()
		return
	}
	if *showHelp || flag.NArg() == 0 {
		printHelp()
		return
	}

	if err := config.LoadDotEnv(*envFile); err != nil {
		fmt.Printf("[WARN] %v\n", err)
	}

	var cfg *config.Config
	var err error
	if *configFile != "" {
		if cfg, err = config.LoadFile(*configFile); err != nil {
			fmt.Printf("[ERROR] %v\n", err)
			os.Exit(1)
		}
	} else if cfg, err = config.Load(); err != nil {
		fmt.Printf("[WARN] 加载配置失败: %v\n", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		fmt.Printf("[ERROR] %v\n", err)
		os.Exit(1)
	}
	if *host != "" {
		cfg.Host = *host
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *adbPath != "" {
		cfg.ADBPath = *adbPath
	}
	if *manifest != "" {
		cfg.TemplateManifest = *manifest
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("[ERROR] 配置无效: %v\n", err)
		os.Exit(1)
	}

	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))
	if cfg.LogFile != "" {
		if err := logger.SetFile(cfg.LogFile); err != nil {
			fmt.Printf("[WARN] 打开日志文件失败: %v\n", err)
		}
	}

	if *saveConfig {
		if err := saveConfigTo(cfg, *configFile); err != nil {
			fmt.Printf("[WARN] 保存配置失败: %v\n", err)
		}
	}

	name := flag.Arg(0)
	cmd, ok := lookupCommand(name)
	if !ok {
		fmt.Printf("[ERROR] 未知命令: %s\n\n", name)
		printHelp()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := NewApp(cfg)
	defer app.Close()

	if err := cmd.run(ctx, app, flag.Args()[1:]); err != nil {
		fmt.Printf("[ERROR] %s: %v\n", name, err)
		app.Close()
		os.Exit(1)
	}
}

// saveConfigTo 指定了 .ini 配置文件时写回该文件，否则保存到本地配置
func saveConfigTo(cfg *config.Config, configFile string) error {
	if strings.EqualFold(filepath.Ext(configFile), ".ini") {
		if err := config.SaveINI(cfg, configFile); err != nil {
			return err
		}
		fmt.Printf("[INFO] 配置已保存到 %s\n", configFile)
		return nil
	}
	if err := config.Save(cfg); err != nil {
		return err
	}
	fmt.Printf("[INFO] 配置已保存到 %s\n", config.DefaultManager().ConfigFile())
	return nil
}

func lookupCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

// printVersion 打印版本信息
func printVersion() {
	fmt.Printf("DroidAuto v%s\n", Version)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}

// printHelp 打印帮助信息
func printHelp() {
	fmt.Println("DroidAuto - 安卓模拟器自动化工具")
	fmt.Println()
	fmt.Println("用法:")
	fmt.Println("  droidauto [全局选项] <命令> [命令选项]")
	fmt.Println()
	fmt.Println("全局选项:")
	fmt.Println("  -config string     配置文件 (.json/.ini)")
	fmt.Println("  -env string        环境变量文件 (默认 .env)")
	fmt.Println("  -host string       模拟器地址 (例: 127.0.0.1)")
	fmt.Println("  -port int          模拟器 adb 端口 (例: 16384)")
	fmt.Println("  -adb string        adb 可执行文件路径")
	fmt.Println("  -templates string  模板清单 (YAML)")
	fmt.Println("  -log-level string  日志级别 (DEBUG/INFO/WARN/ERROR)")
	fmt.Println("  -save              保存配置到本地")
	fmt.Println("  -version           显示版本信息")
	fmt.Println("  -help              显示帮助信息")
	fmt.Println()
	fmt.Println("命令:")
	for _, c := range commands {
		fmt.Printf("  %-12s %s\n", c.name, c.usage)
	}
	fmt.Println()
	fmt.Println("示例:")
	fmt.Println("  # 连接 MuMu 模拟器并保存配置")
	fmt.Println("  droidauto -host 127.0.0.1 -port 16384 -save connect")
	fmt.Println()
	fmt.Println("  # 在本地截图上查找模板并输出诊断图")
	fmt.Println("  droidauto find -screen screen.png -template button.png -debug out.png")
	fmt.Println()
	fmt.Println("  # 等待清单中的元素出现后点击")
	fmt.Println("  droidauto -templates templates.yaml wait -name start -tap")
	fmt.Println()
	fmt.Println("  # 执行用例")
	fmt.Println("  droidauto -templates templates.yaml run login.yaml")
	fmt.Println()
	fmt.Printf("配置文件位置: %s\n", config.DefaultManager().ConfigFile())
	fmt.Printf("环境变量前缀: %s (例: %sPORT=16384)\n", config.EnvPrefix, config.EnvPrefix)
}
