package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/zoeyai/droidauto/pkg/config"
	"github.com/zoeyai/droidauto/pkg/plugin"
	"github.com/zoeyai/droidauto/pkg/process"
	"github.com/zoeyai/droidauto/pkg/python"
	"github.com/zoeyai/droidauto/pkg/vision/ocr"
)

func check(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}

// runDoctor 逐项检查运行环境，单项失败不中断
func runDoctor(ctx context.Context, app *App, _ []string) error {
	adbErr := app.bridge.CheckADBAvailable(ctx)
	fmt.Printf("%s adb: %s\n", check(adbErr == nil), app.cfg.ADBPath)
	if adbErr != nil {
		fmt.Printf("    %v\n", adbErr)
	}

	running, err := process.ADBServerRunning()
	if err != nil {
		fmt.Printf("✗ adb server: %v\n", err)
	} else {
		fmt.Printf("%s adb server 运行中\n", check(running))
	}

	emulators, err := process.FindEmulators()
	switch {
	case err != nil:
		fmt.Printf("✗ 模拟器: %v\n", err)
	case len(emulators) == 0:
		fmt.Println("✗ 未发现运行中的模拟器")
	default:
		for _, e := range emulators {
			fmt.Printf("✓ 模拟器: %s (%s, pid %d)\n", e.Emulator, e.Name, e.PID)
		}
	}

	if adbErr == nil {
		if _, err := app.Device(ctx); err != nil {
			fmt.Printf("✗ 连接 %s: %v\n", app.cfg.Serial(), err)
		} else {
			fmt.Printf("✓ 已连接 %s\n", app.cfg.Serial())
		}
	}

	status := plugin.NewOCRPlugin(plugin.DefaultDir()).GetStatus()
	fmt.Printf("%s OCR 模型: %s\n", check(status.Installed), plugin.DefaultDir())
	if !status.Installed {
		fmt.Printf("    缺少: %s\n", strings.Join(status.Missing, ", "))
	}

	py := python.DetectPython()
	if py.Available {
		fmt.Printf("✓ Python %s: %s\n", py.Version, py.Path)
	} else {
		fmt.Println("✗ 未检测到 Python 3 (python 后端不可用)")
	}

	if app.cfg.OCRBackend == config.OCRBackendTesseract {
		if e, err := ocr.NewTesseractEngine(app.cfg.OCRLanguages...); err != nil {
			fmt.Printf("✗ Tesseract: %v\n", err)
		} else {
			e.Close()
			fmt.Println("✓ Tesseract 可用")
		}
	}

	if store, err := app.History(); err != nil {
		fmt.Printf("✗ 执行记录库: %v\n", err)
	} else {
		fmt.Printf("✓ 执行记录库: %s\n", store.Path())
	}

	if app.cfg.TemplateManifest != "" {
		loc, err := app.Locator()
		if err != nil {
			fmt.Printf("✗ 模板清单: %v\n", err)
		} else {
			fmt.Printf("✓ 模板清单: %d 个模板\n", len(loc.Names()))
		}
	}
	return nil
}

func runOCRInstall(ctx context.Context, _ *App, args []string) error {
	fs := newFlagSet("ocr-install")
	baseURL := fs.String("url", "", "模型下载地址，为空时使用默认地址")
	uninstall := fs.Bool("uninstall", false, "卸载已下载的模型")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var opts []plugin.Option
	if *baseURL != "" {
		opts = append(opts, plugin.WithBaseURL(*baseURL))
	}
	p := plugin.NewOCRPlugin(plugin.DefaultDir(), opts...)

	if *uninstall {
		if err := p.Uninstall(); err != nil {
			return err
		}
		fmt.Printf("[INFO] 已删除 %s\n", p.BaseDir())
		return nil
	}

	last := -1
	p.SetProgressCallback(func(progress float64) {
		if pct := int(progress); pct/10 != last/10 {
			last = pct
			fmt.Printf("[INFO] 下载进度 %d%%\n", pct)
		}
	})
	if err := p.Install(ctx); err != nil {
		return err
	}
	fmt.Printf("[INFO] OCR 模型已安装到 %s\n", p.BaseDir())
	return nil
}
