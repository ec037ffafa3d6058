package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/zoeyai/droidauto/internal/logger"
	"github.com/zoeyai/droidauto/pkg/adb"
	"github.com/zoeyai/droidauto/pkg/auto"
	"github.com/zoeyai/droidauto/pkg/config"
	"github.com/zoeyai/droidauto/pkg/history"
	"github.com/zoeyai/droidauto/pkg/locator"
	"github.com/zoeyai/droidauto/pkg/plugin"
	"github.com/zoeyai/droidauto/pkg/vision/ocr"
)

// App 按需创建各组件
type App struct {
	cfg        *config.Config
	bridge     *adb.Bridge
	locator    *locator.Locator
	recognizer *ocr.TextRecognizer
	history    *history.Store
}

// NewApp 创建 App
func NewApp(cfg *config.Config) *App {
	return &App{cfg: cfg, bridge: adb.NewFromConfig(cfg)}
}

// Device 连接配置中的模拟器
func (a *App) Device(ctx context.Context) (*adb.Bridge, error) {
	if a.bridge.Connected() {
		return a.bridge, nil
	}
	if err := a.bridge.Connect(ctx, a.cfg.Host, a.cfg.Port); err != nil {
		return nil, err
	}
	return a.bridge, nil
}

// Locator 创建定位器并加载模板清单
func (a *App) Locator() (*locator.Locator, error) {
	if a.locator != nil {
		return a.locator, nil
	}
	loc := locator.New(locator.WithDefaultThreshold(a.cfg.Threshold))
	if a.cfg.TemplateManifest != "" {
		n, err := loc.LoadManifest(a.cfg.TemplateManifest)
		if err != nil {
			return nil, err
		}
		logger.Info("已加载 %d 个模板: %s", n, a.cfg.TemplateManifest)
	}
	a.locator = loc
	return loc, nil
}

// Recognizer 按配置的后端创建 OCR 识别器
func (a *App) Recognizer() (*ocr.TextRecognizer, error) {
	if a.recognizer != nil {
		return a.recognizer, nil
	}

	var engine ocr.Engine
	switch a.cfg.OCRBackend {
	case config.OCRBackendPython:
		e, err := ocr.NewPythonEngine("")
		if err != nil {
			return nil, err
		}
		engine = e
	case config.OCRBackendTesseract:
		e, err := ocr.NewTesseractEngine(a.cfg.OCRLanguages...)
		if err != nil {
			return nil, err
		}
		engine = e
	default:
		modelCfg, err := a.modelConfig()
		if err != nil {
			return nil, err
		}
		e, err := ocr.NewNativeEngine(modelCfg)
		if err != nil {
			return nil, err
		}
		engine = e
	}

	a.recognizer = ocr.NewTextRecognizer(engine)
	return a.recognizer, nil
}

func (a *App) modelConfig() (ocr.Config, error) {
	if a.cfg.OCRModelDir != "" {
		return ocr.ConfigFromDir(a.cfg.OCRModelDir), nil
	}
	cfg, err := plugin.NewOCRPlugin(plugin.DefaultDir()).GetConfig()
	if err != nil {
		return ocr.Config{}, fmt.Errorf("%w (请先执行 droidauto ocr-install)", err)
	}
	return cfg, nil
}

// Automator 组合设备、定位器与 OCR，withOCR 为 false 时不加载 OCR 模型
func (a *App) Automator(ctx context.Context, withOCR bool) (*auto.Automator, error) {
	device, err := a.Device(ctx)
	if err != nil {
		return nil, err
	}
	loc, err := a.Locator()
	if err != nil {
		return nil, err
	}
	var recognizer *ocr.TextRecognizer
	if withOCR {
		if recognizer, err = a.Recognizer(); err != nil {
			return nil, err
		}
	}
	return auto.New(device, loc, recognizer), nil
}

// History 打开执行记录库，未配置路径时使用配置目录下的 history.db
func (a *App) History() (*history.Store, error) {
	if a.history != nil {
		return a.history, nil
	}
	path := a.cfg.HistoryDB
	if path == "" {
		path = filepath.Join(config.DefaultManager().ConfigDir(), "history.db")
	}
	store, err := history.Open(path)
	if err != nil {
		return nil, err
	}
	a.history = store
	return store, nil
}

// Close 释放 OCR 引擎与记录库，adb 连接保留给后续命令
func (a *App) Close() {
	if a.recognizer != nil {
		if err := a.recognizer.Close(); err != nil {
			logger.Warn("关闭 OCR 失败: %v", err)
		}
		a.recognizer = nil
	}
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			logger.Warn("关闭执行记录库失败: %v", err)
		}
		a.history = nil
	}
}
