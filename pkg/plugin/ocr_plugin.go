// Package plugin 管理可选插件 (OCR 模型)
package plugin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/zoeyai/droidauto/internal/logger"
	"github.com/zoeyai/droidauto/pkg/vision/ocr"
)

// HFRepoBase 模型仓库地址
const HFRepoBase = "https://huggingface.co/getcharzp/go-ocr/resolve/main"

// OCRPlugin OCR 模型管理器
type OCRPlugin struct {
	baseDir string
	baseURL string
	client  *http.Client

	mu          sync.RWMutex
	downloading bool
	progress    float64
	onProgress  func(float64)
}

// OCRPluginStatus OCR 插件状态
type OCRPluginStatus struct {
	Installed   bool       `json:"installed"`
	Downloading bool       `json:"downloading"`
	Progress    float64    `json:"progress"` // 0-100
	Missing     []string   `json:"missing,omitempty"`
	Config      ocr.Config `json:"config"`
}

type downloadFile struct {
	name     string
	url      string
	destPath string
	size     int64 // 预估大小（字节）
}

// Option 插件配置选项
type Option func(*OCRPlugin)

// WithBaseURL 替换模型仓库地址
func WithBaseURL(url string) Option {
	return func(p *OCRPlugin) {
		p.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient 替换 HTTP 客户端
func WithHTTPClient(c *http.Client) Option {
	return func(p *OCRPlugin) {
		p.client = c
	}
}

// DefaultDir 默认模型目录 ~/.droidauto/plugins/ocr
func DefaultDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".droidauto", "plugins", "ocr")
}

// NewOCRPlugin 创建 OCR 模型管理器，baseDir 为空时使用默认目录
func NewOCRPlugin(baseDir string, opts ...Option) *OCRPlugin {
	if baseDir == "" {
		baseDir = DefaultDir()
	}
	p := &OCRPlugin{
		baseDir: baseDir,
		baseURL: HFRepoBase,
		client:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// BaseDir 模型目录
func (p *OCRPlugin) BaseDir() string {
	return p.baseDir
}

// SetProgressCallback 设置进度回调
func (p *OCRPlugin) SetProgressCallback(callback func(float64)) {
	p.mu.Lock()
	p.onProgress = callback
	p.mu.Unlock()
}

// GetStatus 获取插件状态
func (p *OCRPlugin) GetStatus() OCRPluginStatus {
	p.mu.RLock()
	status := OCRPluginStatus{
		Downloading: p.downloading,
		Progress:    p.progress,
		Config:      ocr.ConfigFromDir(p.baseDir),
	}
	p.mu.RUnlock()

	for _, f := range status.Config.Files() {
		if !fileExists(f) {
			status.Missing = append(status.Missing, f)
		}
	}
	status.Installed = len(status.Missing) == 0
	return status
}

// IsInstalled 检查是否已安装
func (p *OCRPlugin) IsInstalled() bool {
	return p.GetStatus().Installed
}

// GetConfig 获取原生 OCR 引擎配置
func (p *OCRPlugin) GetConfig() (ocr.Config, error) {
	status := p.GetStatus()
	if !status.Installed {
		return ocr.Config{}, fmt.Errorf("OCR 插件未安装, 缺少 %d 个文件", len(status.Missing))
	}
	return status.Config, nil
}

// Install 下载并安装 OCR 模型，已存在的文件会被覆盖
func (p *OCRPlugin) Install(ctx context.Context) error {
	p.mu.Lock()
	if p.downloading {
		p.mu.Unlock()
		return fmt.Errorf("正在下载中")
	}
	p.downloading = true
	p.progress = 0
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.downloading = false
		p.mu.Unlock()
	}()

	files := p.getDownloadFiles()
	for _, f := range files {
		if err := os.MkdirAll(filepath.Dir(f.destPath), 0755); err != nil {
			return fmt.Errorf("创建目录失败: %w", err)
		}
	}

	var totalSize int64
	for _, f := range files {
		totalSize += f.size
	}

	var downloadedSize int64
	for _, f := range files {
		logger.Info("下载 %s", f.name)
		err := p.downloadFile(ctx, f.url, f.destPath, func(downloaded int64) {
			p.setProgress(min(float64(downloadedSize+downloaded)/float64(totalSize)*100, 99.9))
		})
		if err != nil {
			return fmt.Errorf("下载 %s 失败: %w", f.name, err)
		}
		downloadedSize += f.size
	}

	p.setProgress(100)
	logger.Info("OCR 插件安装完成: %s", p.baseDir)
	return nil
}

func (p *OCRPlugin) setProgress(v float64) {
	p.mu.Lock()
	p.progress = v
	cb := p.onProgress
	p.mu.Unlock()
	if cb != nil {
		cb(v)
	}
}

// Uninstall 卸载 OCR 插件
func (p *OCRPlugin) Uninstall() error {
	return os.RemoveAll(p.baseDir)
}

// getDownloadFiles 需要下载的文件，ONNX Runtime 按平台选择
func (p *OCRPlugin) getDownloadFiles() []downloadFile {
	cfg := ocr.ConfigFromDir(p.baseDir)
	lib := ocr.OnnxRuntimeLibName()
	return []downloadFile{
		{name: lib, url: p.baseURL + "/lib/" + lib, destPath: cfg.OnnxRuntimeLibPath, size: 50 * 1024 * 1024},
		{name: "det.onnx", url: p.baseURL + "/paddle_weights/det.onnx", destPath: cfg.DetModelPath, size: 3 * 1024 * 1024},
		{name: "rec.onnx", url: p.baseURL + "/paddle_weights/rec.onnx", destPath: cfg.RecModelPath, size: 5 * 1024 * 1024},
		{name: "dict.txt", url: p.baseURL + "/paddle_weights/dict.txt", destPath: cfg.DictPath, size: 200 * 1024},
	}
}

// downloadFile 下载到临时文件后重命名
func (p *OCRPlugin) downloadFile(ctx context.Context, url, destPath string, onProgress func(int64)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	tmpPath := destPath + ".tmp"
	out, err := os.Create(tmpPath)
	if err != nil {
		return err
	}

	_, err = io.Copy(out, &progressReader{r: resp.Body, onProgress: onProgress})
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, destPath)
}

// progressReader 读取时回调累计字节数
type progressReader struct {
	r          io.Reader
	n          int64
	onProgress func(int64)
}

func (pr *progressReader) Read(b []byte) (int, error) {
	n, err := pr.r.Read(b)
	if n > 0 {
		pr.n += int64(n)
		if pr.onProgress != nil {
			pr.onProgress(pr.n)
		}
	}
	return n, err
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
