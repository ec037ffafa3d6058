package plugin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/zoeyai/droidauto/pkg/vision/ocr"
)

func TestInstall(t *testing.T) {
	var mu sync.Mutex
	var requested []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requested = append(requested, r.URL.Path)
		mu.Unlock()
		w.Write([]byte("content of " + r.URL.Path))
	}))
	defer srv.Close()

	dir := t.TempDir()
	p := NewOCRPlugin(dir, WithBaseURL(srv.URL+"/"))

	var last float64
	var calls int
	p.SetProgressCallback(func(v float64) {
		if v < last {
			t.Errorf("进度不应回退: %.1f -> %.1f", last, v)
		}
		last = v
		calls++
	})

	if p.IsInstalled() {
		t.Fatal("初始时不应已安装")
	}
	if err := p.Install(context.Background()); err != nil {
		t.Fatalf("安装失败: %v", err)
	}

	if !p.IsInstalled() {
		t.Errorf("安装后应已安装: %+v", p.GetStatus())
	}
	if last != 100 || calls < 2 {
		t.Errorf("进度回调异常: last=%.1f calls=%d", last, calls)
	}
	if len(requested) != 4 || requested[0] != "/lib/"+ocr.OnnxRuntimeLibName() {
		t.Errorf("请求路径错误: %v", requested)
	}

	cfg, err := p.GetConfig()
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(cfg.DictPath)
	if err != nil || string(data) != "content of /paddle_weights/dict.txt" {
		t.Errorf("字典文件内容错误: %q %v", data, err)
	}

	tmps, _ := filepath.Glob(filepath.Join(dir, "*", "*.tmp"))
	if len(tmps) != 0 {
		t.Errorf("不应残留临时文件: %v", tmps)
	}

	if err := p.Uninstall(); err != nil || p.IsInstalled() {
		t.Errorf("卸载失败: %v", err)
	}
}

func TestInstallHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "rec.onnx") {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	p := NewOCRPlugin(t.TempDir(), WithBaseURL(srv.URL))
	err := p.Install(context.Background())
	if err == nil || !strings.Contains(err.Error(), "rec.onnx") {
		t.Errorf("应报告 rec.onnx 下载失败: %v", err)
	}

	status := p.GetStatus()
	if status.Installed || status.Downloading {
		t.Errorf("状态错误: %+v", status)
	}
	if _, err := p.GetConfig(); err == nil {
		t.Error("未安装时 GetConfig 应返回错误")
	}
}

func TestInstallCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewOCRPlugin(t.TempDir(), WithBaseURL(srv.URL))
	if err := p.Install(ctx); err == nil {
		t.Error("上下文取消后应返回错误")
	}
}
