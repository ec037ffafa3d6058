// Package python 检测 Python 环境并运行 PaddleOCR 子进程
package python

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/zoeyai/droidauto/internal/logger"
	"github.com/zoeyai/droidauto/pkg/cmdutil"
)

// PythonInfo Python 环境信息
type PythonInfo struct {
	Available bool   // Python 是否可用
	Version   string // 版本号，如 "3.11.5"
	Path      string // 可执行文件路径
}

// ResultMarker 标记 OCR 结果所在的输出行，PaddleOCR 自身的日志会混入标准输出
const ResultMarker = "__DROIDAUTO_OCR__"

// paddleScript 对 argv[1] 执行 predict，输出 rec_texts/rec_polys/rec_scores
const paddleScript = `import json, sys
from paddleocr import PaddleOCR

ocr = PaddleOCR(
    use_doc_orientation_classify=False,
    use_doc_unwarping=False,
    use_textline_orientation=False,
)
pages = []
for res in ocr.predict(sys.argv[1]):
    pages.append({
        "rec_texts": [str(t) for t in res["rec_texts"]],
        "rec_polys": [[[float(v) for v in pt] for pt in poly] for poly in res["rec_polys"]],
        "rec_scores": [float(s) for s in res["rec_scores"]],
    })
print("` + ResultMarker + `" + json.dumps(pages, ensure_ascii=False))
`

// DetectPython 检测 Python 3 环境，依次尝试 python3、python
func DetectPython() *PythonInfo {
	info := &PythonInfo{}

	for _, name := range []string{"python3", "python"} {
		path, err := exec.LookPath(name)
		if err != nil {
			continue
		}

		version, err := getPythonVersion(path)
		if err != nil {
			continue
		}
		if strings.HasPrefix(version, "2.") {
			continue
		}

		info.Available = true
		info.Version = version
		info.Path = path
		return info
	}

	return info
}

// getPythonVersion 执行 python --version 获取版本号
func getPythonVersion(pythonPath string) (string, error) {
	cmd := cmdutil.Command(context.Background(), pythonPath, "--version")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", err
	}
	return parseVersion(string(output)), nil
}

func parseVersion(output string) string {
	line := strings.TrimSpace(output)
	parts := strings.SplitN(line, " ", 2)
	if len(parts) == 2 {
		return parts[1]
	}
	return line
}

// RunPaddleOCR 在子进程中识别 imagePath，返回页面数组 JSON
func RunPaddleOCR(ctx context.Context, pythonPath, imagePath string) ([]byte, error) {
	cmd := cmdutil.Command(ctx, pythonPath, "-c", paddleScript, imagePath)
	stdout, stderr, err := cmdutil.Output(cmd)
	if err != nil {
		logger.Error("PaddleOCR 子进程失败: %v", err)
		return nil, fmt.Errorf("PaddleOCR 执行失败: %w (%s)", err, lastLine(stderr))
	}
	return ExtractResult(stdout)
}

// ExtractResult 从子进程输出中取出标记行的 JSON
func ExtractResult(stdout string) ([]byte, error) {
	lines := strings.Split(stdout, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if payload, ok := strings.CutPrefix(line, ResultMarker); ok {
			return []byte(payload), nil
		}
	}
	return nil, fmt.Errorf("PaddleOCR 输出中没有识别结果")
}

func lastLine(s string) string {
	lines := bytes.Split(bytes.TrimSpace([]byte(s)), []byte("\n"))
	return string(lines[len(lines)-1])
}
