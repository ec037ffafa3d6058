package locator

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/zoeyai/droidauto/internal/logger"
	"github.com/zoeyai/droidauto/pkg/vision/cv"
)

// TemplateDefinition 清单中的一条模板
type TemplateDefinition struct {
	Name      string     `yaml:"name"`
	Path      string     `yaml:"path"`
	Threshold float64    `yaml:"threshold,omitempty"`
	Region    *cv.Region `yaml:"region,omitempty"`
}

// Manifest 模板清单文件
//
//	templates:
//	  - name: start_button
//	    path: images/start.png
//	    threshold: 0.85
//	    region: {x: 0, y: 600, width: 720, height: 680}
type Manifest struct {
	Templates []TemplateDefinition `yaml:"templates"`
}

// LoadManifest 加载 YAML 清单，相对路径以清单所在目录为基准
// 单个模板加载失败不影响其他模板，返回成功数量与汇总错误
func (l *Locator) LoadManifest(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("读取模板清单失败: %w", err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return 0, fmt.Errorf("解析模板清单失败: %w", err)
	}

	baseDir := filepath.Dir(path)
	var errs []error
	loaded := 0
	for i, def := range manifest.Templates {
		if def.Name == "" || def.Path == "" {
			errs = append(errs, fmt.Errorf("第 %d 个模板缺少 name 或 path", i+1))
			continue
		}
		templatePath := def.Path
		if !filepath.IsAbs(templatePath) {
			templatePath = filepath.Join(baseDir, templatePath)
		}
		err := l.Register(Template{
			Name:      def.Name,
			Path:      templatePath,
			Threshold: def.Threshold,
			Region:    def.Region,
		})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		loaded++
	}

	logger.Info("模板清单 %s: 加载 %d/%d 个模板", path, loaded, len(manifest.Templates))
	return loaded, errors.Join(errs...)
}
