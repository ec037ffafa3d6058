package ocr

import (
	"reflect"
	"testing"
)

func TestRecordsEmpty(t *testing.T) {
	results := []*Result{
		NewResult(),
		NewResult(RawPage{}),
		NewResult(RawPage{RecTexts: []string{}, RecPolys: [][][2]float64{}}),
	}
	for i, r := range results {
		if got := r.TryGetTextCoord("任意"); len(got) != 0 {
			t.Errorf("case %d: TryGetTextCoord 应为空: %+v", i, got)
		}
		if got := r.TryGetTextCoordInRange("任意", 0, 0, 1000, 1000); len(got) != 0 {
			t.Errorf("case %d: TryGetTextCoordInRange 应为空: %+v", i, got)
		}
		if got := r.TryGetTextCoord(""); len(got) != 0 {
			t.Errorf("case %d: 空子串也应为空: %+v", i, got)
		}
	}
}

func TestRecordPerCharWidth(t *testing.T) {
	// 首尾两点为 (0,0) 与 (40,20)
	r := NewResult(RawPage{
		RecTexts: []string{"AB"},
		RecPolys: [][][2]float64{{{0, 0}, {40, 20}}},
	})

	records := r.Records()
	if len(records) != 1 {
		t.Fatalf("记录数量错误: %d", len(records))
	}
	want := Record{
		Text:   "AB",
		Rect:   Rect{XStart: 0, YStart: 0, XEnd: 20, YEnd: 20},
		Center: Point{X: 10, Y: 10},
	}
	if records[0] != want {
		t.Errorf("记录错误: got %+v, want %+v", records[0], want)
	}
}

func TestRecordCornerOrder(t *testing.T) {
	// 首尾点顺序颠倒时仍取最小值作为起点
	r := NewResult(RawPage{
		RecTexts: []string{"开始游戏"},
		RecPolys: [][][2]float64{{{300, 140}, {200, 140}, {200, 100}, {100, 100}}},
	})

	rec := r.Records()[0]
	// 高度 40，4 个字符，每字 10 像素
	want := Rect{XStart: 100, YStart: 100, XEnd: 140, YEnd: 140}
	if rec.Rect != want {
		t.Errorf("区域错误: %+v", rec.Rect)
	}
	if rec.Center != (Point{X: 120, Y: 120}) {
		t.Errorf("中心点错误: %+v", rec.Center)
	}
}

func TestRecordEmptyText(t *testing.T) {
	r := NewResult(RawPage{
		RecTexts: []string{""},
		RecPolys: [][][2]float64{{{10, 10}, {50, 30}}},
	})
	rec := r.Records()[0]
	if rec.Rect.XEnd != rec.Rect.XStart {
		t.Errorf("空文本宽度应为 0: %+v", rec.Rect)
	}
}

func TestRecordsMultiPage(t *testing.T) {
	r := NewResult(
		RawPage{
			RecTexts: []string{"设置", "商店"},
			RecPolys: [][][2]float64{
				{{10, 10}, {30, 10}, {30, 30}, {10, 30}},
				{{100, 10}, {120, 10}, {120, 30}, {100, 30}},
			},
		},
		RawPage{
			// 文本多于多边形时忽略多余的文本
			RecTexts: []string{"背包", "多余"},
			RecPolys: [][][2]float64{{{10, 200}, {10, 240}}},
		},
	)

	texts := r.Texts()
	if !reflect.DeepEqual(texts, []string{"设置", "商店", "背包"}) {
		t.Errorf("文本列表错误: %v", texts)
	}
}

func TestTryGetTextCoord(t *testing.T) {
	r := NewResult(RawPage{
		RecTexts: []string{"开始游戏", "游戏设置", "退出"},
		RecPolys: [][][2]float64{
			{{100, 100}, {100, 140}},
			{{100, 300}, {100, 340}},
			{{100, 500}, {100, 540}},
		},
	})

	got := r.TryGetTextCoord("游戏")
	if len(got) != 2 || got[0].Text != "开始游戏" || got[1].Text != "游戏设置" {
		t.Errorf("子串匹配错误: %+v", got)
	}
	if got := r.TryGetTextCoord("商店"); len(got) != 0 {
		t.Errorf("不存在的文字应为空: %+v", got)
	}
}

func TestTryGetTextCoordInRange(t *testing.T) {
	r := NewResult(RawPage{
		RecTexts: []string{"开始游戏", "游戏设置"},
		RecPolys: [][][2]float64{
			{{100, 100}, {100, 140}}, // 中心 (120, 120)
			{{100, 300}, {100, 340}}, // 中心 (120, 320)
		},
	})

	tests := []struct {
		name           string
		x1, y1, x2, y2 int
		want           []string
	}{
		{"包含第一个", 0, 0, 200, 200, []string{"开始游戏"}},
		{"角点顺序颠倒", 200, 200, 0, 0, []string{"开始游戏"}},
		{"边界包含", 120, 120, 120, 320, []string{"开始游戏", "游戏设置"}},
		{"全部在外", 500, 500, 600, 600, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.TryGetTextCoordInRange("游戏", tt.x1, tt.y1, tt.x2, tt.y2)
			var texts []string
			for _, rec := range got {
				texts = append(texts, rec.Text)
			}
			if !reflect.DeepEqual(texts, tt.want) {
				t.Errorf("got %v, want %v", texts, tt.want)
			}
		})
	}
}

func TestRecordsRecomputed(t *testing.T) {
	page := RawPage{
		RecTexts: []string{"确定"},
		RecPolys: [][][2]float64{{{0, 0}, {0, 20}}},
	}
	r := NewResult(page)
	first := r.Records()
	first[0].Text = "已修改"

	if r.Records()[0].Text != "确定" {
		t.Error("每次访问都应重新计算记录")
	}
}

func TestParseResultJSON(t *testing.T) {
	list := `[{"rec_texts":["确定","取消"],"rec_polys":[[[10,10],[50,10],[50,30],[10,30]],[[60,10],[100,10],[100,30],[60,30]]],"rec_scores":[0.99,0.97]}]`
	r, err := ParseResultJSON([]byte(list))
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	recs := r.TryGetTextCoord("确定")
	if len(recs) != 1 || recs[0].Center != (Point{X: 20, Y: 20}) {
		t.Errorf("解析结果错误: %+v", recs)
	}

	single := `{"rec_texts":["OK"],"rec_polys":[[[0,0],[0,10]]]}`
	r, err = ParseResultJSON([]byte(single))
	if err != nil || len(r.Records()) != 1 {
		t.Errorf("单页解析失败: %v", err)
	}

	if _, err := ParseResultJSON([]byte("not json")); err == nil {
		t.Error("无效 JSON 应返回错误")
	}
}
