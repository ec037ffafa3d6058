package auto

import (
	"testing"

	"github.com/zoeyai/droidauto/pkg/vision/cv"
)

func TestParseGridPosition(t *testing.T) {
	tests := []struct {
		input   string
		want    *GridPosition
		wantErr bool
	}{
		{"2.2.1.1", &GridPosition{Rows: 2, Cols: 2, Row: 1, Col: 1}, false},
		{"3.4.3.4", &GridPosition{Rows: 3, Cols: 4, Row: 3, Col: 4}, false},
		{"", nil, true},
		{"2.2.1", nil, true},
		{"a.2.1.1", nil, true},
		{"0.2.1.1", nil, true},
		{"2.2.0.1", nil, true},
		{"2.2.3.1", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseGridPosition(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseGridPosition(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.want != nil && *got != *tt.want {
				t.Errorf("ParseGridPosition(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
			if got != nil && got.String() != tt.input {
				t.Errorf("String() = %q", got.String())
			}
		})
	}
}

func TestCalculateGridCenter(t *testing.T) {
	rect := cv.Region{X: 100, Y: 100, Width: 200, Height: 100}
	tests := []struct {
		grid string
		want Point
	}{
		{"", Point{X: 200, Y: 150}},
		{"1.1.1.1", Point{X: 200, Y: 150}},
		{"2.2.1.1", Point{X: 150, Y: 125}},
		{"2.2.2.2", Point{X: 250, Y: 175}},
		{"1.4.1.3", Point{X: 225, Y: 150}},
	}

	for _, tt := range tests {
		got, err := CalculateGridCenterFromString(rect, tt.grid)
		if err != nil {
			t.Fatalf("%q: %v", tt.grid, err)
		}
		if got != tt.want {
			t.Errorf("%q: got %+v, want %+v", tt.grid, got, tt.want)
		}
	}

	if _, err := CalculateGridCenterFromString(rect, "1.1.2.1"); err == nil {
		t.Error("越界网格应返回错误")
	}
}

func TestGetGridCellRect(t *testing.T) {
	rect := cv.Region{X: 0, Y: 0, Width: 90, Height: 60}
	got := GetGridCellRect(rect, GridPosition{Rows: 2, Cols: 3, Row: 2, Col: 3})
	want := cv.Region{X: 60, Y: 30, Width: 30, Height: 30}
	if got != want {
		t.Errorf("GetGridCellRect() = %+v, want %+v", got, want)
	}
}

func TestGridIterator(t *testing.T) {
	it := NewGridIterator(cv.Region{Width: 40, Height: 20}, 2, 2)
	want := []Point{{10, 5}, {30, 5}, {10, 15}, {30, 15}}

	for i, w := range want {
		p := it.Next()
		if p == nil || *p != w {
			t.Fatalf("第 %d 个位置 = %v, want %+v", i, p, w)
		}
	}
	if p := it.Next(); p != nil {
		t.Errorf("遍历结束应返回 nil, got %+v", p)
	}

	it.Reset()
	if p := it.Next(); p == nil || *p != want[0] {
		t.Errorf("Reset 后应从头开始, got %v", p)
	}
}
