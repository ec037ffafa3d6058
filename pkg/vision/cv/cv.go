// Package cv 提供基于 OpenCV 模板匹配的界面元素定位
//
// 支持以下匹配方式:
//   - 单目标匹配: 相关性曲面上的全局最优点
//   - 多目标匹配: 所有达到阈值的位置，按置信度降序
//   - 多尺度匹配: 在给定缩放范围内线性取样模板尺寸
//   - 区域匹配: 仅在截图的子矩形内搜索
//
// 所有坐标均为截图自身的像素坐标。
//
// 基本用法:
//
//	res, err := cv.FindTemplate("screen.png", "button.png", cv.WithThreshold(0.9))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if res != nil {
//	    fmt.Printf("找到位置: (%d, %d) 置信度 %.3f\n", res.Result.X, res.Result.Y, res.Confidence)
//	}
package cv
