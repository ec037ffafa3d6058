package cv

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"gocv.io/x/gocv"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ReadImage 读取彩色图像文件
// OpenCV 无法解码时回退到 Go 解码器（png/jpeg/bmp/webp）
func ReadImage(filename string) (gocv.Mat, error) {
	mat := gocv.IMRead(filename, gocv.IMReadColor)
	if !mat.Empty() {
		return mat, nil
	}
	mat.Close()

	img, err := DecodeImageFile(filename)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("无法读取图像: %s: %w", filename, err)
	}
	return ImageToMat(img)
}

// DecodeImageFile 使用 Go 解码器读取图像
func DecodeImageFile(filename string) (image.Image, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("解码图像失败: %w", err)
	}
	return img, nil
}

// DecodeImageBytes 解码内存中的编码图像
func DecodeImageBytes(data []byte) (gocv.Mat, error) {
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("解码图像失败: %w", err)
	}
	if mat.Empty() {
		mat.Close()
		return gocv.Mat{}, fmt.Errorf("解码图像失败: 数据无效")
	}
	return mat, nil
}

// WriteImage 保存图像文件，按需创建目录
func WriteImage(filename string, img gocv.Mat) error {
	if dir := filepath.Dir(filename); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建目录失败: %w", err)
		}
	}

	if ok := gocv.IMWrite(filename, img); !ok {
		return fmt.Errorf("保存图像失败: %s", filename)
	}
	return nil
}

// ToGray 转换为灰度图
func ToGray(src gocv.Mat) gocv.Mat {
	if src.Channels() == 1 {
		return src.Clone()
	}
	dst := gocv.NewMat()
	if src.Channels() == 4 {
		gocv.CvtColor(src, &dst, gocv.ColorBGRAToGray)
	} else {
		gocv.CvtColor(src, &dst, gocv.ColorBGRToGray)
	}
	return dst
}

// CropRegion 按区域裁剪图像，区域超出部分被截断
// 返回裁剪结果及实际裁剪的矩形
func CropRegion(img gocv.Mat, region Region) (gocv.Mat, image.Rectangle, error) {
	bounds := image.Rect(0, 0, img.Cols(), img.Rows())
	rect := region.ToImageRect().Intersect(bounds)
	if rect.Empty() {
		return gocv.Mat{}, rect, ErrEmptyRegion
	}

	roi := img.Region(rect)
	defer roi.Close()
	return roi.Clone(), rect, nil
}

// ResizeImage 调整图像大小
func ResizeImage(img gocv.Mat, width, height int) gocv.Mat {
	dst := gocv.NewMat()
	gocv.Resize(img, &dst, image.Point{X: width, Y: height}, 0, 0, gocv.InterpolationLinear)
	return dst
}

// ImageToMat 将 image.Image 转换为 BGR 格式的 gocv.Mat
func ImageToMat(img image.Image) (gocv.Mat, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("图像转换失败: %w", err)
	}
	return mat, nil
}

// MatToImage 将 gocv.Mat 转换为 image.Image
func MatToImage(mat gocv.Mat) (image.Image, error) {
	img, err := mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("Mat 转换失败: %w", err)
	}
	return img, nil
}

// LoadImageInput 加载图像输入
// 支持 string (文件路径)、image.Image、gocv.Mat、*gocv.Mat，返回值由调用方关闭
func LoadImageInput(input interface{}) (gocv.Mat, error) {
	switch v := input.(type) {
	case string:
		return ReadImage(v)
	case gocv.Mat:
		return v.Clone(), nil
	case *gocv.Mat:
		if v == nil {
			return gocv.Mat{}, fmt.Errorf("图像输入为空")
		}
		return v.Clone(), nil
	case image.Image:
		return ImageToMat(v)
	default:
		return gocv.Mat{}, fmt.Errorf("不支持的图像输入类型: %T", input)
	}
}
