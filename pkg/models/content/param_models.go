package content

import "fmt"

// MediaKind 用于标志一个内容的媒体类别
type MediaKind int

const (
	// Image 表示媒体类别为“图片”。
	Image MediaKind = iota
	// Video 表示媒体类别为“视频”。
	Video
	// Audio 表示媒体类别为“音频”。
	Audio
	// Text 表示媒体类别为“文本”。
	Text
	// Binary 表示媒体类别为“其他二进制”。
	Binary
)

func (k MediaKind) String() string {
	switch k {
	case Image:
		return "Image"
	case Video:
		return "Video"
	case Audio:
		return "Audio"
	case Text:
		return "Text"
	case Binary:
		return "Binary"
	default:
		return fmt.Sprintf("%d", int(k))
	}
}

// NewMediaKindFromString 从 enum 名称获得 MediaKind enum。
func NewMediaKindFromString(enumString string) (ret MediaKind, err error) {
	switch enumString {
	case "Image":
		ret = Image
		return
	case "Video":
		ret = Video
		return
	case "Audio":
		ret = Audio
		return
	case "Text":
		ret = Text
		return
	case "Binary":
		ret = Binary
		return
	default:
		err = fmt.Errorf("不正确的 enum 字符串")
		return
	}
}
