package catalog

import (
	"fmt"
	"strings"

	"github.com/RedCore161/DeviceStreamController/internal/pkg/utils"
)

// BuildFilterArgs 根据参数构建ffmpeg附加参数
//
//	vf       -> -vf vflip
//	hf       -> -vf hflip
//	duration -> -t N，否则 -t recordTime
//	width/height/x/y (0-100百分比) -> -vf crop=w=iw*W:h=ih*H:x=iw*X:y=ih*Y
//
// crop 仅在 width>0 且 height>0 时生效，x/y 缺省为0
func BuildFilterArgs(params map[string]interface{}, recordTime int) string {
	var build []string

	if utils.IsTruthy(params["vf"]) {
		build = append(build, "-vf vflip")
	}

	if utils.IsTruthy(params["hf"]) {
		build = append(build, "-vf hflip")
	}

	if d, ok := utils.ToFloat64(params["duration"]); ok && d > 0 {
		build = append(build, "-t "+utils.FormatNumber(d))
	} else {
		build = append(build, fmt.Sprintf("-t %d", recordTime))
	}

	width, _ := utils.ToFloat64(params["width"])
	height, _ := utils.ToFloat64(params["height"])
	if width > 0 && height > 0 {
		x, _ := utils.ToFloat64(params["x"])
		y, _ := utils.ToFloat64(params["y"])
		build = append(build, fmt.Sprintf("-vf crop=w=iw*%s:h=ih*%s:x=iw*%s:y=ih*%s",
			fraction(width), fraction(height), fraction(x), fraction(y)))
	}

	return strings.Join(build, " ")
}

func fraction(percent float64) string {
	return utils.FormatNumber(percent / 100.0)
}
