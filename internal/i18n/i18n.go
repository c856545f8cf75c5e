// Package i18n localizes user-facing API messages. Keys are the English text;
// Simplified Chinese is the default language.
package i18n

import (
	"net/http"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	MsgPasswordRequired   = "Please enter the password"
	MsgPasswordIncorrect  = "Incorrect password"
	MsgTooManyAttempts    = "Too many login attempts, try again later"
	MsgUnauthorized       = "Login required"
	MsgServerError        = "Internal server error"
	MsgInvalidBody        = "Invalid request body"
	MsgInvalidDate        = "Invalid date"
	MsgBabyIDRequired     = "Baby ID is required"
	MsgBabyFieldsRequired = "Name, birth date and gender are required"
	MsgInvalidGender      = "Gender must be boy or girl"
	MsgTitleRequired      = "Title is required"
	MsgURLRequired        = "URL is required"
	MsgMediaTypeRequired  = "Media type is required"
	MsgInvalidMediaType   = "Media type must be IMAGE or VIDEO"
	MsgBabyNotFound       = "Baby not found"
	MsgGrowthNotFound     = "Growth record not found"
	MsgMilestoneNotFound  = "Milestone not found"
	MsgMediaNotFound      = "Media item not found"
	MsgDeleted            = "Deleted successfully"

	MsgStorageNotConfigured = "Server configuration error for file uploads."
	MsgNoFile               = "No file provided."
	MsgFileTooLarge         = "File is too large (max %s)."
	MsgUnsupportedType      = "Unsupported file type: %s."
	MsgUnsupportedImage     = "Unsupported image type: %s. Could not process."
	MsgVideoFailed          = "Failed to process video."
	MsgUploadFailed         = "Failed to upload file."
	MsgProcessorBusy        = "Media processing is busy, try again later."
	MsgUploadSuccess        = "File uploaded successfully!"
	MsgPresignFieldsMissing = "Filename and contentType are required"
	MsgPresignFailed        = "Failed to generate upload URL"
	MsgItemsRequired        = "Items array is required and must not be empty"
	MsgItemBabyID           = "Item %d: Baby ID is required"
	MsgItemURL              = "Item %d: URL is required"
	MsgItemMediaType        = "Item %d: Media type is required"
	MsgItemInvalidMediaType = "Item %d: Media type must be IMAGE or VIDEO"
	MsgItemInvalidDate      = "Item %d: Invalid date"
	MsgBatchFailed          = "Failed to create media items"
	MsgFilePathRequired     = "File path is required"
	MsgFileNotFound         = "File not found"
	MsgMediaFetchFailed     = "Failed to fetch media"
)

var zhHans = map[string]string{
	MsgPasswordRequired:   "请输入密码",
	MsgPasswordIncorrect:  "密码错误",
	MsgTooManyAttempts:    "尝试次数过多，请稍后再试",
	MsgUnauthorized:       "请先登录",
	MsgServerError:        "服务器错误",
	MsgInvalidBody:        "请求格式错误",
	MsgInvalidDate:        "日期格式无效",
	MsgBabyIDRequired:     "缺少宝宝 ID",
	MsgBabyFieldsRequired: "姓名、出生日期和性别为必填项",
	MsgInvalidGender:      "性别必须是 boy 或 girl",
	MsgTitleRequired:      "标题为必填项",
	MsgURLRequired:        "缺少文件地址",
	MsgMediaTypeRequired:  "缺少媒体类型",
	MsgInvalidMediaType:   "媒体类型必须是 IMAGE 或 VIDEO",
	MsgBabyNotFound:       "未找到宝宝信息",
	MsgGrowthNotFound:     "未找到生长记录",
	MsgMilestoneNotFound:  "未找到里程碑",
	MsgMediaNotFound:      "未找到媒体文件",
	MsgDeleted:            "删除成功",

	MsgStorageNotConfigured: "服务器未配置文件存储",
	MsgNoFile:               "未提供文件",
	MsgFileTooLarge:         "文件过大（上限 %s）",
	MsgUnsupportedType:      "不支持的文件类型：%s",
	MsgUnsupportedImage:     "无法处理的图片类型：%s",
	MsgVideoFailed:          "视频处理失败",
	MsgUploadFailed:         "文件上传失败",
	MsgProcessorBusy:        "媒体处理繁忙，请稍后再试",
	MsgUploadSuccess:        "文件上传成功！",
	MsgPresignFieldsMissing: "缺少 filename 或 contentType",
	MsgPresignFailed:        "生成上传地址失败",
	MsgItemsRequired:        "items 必须是非空数组",
	MsgItemBabyID:           "第 %d 项：缺少宝宝 ID",
	MsgItemURL:              "第 %d 项：缺少文件地址",
	MsgItemMediaType:        "第 %d 项：缺少媒体类型",
	MsgItemInvalidMediaType: "第 %d 项：媒体类型必须是 IMAGE 或 VIDEO",
	MsgItemInvalidDate:      "第 %d 项：日期格式无效",
	MsgBatchFailed:          "批量保存失败",
	MsgFilePathRequired:     "缺少文件路径",
	MsgFileNotFound:         "文件不存在",
	MsgMediaFetchFailed:     "读取媒体文件失败",
}

var supported = []language.Tag{
	language.SimplifiedChinese, // default
	language.English,
}

var matcher = language.NewMatcher(supported)

func init() {
	for key, zh := range zhHans {
		message.SetString(language.SimplifiedChinese, key, zh)
		message.SetString(language.English, key, key)
	}
}

// Match picks the supported language for an Accept-Language header value.
func Match(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return supported[0]
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return supported[0]
	}
	return supported[idx]
}

// Tag returns the language negotiated for r. A "lang" query parameter overrides
// the Accept-Language header.
func Tag(r *http.Request) language.Tag {
	pref := r.Header.Get("Accept-Language")
	if q := r.URL.Query().Get("lang"); q != "" {
		pref = q
	}
	return Match(pref)
}

// Printer returns the message printer for the request's preferred language.
func Printer(r *http.Request) *message.Printer {
	return message.NewPrinter(Tag(r))
}

// T translates key for r, formatting args into it.
func T(r *http.Request, key string, args ...any) string {
	return Printer(r).Sprintf(key, args...)
}
