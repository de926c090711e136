package oss

import (
	"net/url"
	"strings"
)

// ObjectKeyFromLocator 从客户端上报的 blob 定位符提取对象键。
// 接受完整 URL（虚拟主机或路径风格）或裸对象键，剥离 scheme、host、
// 桶名前缀与查询参数。客户端上报内容不可信，结果仍需经 HEAD 验证。
func ObjectKeyFromLocator(locator, bucket string) string {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return ""
	}

	if strings.Contains(locator, "://") {
		u, err := url.Parse(locator)
		if err != nil {
			return ""
		}
		locator = u.Path
	} else if idx := strings.Index(locator, "?"); idx >= 0 {
		locator = locator[:idx]
	}

	key := strings.TrimPrefix(locator, "/")
	// 路径风格 URL 的首段是桶名
	if bucket != "" && strings.HasPrefix(key, bucket+"/") {
		key = strings.TrimPrefix(key, bucket+"/")
	}
	return key
}
