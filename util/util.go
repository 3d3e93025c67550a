package util

import (
	"os"

	"github.com/cloudflare/cfssl/log"
)

// 判断文件或文件夹是否存在
func FileExists(path string) bool {
	_, err := os.Stat(path)
	if err == nil {
		return true
	}
	if !os.IsNotExist(err) {
		log.Info(err)
	}
	return false
}

// 判断数组是否包含该元素
func Contains(arr []string, target string) bool {
	for _, a := range arr {
		if a == target {
			return true
		}
	}
	return false
}
