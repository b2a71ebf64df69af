package constants

import "time"

const (
	// DefaultLoaderVersion 当前默认的PDF加载器版本标识
	DefaultLoaderVersion = "layout-v1"

	// RatingCacheDuration 评分缓存的过期时间
	RatingCacheDuration = 24 * time.Hour

	// DefaultResolutionThreshold 合成器的默认裁决置信度阈值
	DefaultResolutionThreshold = 0.5
)
