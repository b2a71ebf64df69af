package constants

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "app"

	// ProfileModulePrefix 档案模块
	ProfileModulePrefix = "profile"
	// FileModulePrefix 文件模块
	FileModulePrefix = "file"

	// EntityRating 评分实体
	EntityRating = "rating"
	// EntityDedupSet 去重集合实体
	EntityDedupSet = "dedup_set"
	// EntityMD5ToUUID MD5到档案UUID的映射实体
	EntityMD5ToUUID = "md5_to_uuid"

	// KeyFileMD5Set 原始文件MD5集合，用于快速去重 (SET)
	// 格式: app:file:dedup_set
	KeyFileMD5Set = AppPrefix + ":" + FileModulePrefix + ":" + EntityDedupSet

	// KeyFileMD5ToProfileUUID MD5到档案UUID的映射 (STRING)
	// 格式: app:file:md5_to_uuid:{md5}
	KeyFileMD5ToProfileUUID = AppPrefix + ":" + FileModulePrefix + ":" + EntityMD5ToUUID + ":%s"

	// KeyProfileRating 档案评分缓存 (STRING, JSON序列化的Rating)
	// 格式: app:profile:rating:{profileUUID}:{rubricVersion}
	KeyProfileRating = AppPrefix + ":" + ProfileModulePrefix + ":" + EntityRating + ":%s:%s"
)
