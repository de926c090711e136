package models

// UploadSession 是上传令牌签发时写入缓存的意图记录，完成确认时一次性消费。
// 不落库：它存活于外部 KV 缓存，TTL 到期自动失效。
type UploadSession struct {
	UserID       uint   `json:"user_id"`
	FileName     string `json:"file_name"`
	DeclaredSize int64  `json:"declared_size"`
	ContentType  string `json:"content_type"`
}
