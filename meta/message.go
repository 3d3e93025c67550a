package meta

type HttpResponse struct {
	Error string      `json:"error"` // 如果不为空代表错误信息
	Data  interface{} `json:"data"`
	Code  int         `json:"code"` // vue-element-admin的前端校验码，必须为20000
}

// 用户提交的合约调用
type PostTran struct {
	From       string `json:"from"`
	Method     string `json:"method"`
	Args       string `json:"args"`
	PrivateKey string `json:"private_key"`
	PublicKey  string `json:"public_key"`
	Timestamp  uint64 `json:"timestamp"`
	Sign       string `json:"sign"` // hex，为空时由 client 使用 PrivateKey 代签
}

type Query struct {
	Type       string   `json:"type"`
	Parameters []string `json:"parameters"`
}
