package meta

// 合约方法
const (
	MethodInitialize       = "initialize"
	MethodContribute       = "contribute"
	MethodSubmit           = "submit"
	MethodSubmitAnnotation = "submitAnnotation"
	MethodClaimRefund      = "claimRefund"
	MethodWithdraw         = "withdraw"
)

type Transaction struct {
	From      string            `json:"from"`
	Contract  string            `json:"contract"`
	Method    string            `json:"method"`
	Args      map[string]string `json:"args"`
	Timestamp uint64            `json:"timestamp"`
	PublicKey string            `json:"public_key"`
	Hash      []byte            `json:"hash"`
	Sign      []byte            `json:"sign"`
}

// 交易执行回执
type Receipt struct {
	TxHash []byte      `json:"tx_hash"`
	Result interface{} `json:"result"`
	Events []Event     `json:"events"`
}

type Block struct {
	Height     int           `json:"height"`
	Timestamp  uint64        `json:"timestamp"`
	PrevHash   []byte        `json:"prev_hash"`
	MerkleRoot []byte        `json:"merkle_root"`
	Hash       []byte        `json:"hash"`
	TX         []Transaction `json:"tx"`
}
