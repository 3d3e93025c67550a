package common

import "strconv"

// Faucet 账户（用于注册账户时给新账户转账，方便测试）
const FaucetAccountAddress = "FaucetAccountAddress"

// 项目托管账户地址前缀，托管地址为 project:<id>
const CustodyPrefix = "project:"

// 存储 key
const (
	ProjectKeyPrefix = "project:"  // key: project:<id> - val: meta.Project
	ProjectIDsKey    = "projectIDs"   // 所有项目 id
	ProjectCountKey  = "projectCount" // 项目计数器
	BalanceKeyPrefix = "balance:"  // 账户余额
	AccountKeyPrefix = "account:"  // 账户信息
	BlockKeyPrefix   = "block:"    // 区块
	BlockHeightKey   = "blockHeight"
	TransActionsKey  = "transactions" // 尚未打包的交易
	TxKeyPrefix      = "tx:"          // 已执行交易的 hash
)

// 每次标注支付给标注者的奖励（最小单位）
const DefaultRewardUnit = 1

func ProjectKey(id uint32) string {
	return ProjectKeyPrefix + strconv.FormatUint(uint64(id), 10)
}

func CustodyAddress(id uint32) string {
	return CustodyPrefix + strconv.FormatUint(uint64(id), 10)
}

func BalanceKey(address string) string {
	return BalanceKeyPrefix + address
}

func AccountKey(address string) string {
	return AccountKeyPrefix + address
}

func BlockKey(height int) string {
	return BlockKeyPrefix + strconv.Itoa(height)
}

func TxKey(hash string) string {
	return TxKeyPrefix + hash
}
