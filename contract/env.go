package contract

import (
	"errors"
	"math/big"

	"github.com/openannot/meta"
)

/*
 * 区块链提供给合约的接口
 * 合约本身不持有任何全局状态，所有读写都通过 Env 完成，
 * 由节点在每笔交易开始时构造，交易结束后统一提交或丢弃
 */

var (
	ErrNotFound     = errors.New("key not found")
	ErrUnauthorized = errors.New("caller is not authorized")
)

// 键值存储
type Storage interface {
	Get(key string) ([]byte, error) // key 不存在时返回 ErrNotFound
	Has(key string) (bool, error)
	Put(key string, value []byte) error
	Delete(key string) error
}

// 代币转账，余额不足时整体失败
type Token interface {
	Balance(address string) (*big.Int, error)
	Transfer(from, to string, amount *big.Int) error
}

// 调用者身份校验，principal 未授权本次调用时返回 ErrUnauthorized
type Auth interface {
	RequireAuth(principal string) error
}

// 节点时间（秒），单调不减
type Clock interface {
	Now() uint64
}

// 事件通知，发送即忘
type Events interface {
	Publish(e meta.Event)
}

type Env struct {
	Storage Storage
	Token   Token
	Auth    Auth
	Clock   Clock
	Events  Events
}

// 交易内的存储视图，Commit 之前的写入对外不可见
type Txn interface {
	Storage
	Commit() error
	Discard()
}

// 节点使用的底层数据库
type Database interface {
	Storage
	Begin() (Txn, error)
	Close() error
}
