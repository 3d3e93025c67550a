package chain

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/cloudflare/cfssl/log"
	"github.com/openannot/account"
	"github.com/openannot/common"
	"github.com/openannot/contract"
	"github.com/openannot/contract/annotate"
	"github.com/openannot/event"
	"github.com/openannot/meta"
	"github.com/openannot/util"
)

var ErrUnknownContract = errors.New("unknown contract")

// 合约名
const AnnotateContract = "annotate"

type Options struct {
	Clock        contract.Clock
	Events       contract.Events // 交易提交后接收事件
	RewardUnit   int64
	TxsThreshold int // 每多少笔交易生成一个区块
}

// Executor 串行执行交易，每笔交易在一个存储事务中完成，
// 失败时丢弃事务和事件，成功时提交后再发布事件
type Executor struct {
	mu     sync.Mutex
	db     contract.Database
	opts   Options
	height int
}

func NewExecutor(db contract.Database, opts Options) (*Executor, error) {
	if opts.Clock == nil {
		opts.Clock = &SystemClock{}
	}
	if opts.RewardUnit <= 0 {
		opts.RewardUnit = 1
	}
	if opts.TxsThreshold <= 0 {
		opts.TxsThreshold = 1
	}
	x := &Executor{db: db, opts: opts}
	height, err := x.initChain()
	if err != nil {
		return nil, err
	}
	x.height = height
	return x, nil
}

// txScope 一次事务内可用的合约环境
type txScope struct {
	txn    contract.Txn
	ledger *account.Ledger
	engine *annotate.Engine
	events *event.Buffer
	now    uint64
}

func (x *Executor) begin(txHash, signer string) (*txScope, error) {
	txn, err := x.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	now := x.opts.Clock.Now()
	ledger := account.NewLedger(txn)
	events := event.NewBuffer(txHash, fixedClock(now))
	engine, err := annotate.New(&contract.Env{
		Storage: txn,
		Token:   ledger,
		Auth:    signerAuth{signer: signer},
		Clock:   fixedClock(now),
		Events:  events,
	}, annotate.WithRewardUnit(x.opts.RewardUnit))
	if err != nil {
		txn.Discard()
		return nil, err
	}
	return &txScope{txn: txn, ledger: ledger, engine: engine, events: events, now: now}, nil
}

// finish 根据 err 提交或回滚事务，提交成功后发布事件
func (x *Executor) finish(s *txScope, err error) error {
	if err != nil {
		s.txn.Discard()
		return err
	}
	if err := s.txn.Commit(); err != nil {
		s.txn.Discard()
		return fmt.Errorf("commit transaction: %w", err)
	}
	s.events.Flush(x.opts.Events)
	return nil
}

// Execute 执行一笔合约交易
func (x *Executor) Execute(tx meta.Transaction) (*meta.Receipt, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if tx.Contract != "" && tx.Contract != AnnotateContract {
		return nil, fmt.Errorf("%w: %s", ErrUnknownContract, tx.Contract)
	}
	if err := VerifyTransaction(tx); err != nil {
		log.Errorf("交易验证失败: from=%s method=%s err=%v", tx.From, tx.Method, err)
		return nil, err
	}
	tx.Hash = util.CalculateTxHash(tx)
	txHash := hex.EncodeToString(tx.Hash)

	s, err := x.begin(txHash, tx.From)
	if err != nil {
		return nil, err
	}
	seen, err := s.txn.Has(common.TxKey(txHash))
	if err == nil && seen {
		err = ErrReplayedTx
		log.Errorf("重放交易 %s: from=%s method=%s", txHash, tx.From, tx.Method)
	}
	var result interface{}
	if err == nil {
		result, err = s.engine.Invoke(tx.From, tx.Method, tx.Args)
	}
	var height int
	if err == nil {
		height, err = x.recordTx(s, tx)
	}
	if err = x.finish(s, err); err != nil {
		log.Infof("交易 %s 回滚: %s %v", txHash, tx.Method, err)
		return nil, err
	}
	x.height = height
	log.Infof("交易 %s 已提交: %s from %s", txHash, tx.Method, tx.From)
	return &meta.Receipt{TxHash: tx.Hash, Result: result, Events: s.events.Events()}, nil
}

// View 执行只读查询。查询中发现的状态变化同样会被写回
func (x *Executor) View(fn func(*annotate.Engine) (interface{}, error)) (interface{}, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	s, err := x.begin("", "")
	if err != nil {
		return nil, err
	}
	result, err := fn(s.engine)
	if err = x.finish(s, err); err != nil {
		return nil, err
	}
	return result, nil
}

// RegisterAccount 注册账户，地址由公钥计算，初始余额由 Faucet 转入
func (x *Executor) RegisterAccount(publicKey string, initBalance *big.Int) (meta.Account, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	address := util.AddressFromPublicKey([]byte(publicKey))
	s, err := x.begin("", address)
	if err != nil {
		return meta.Account{}, err
	}
	acc, err := s.ledger.CreateAccount(address, publicKey, initBalance)
	if err = x.finish(s, err); err != nil {
		return meta.Account{}, err
	}
	log.Infof("注册账户 %s，初始余额 %s", address, initBalance)
	return acc, nil
}

// GetAccount 查询账户及余额
func (x *Executor) GetAccount(address string) (meta.Account, error) {
	return account.NewLedger(x.db).GetAccount(address)
}

// Height 当前区块高度
func (x *Executor) Height() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.height
}

// 支持按前缀列出 key 的存储
type keyLister interface {
	Keys(prefix string) ([]string, error)
}

// GetAllAccounts 返回所有注册账户
func (x *Executor) GetAllAccounts() ([]meta.Account, error) {
	lister, ok := x.db.(keyLister)
	if !ok {
		return nil, errors.New("store does not support listing keys")
	}
	keys, err := lister.Keys(common.AccountKeyPrefix)
	if err != nil {
		return nil, err
	}
	ledger := account.NewLedger(x.db)
	all := make([]meta.Account, 0, len(keys))
	for _, key := range keys {
		acc, err := ledger.GetAccount(strings.TrimPrefix(key, common.AccountKeyPrefix))
		if err != nil {
			return nil, err
		}
		all = append(all, acc)
	}
	return all, nil
}
