package account

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/cloudflare/cfssl/log"
	"github.com/openannot/common"
	"github.com/openannot/contract"
	"github.com/openannot/meta"
)

/* 这里封装了所有的对账户的操作
 * 余额和账户信息都保存在传入的 Storage 中，节点在交易内构造 Ledger，
 * 因此转账和合约状态的修改会被一起提交或一起丢弃
 */

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNegativeAmount      = errors.New("transfer amount must not be negative")
	ErrAccountExists       = errors.New("account already exists")
	ErrAccountNotFound     = errors.New("account not found")
)

type Ledger struct {
	store contract.Storage
}

func NewLedger(store contract.Storage) *Ledger {
	return &Ledger{store: store}
}

// 获取余额，不存在的地址余额为0
func (l *Ledger) Balance(address string) (*big.Int, error) {
	data, err := l.store.Get(common.BalanceKey(address))
	if errors.Is(err, contract.ErrNotFound) {
		return new(big.Int), nil
	}
	if err != nil {
		return nil, err
	}
	balance, ok := new(big.Int).SetString(string(data), 10)
	if !ok {
		return nil, fmt.Errorf("corrupt balance for %s: %q", address, data)
	}
	return balance, nil
}

func (l *Ledger) setBalance(address string, balance *big.Int) error {
	return l.store.Put(common.BalanceKey(address), []byte(balance.String()))
}

// 判断交易发起方是否有足够余额
func (l *Ledger) CanTransfer(sender string, amount *big.Int) (bool, error) {
	balance, err := l.Balance(sender)
	if err != nil {
		return false, err
	}
	if balance.Cmp(amount) < 0 {
		log.Infof("[CanTransfer]: Insufficient balance. %s has %s, needs %s", sender, balance, amount)
		return false, nil
	}
	return true, nil
}

// 由 from 向 to 账户转账，金额为0时不做任何修改
func (l *Ledger) Transfer(from, to string, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	ok, err := l.CanTransfer(from, amount)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s -> %s %s: %w", from, to, amount, ErrInsufficientBalance)
	}
	if from == to {
		return nil
	}
	fromBalance, err := l.Balance(from)
	if err != nil {
		return err
	}
	toBalance, err := l.Balance(to)
	if err != nil {
		return err
	}
	if err := l.setBalance(from, fromBalance.Sub(fromBalance, amount)); err != nil {
		return err
	}
	return l.setBalance(to, toBalance.Add(toBalance, amount))
}

// Mint 由 Faucet 凭空发行代币（仅用于注册账户和测试）
func (l *Ledger) Mint(to string, amount *big.Int) error {
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	balance, err := l.Balance(to)
	if err != nil {
		return err
	}
	return l.setBalance(to, balance.Add(balance, amount))
}

// 创建普通账户，并由 Faucet 转入初始余额
func (l *Ledger) CreateAccount(address, publicKey string, balance *big.Int) (meta.Account, error) {
	exists, err := l.ContainsAddress(address)
	if err != nil {
		return meta.Account{}, err
	}
	if exists {
		return meta.Account{}, ErrAccountExists
	}
	acc := meta.Account{
		Address:   address,
		PublicKey: publicKey,
	}
	if err := contract.PutJSON(l.store, common.AccountKey(address), acc); err != nil {
		return meta.Account{}, err
	}
	if balance != nil && balance.Sign() > 0 {
		if err := l.Mint(common.FaucetAccountAddress, balance); err != nil {
			return meta.Account{}, err
		}
		if err := l.Transfer(common.FaucetAccountAddress, address, balance); err != nil {
			return meta.Account{}, err
		}
	}
	return l.GetAccount(address)
}

// 账户地址是否存在
func (l *Ledger) ContainsAddress(address string) (bool, error) {
	return l.store.Has(common.AccountKey(address))
}

// 获取账户信息，合约托管账户没有注册记录，只返回余额
func (l *Ledger) GetAccount(address string) (meta.Account, error) {
	var acc meta.Account
	found, err := contract.GetJSON(l.store, common.AccountKey(address), &acc)
	if err != nil {
		return meta.Account{}, err
	}
	if !found {
		if !isCustody(address) {
			return meta.Account{}, fmt.Errorf("%s: %w", address, ErrAccountNotFound)
		}
		acc = meta.Account{Address: address, IsContract: true}
	}
	acc.Balance, err = l.Balance(address)
	if err != nil {
		return meta.Account{}, err
	}
	return acc, nil
}

func isCustody(address string) bool {
	return strings.HasPrefix(address, common.CustodyPrefix)
}
