package chain

import (
	"errors"
	"fmt"

	"github.com/openannot/contract"
	"github.com/openannot/meta"
	"github.com/openannot/util"
)

var (
	ErrBadTxHash    = errors.New("transaction hash mismatch")
	ErrBadSignature = errors.New("signature verification failed")
	ErrBadSender    = errors.New("public key does not match sender")
	ErrReplayedTx   = errors.New("transaction already executed")
)

// VerifyTransaction 校验交易hash、发送方地址与公钥的对应关系以及签名
func VerifyTransaction(tx meta.Transaction) error {
	hash := util.CalculateTxHash(tx)
	if len(tx.Hash) > 0 && string(tx.Hash) != string(hash) {
		return ErrBadTxHash
	}
	pub := []byte(tx.PublicKey)
	if tx.PublicKey == "" || util.AddressFromPublicKey(pub) != tx.From {
		return fmt.Errorf("%w: %s", ErrBadSender, tx.From)
	}
	if !util.RsaVerySignWithSha256(hash, tx.Sign, pub) {
		return ErrBadSignature
	}
	return nil
}

// SignTransaction 填充交易hash并用私钥签名
func SignTransaction(tx *meta.Transaction, privateKey []byte) error {
	tx.Hash = util.CalculateTxHash(*tx)
	sign, err := util.RsaSignWithSha256(tx.Hash, privateKey)
	if err != nil {
		return err
	}
	tx.Sign = sign
	return nil
}

// 交易签名已验证过，合约只能以交易发送方的身份执行
type signerAuth struct {
	signer string
}

func (a signerAuth) RequireAuth(principal string) error {
	if principal == "" || principal != a.signer {
		return fmt.Errorf("%w: %s", contract.ErrUnauthorized, principal)
	}
	return nil
}
