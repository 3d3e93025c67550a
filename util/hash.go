package util

import (
	"crypto/sha256"
	"encoding/json"

	"github.com/cloudflare/cfssl/log"
	"github.com/openannot/meta"
)

//计算hash摘要
func CalculateHash(msg []byte) ([]byte, error) {
	h := sha256.New()
	if _, err := h.Write(msg); err != nil {
		log.Info(err)
		return nil, err
	}
	return h.Sum(nil), nil
}

//计算区块hash，不包含区块自身的 Hash 字段
func CalculateBlockHash(b meta.Block) []byte {
	b.Hash = nil
	jb, err := json.Marshal(b)
	DealJsonErr("CalculateBlockHash", err)
	hashed, _ := CalculateHash(jb)
	return hashed
}

//计算交易hash，不包含 Hash 和 Sign 字段
func CalculateTxHash(tx meta.Transaction) []byte {
	tx.Hash = nil
	tx.Sign = nil
	jt, err := json.Marshal(tx)
	DealJsonErr("CalculateTxHash", err)
	hashed, _ := CalculateHash(jt)
	return hashed
}
