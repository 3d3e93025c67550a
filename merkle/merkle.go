package merkle

import (
	"bytes"
	"errors"

	"github.com/cbergoon/merkletree"
	"github.com/openannot/meta"
	"github.com/openannot/util"
)

var ErrEmptyTree = errors.New("no transactions to build merkle tree")

// 交易作为 merkle 树的叶子
type txContent struct {
	tx meta.Transaction
}

func (c txContent) CalculateHash() ([]byte, error) {
	if len(c.tx.Hash) > 0 {
		return c.tx.Hash, nil
	}
	return util.CalculateTxHash(c.tx), nil
}

func (c txContent) Equals(other merkletree.Content) (bool, error) {
	o, ok := other.(txContent)
	if !ok {
		return false, errors.New("value is not a transaction")
	}
	a, _ := c.CalculateHash()
	b, _ := o.CalculateHash()
	return bytes.Equal(a, b), nil
}

// 由区块中的交易生成 merkle 树
func GenerateMerkleTree(txs []meta.Transaction) (*merkletree.MerkleTree, error) {
	if len(txs) == 0 {
		return nil, ErrEmptyTree
	}
	contents := make([]merkletree.Content, 0, len(txs))
	for _, tx := range txs {
		contents = append(contents, txContent{tx: tx})
	}
	return merkletree.NewTree(contents)
}

// 验证交易是否在树中
func VerifyTransaction(tree *merkletree.MerkleTree, tx meta.Transaction) (bool, error) {
	return tree.VerifyContent(txContent{tx: tx})
}
