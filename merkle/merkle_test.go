package merkle

import (
	"fmt"
	"testing"

	"github.com/openannot/meta"
	"github.com/openannot/util"
	"gotest.tools/assert"
)

func newTxs(n int) []meta.Transaction {
	txs := make([]meta.Transaction, 0, n)
	for i := 0; i < n; i++ {
		tx := meta.Transaction{
			From:      fmt.Sprintf("user%d", i),
			Method:    meta.MethodContribute,
			Args:      map[string]string{"project_id": "0", "amount": "1"},
			Timestamp: uint64(i),
		}
		tx.Hash = util.CalculateTxHash(tx)
		txs = append(txs, tx)
	}
	return txs
}

func TestGenerateMerkleTree(t *testing.T) {
	txs := newTxs(5)
	tree, err := GenerateMerkleTree(txs)
	assert.NilError(t, err)
	assert.Assert(t, len(tree.MerkleRoot()) > 0)

	ok, err := VerifyTransaction(tree, txs[3])
	assert.NilError(t, err)
	assert.Assert(t, ok)

	other := newTxs(6)[5]
	ok, err = VerifyTransaction(tree, other)
	assert.NilError(t, err)
	assert.Assert(t, !ok)

	again, err := GenerateMerkleTree(newTxs(5))
	assert.NilError(t, err)
	assert.DeepEqual(t, again.MerkleRoot(), tree.MerkleRoot())
}

func TestEmptyTree(t *testing.T) {
	_, err := GenerateMerkleTree(nil)
	assert.Equal(t, err, ErrEmptyTree)
}
