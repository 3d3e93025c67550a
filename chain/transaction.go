package chain

import (
	"bytes"

	"github.com/cloudflare/cfssl/log"
	"github.com/openannot/common"
	"github.com/openannot/contract"
	"github.com/openannot/meta"
)

//获取到当前交易集合列表
func getCurrentTxs(s contract.Storage) ([]meta.Transaction, error) {
	txs := make([]meta.Transaction, 0)
	if _, err := contract.GetJSON(s, common.TransActionsKey, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

//存储当前交易列表
func storeCurrentTxs(s contract.Storage, txs []meta.Transaction) error {
	if txs == nil {
		txs = make([]meta.Transaction, 0)
	}
	return contract.PutJSON(s, common.TransActionsKey, txs)
}

// PendingTxs 返回尚未打包的交易
func (x *Executor) PendingTxs() ([]meta.Transaction, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return getCurrentTxs(x.db)
}

//根据交易hash定位到所在区块的高度,以及该交易在交易列表中的序号
func (x *Executor) LocateBlockHeightWithTran(txHash []byte) (height int, sequence int) {
	bcs, err := x.GetBlockChain()
	if err != nil {
		log.Error(err)
		return -1, -1
	}
	for h, bc := range bcs {
		for sequence, tx := range bc.TX {
			if bytes.Equal(tx.Hash, txHash) {
				return h, sequence
			}
		}
	}
	log.Error("未能定位到该笔交易")
	return -1, -1
}
