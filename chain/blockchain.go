package chain

import (
	"encoding/hex"
	"fmt"

	"github.com/cloudflare/cfssl/log"
	"github.com/openannot/common"
	"github.com/openannot/contract"
	"github.com/openannot/merkle"
	"github.com/openannot/meta"
	"github.com/openannot/util"
)

// initChain 没有区块时生成创世区块，返回当前高度
func (x *Executor) initChain() (int, error) {
	var height int
	found, err := contract.GetJSON(x.db, common.BlockHeightKey, &height)
	if err != nil {
		return 0, err
	}
	if found {
		return height, nil
	}
	txn, err := x.db.Begin()
	if err != nil {
		return 0, err
	}
	gb := GenerateGenesisBlock(x.opts.Clock.Now())
	if err := storeBlock(txn, gb); err != nil {
		txn.Discard()
		return 0, err
	}
	if err := txn.Commit(); err != nil {
		txn.Discard()
		return 0, err
	}
	log.Info("生成创世区块")
	return 0, nil
}

//生成创世区块
func GenerateGenesisBlock(timestamp uint64) meta.Block {
	genesisBlock := meta.Block{
		Timestamp: timestamp,
		TX:        []meta.Transaction{},
	}
	genesisBlock.Hash = util.CalculateBlockHash(genesisBlock)
	return genesisBlock
}

//生成新区块
func CreateNewBlock(prev meta.Block, txs []meta.Transaction, timestamp uint64) (meta.Block, error) {
	var newBlock = meta.Block{
		Height:    prev.Height + 1,
		Timestamp: timestamp,
		PrevHash:  prev.Hash,
		TX:        txs,
	}
	//生成该区块的merkle root
	tree, err := merkle.GenerateMerkleTree(txs)
	if err != nil {
		return meta.Block{}, err
	}
	newBlock.MerkleRoot = tree.MerkleRoot()
	newBlock.Hash = util.CalculateBlockHash(newBlock)
	return newBlock, nil
}

func storeBlock(s contract.Storage, b meta.Block) error {
	if err := contract.PutJSON(s, common.BlockKey(b.Height), b); err != nil {
		return err
	}
	return contract.PutJSON(s, common.BlockHeightKey, b.Height)
}

func loadBlock(s contract.Storage, height int) (meta.Block, error) {
	var b meta.Block
	found, err := contract.GetJSON(s, common.BlockKey(height), &b)
	if err != nil {
		return meta.Block{}, err
	}
	if !found {
		return meta.Block{}, fmt.Errorf("block %d: %w", height, contract.ErrNotFound)
	}
	return b, nil
}

// recordTx 标记交易已执行并加入待打包列表，达到阈值时打包成区块，返回最新高度
func (x *Executor) recordTx(scope *txScope, tx meta.Transaction) (int, error) {
	s := scope.txn
	if err := s.Put(common.TxKey(hex.EncodeToString(tx.Hash)), tx.Hash); err != nil {
		return 0, err
	}
	txs, err := getCurrentTxs(s)
	if err != nil {
		return 0, err
	}
	txs = append(txs, tx)
	if len(txs) < x.opts.TxsThreshold {
		return x.height, storeCurrentTxs(s, txs)
	}
	prev, err := loadBlock(s, x.height)
	if err != nil {
		return 0, err
	}
	block, err := CreateNewBlock(prev, txs, scope.now)
	if err != nil {
		return 0, err
	}
	if err := storeBlock(s, block); err != nil {
		return 0, err
	}
	log.Infof("生成区块 %d，包含 %d 笔交易", block.Height, len(txs))
	return block.Height, storeCurrentTxs(s, nil)
}

// GetBlock 按高度查询区块
func (x *Executor) GetBlock(height int) (meta.Block, error) {
	return loadBlock(x.db, height)
}

// GetBlockChain 返回全部区块
func (x *Executor) GetBlockChain() ([]meta.Block, error) {
	height := x.Height()
	bc := make([]meta.Block, 0, height+1)
	for h := 0; h <= height; h++ {
		b, err := loadBlock(x.db, h)
		if err != nil {
			return nil, err
		}
		bc = append(bc, b)
	}
	return bc, nil
}
