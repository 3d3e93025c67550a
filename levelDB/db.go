package levelDB

import (
	"errors"

	"github.com/cloudflare/cfssl/log"
	"github.com/openannot/contract"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// DB 是基于 levelDB 的 contract.Database 实现
type DB struct {
	db *leveldb.DB
}

func Open(path string) (*DB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		log.Error("db init err:", err)
		return nil, err
	}
	return &DB{db: db}, nil
}

// OpenMemory 打开一个内存数据库，进程退出后数据丢失
func OpenMemory() (*DB, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return &DB{db: db}, nil
}

func (d *DB) Get(key string) ([]byte, error) {
	data, err := d.db.Get([]byte(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, contract.ErrNotFound
	}
	if err != nil {
		log.Error("db get err:", err)
		return nil, err
	}
	return data, nil
}

func (d *DB) Has(key string) (bool, error) {
	return d.db.Has([]byte(key), nil)
}

func (d *DB) Put(key string, value []byte) error {
	err := d.db.Put([]byte(key), value, nil)
	if err != nil {
		log.Error("db put err:", err)
	}
	return err
}

func (d *DB) Delete(key string) error {
	err := d.db.Delete([]byte(key), nil)
	if err != nil {
		log.Error("db delete err", err)
	}
	return err
}

// Keys 返回所有以 prefix 开头的 key
func (d *DB) Keys(prefix string) ([]string, error) {
	iter := d.db.NewIterator(util.BytesPrefix([]byte(prefix)), nil)
	defer iter.Release()
	var keys []string
	for iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	return keys, iter.Error()
}

// Begin 开启一个 levelDB 事务，事务期间其他写入会被阻塞
func (d *DB) Begin() (contract.Txn, error) {
	tr, err := d.db.OpenTransaction()
	if err != nil {
		return nil, err
	}
	return &Txn{tr: tr}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

type Txn struct {
	tr *leveldb.Transaction
}

func (t *Txn) Get(key string) ([]byte, error) {
	data, err := t.tr.Get([]byte(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, contract.ErrNotFound
	}
	return data, err
}

func (t *Txn) Has(key string) (bool, error) {
	return t.tr.Has([]byte(key), nil)
}

func (t *Txn) Put(key string, value []byte) error {
	return t.tr.Put([]byte(key), value, nil)
}

func (t *Txn) Delete(key string) error {
	return t.tr.Delete([]byte(key), nil)
}

func (t *Txn) Commit() error {
	return t.tr.Commit()
}

func (t *Txn) Discard() {
	t.tr.Discard()
}
