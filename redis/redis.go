package redis

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/cloudflare/cfssl/log"
	"github.com/go-redis/redis/v8"
	"github.com/openannot/contract"
	"github.com/openannot/meta"
)

var ctx = context.Background()

// Store 是基于 redis 的 contract.Database 实现
type Store struct {
	rdb *redis.Client
}

func New(addr, password string, db int) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Errorf("redis ping %s error: %s", addr, err)
		return nil, err
	}
	return &Store{rdb: rdb}, nil
}

//get
func (s *Store) Get(key string) ([]byte, error) {
	val, err := s.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, contract.ErrNotFound
	} else if err != nil {
		log.Errorf("redis get %s error: %s", key, err)
		return nil, err
	}
	return val, nil
}

func (s *Store) Has(key string) (bool, error) {
	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

//set
func (s *Store) Put(key string, value []byte) error {
	return s.rdb.Set(ctx, key, value, 0).Err()
}

func (s *Store) Delete(key string) error {
	return s.rdb.Del(ctx, key).Err()
}

func (s *Store) Keys(prefix string) ([]string, error) {
	return s.rdb.Keys(ctx, prefix+"*").Result()
}

// list push
func (s *Store) PushToList(key string, value string) error {
	err := s.rdb.RPush(ctx, key, value).Err()
	if err != nil {
		log.Errorf("event push to list error: %s", err)
		return err
	}
	return nil
}

func (s *Store) GetList(key string) ([]string, error) {
	return s.rdb.LRange(ctx, key, 0, -1).Result()
}

// Begin 开启事务：写入先缓存在本地，Commit 时通过 MULTI/EXEC 一次性写入
func (s *Store) Begin() (contract.Txn, error) {
	return &Txn{
		store:   s,
		writes:  map[string][]byte{},
		deletes: map[string]struct{}{},
	}, nil
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

type Txn struct {
	store   *Store
	writes  map[string][]byte
	deletes map[string]struct{}
	order   []string // 写入顺序
	done    bool
}

var errTxnDone = errors.New("redis txn already finished")

func (t *Txn) Get(key string) ([]byte, error) {
	if _, ok := t.deletes[key]; ok {
		return nil, contract.ErrNotFound
	}
	if v, ok := t.writes[key]; ok {
		return v, nil
	}
	return t.store.Get(key)
}

func (t *Txn) Has(key string) (bool, error) {
	if _, ok := t.deletes[key]; ok {
		return false, nil
	}
	if _, ok := t.writes[key]; ok {
		return true, nil
	}
	return t.store.Has(key)
}

func (t *Txn) Put(key string, value []byte) error {
	if t.done {
		return errTxnDone
	}
	delete(t.deletes, key)
	if _, ok := t.writes[key]; !ok {
		t.order = append(t.order, key)
	}
	t.writes[key] = value
	return nil
}

func (t *Txn) Delete(key string) error {
	if t.done {
		return errTxnDone
	}
	delete(t.writes, key)
	t.deletes[key] = struct{}{}
	return nil
}

func (t *Txn) Commit() error {
	if t.done {
		return errTxnDone
	}
	t.done = true
	if len(t.writes) == 0 && len(t.deletes) == 0 {
		return nil
	}
	_, err := t.store.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range t.order {
			if v, ok := t.writes[key]; ok {
				pipe.Set(ctx, key, v, 0)
			}
		}
		for key := range t.deletes {
			pipe.Del(ctx, key)
		}
		return nil
	})
	if err != nil {
		log.Errorf("redis txn commit error: %s", err)
	}
	return err
}

func (t *Txn) Discard() {
	t.done = true
	t.writes = nil
	t.deletes = nil
	t.order = nil
}

// Sink 把合约事件追加到 redis 列表，供外部订阅者消费
type Sink struct {
	store *Store
	key   string
}

func NewSink(store *Store, key string) *Sink {
	return &Sink{store: store, key: key}
}

func (s *Sink) Publish(e meta.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		log.Errorf("event marshal error: %s", err)
		return
	}
	_ = s.store.PushToList(s.key, string(data))
}
