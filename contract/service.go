package contract

import (
	"encoding/json"
	"errors"
	"fmt"
)

// GetJSON 读取 key 并反序列化到 v，key 不存在时返回 false
func GetJSON(s Storage, key string, v interface{}) (bool, error) {
	data, err := s.Get(key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// PutJSON 序列化 v 并写入 key
func PutJSON(s Storage, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Put(key, data)
}
