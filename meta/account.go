package meta

import "math/big"

//账户

type Account struct {
	Address    string   `json:"address"`     //账户地址
	Balance    *big.Int `json:"balance"`     //账户余额
	PublicKey  string   `json:"public_key"`  //账户公钥（PEM）
	IsContract bool     `json:"is_contract"` //是否为合约托管账户
}

// 注册账户时返回给用户的信息，私钥只返回一次
type ChainAccount struct {
	AccountAddress string `json:"account_address"`
	PublicKey      string `json:"public_key"`
	PrivateKey     string `json:"private_key"`
}
