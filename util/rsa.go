package util

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/cloudflare/cfssl/log"
)

var (
	ErrPrivateKey = errors.New("private key error")
	ErrPublicKey  = errors.New("public key error")
)

// 生成rsa公私钥
func GetKeyPair() (prvkey, pubkey []byte, err error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		return nil, nil, err
	}
	derStream := x509.MarshalPKCS1PrivateKey(privateKey)
	block := &pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: derStream,
	}
	prvkey = pem.EncodeToMemory(block)
	publicKey := &privateKey.PublicKey
	derPkix, err := x509.MarshalPKIXPublicKey(publicKey)
	if err != nil {
		return nil, nil, err
	}
	block = &pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: derPkix,
	}
	pubkey = pem.EncodeToMemory(block)
	return prvkey, pubkey, nil
}

// 账户地址为公钥的sha256
func AddressFromPublicKey(pubkey []byte) string {
	hashed := sha256.Sum256(pubkey)
	return hex.EncodeToString(hashed[:])
}

// 数字签名
func RsaSignWithSha256(data []byte, keyBytes []byte) ([]byte, error) {
	hashed := sha256.Sum256(data)
	block, _ := pem.Decode(keyBytes)
	if block == nil {
		return nil, ErrPrivateKey
	}
	privateKey, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPrivateKey, err)
	}
	signature, err := rsa.SignPKCS1v15(rand.Reader, privateKey, crypto.SHA256, hashed[:])
	if err != nil {
		log.Errorf("Error from signing: %s", err)
		return nil, err
	}
	return signature, nil
}

// 签名验证
func RsaVerySignWithSha256(data, signData, keyBytes []byte) bool {
	block, _ := pem.Decode(keyBytes)
	if block == nil {
		log.Info("公钥格式错误")
		return false
	}
	pubKey, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		log.Info("公钥解析失败: ", err)
		return false
	}
	rsaKey, ok := pubKey.(*rsa.PublicKey)
	if !ok {
		log.Info("不是rsa公钥")
		return false
	}
	hashed := sha256.Sum256(data)
	if err := rsa.VerifyPKCS1v15(rsaKey, crypto.SHA256, hashed[:], signData); err != nil {
		log.Info("验签不通过！")
		return false
	}
	return true
}
