// Package annotate 实现众筹 + 数据标注项目合约。
//
// 每个项目经历 Funding -> Annotating -> Success 或 Funding -> Expired，
// 资金托管在 project:<id> 账户中。合约不加锁，由节点保证每次调用
// 在一个事务内串行执行，失败时整体回滚。
package annotate

import (
	"fmt"
	"math/big"

	"github.com/openannot/common"
	"github.com/openannot/contract"
	"github.com/openannot/meta"
)

type Engine struct {
	env        *contract.Env
	rewardUnit *big.Int
}

type Option func(*Engine)

// WithRewardUnit 设置每条标注支付的奖励
func WithRewardUnit(unit int64) Option {
	return func(e *Engine) {
		e.rewardUnit = big.NewInt(unit)
	}
}

func New(env *contract.Env, opts ...Option) (*Engine, error) {
	e := &Engine{
		env:        env,
		rewardUnit: big.NewInt(common.DefaultRewardUnit),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rewardUnit.Sign() <= 0 {
		return nil, ErrInvalidRewardUnit
	}
	return e, nil
}

func (e *Engine) custody(id uint32) (*big.Int, error) {
	return e.env.Token.Balance(common.CustodyAddress(id))
}

func (e *Engine) load(id uint32) (*meta.Project, error) {
	p := &meta.Project{}
	ok, err := contract.GetJSON(e.env.Storage, common.ProjectKey(id), p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrProjectNotFound, id)
	}
	if p.DataPoints == nil {
		p.DataPoints = map[string]meta.DataPoint{}
	}
	if p.Contributions == nil {
		p.Contributions = map[string]*big.Int{}
	}
	if p.AnnotatorEarnings == nil {
		p.AnnotatorEarnings = map[string]*big.Int{}
	}
	if p.TargetAmount == nil {
		p.TargetAmount = new(big.Int)
	}
	if p.CurrentAmount == nil {
		p.CurrentAmount = new(big.Int)
	}
	return p, nil
}

func (e *Engine) save(p *meta.Project) error {
	return contract.PutJSON(e.env.Storage, common.ProjectKey(p.ID), p)
}

// project 读取项目并刷新其状态
func (e *Engine) project(id uint32) (*meta.Project, error) {
	p, err := e.load(id)
	if err != nil {
		return nil, err
	}
	if err := e.refresh(p); err != nil {
		return nil, err
	}
	return p, nil
}

// pay 从项目托管账户转出 amount 并同步 CurrentAmount
func (e *Engine) pay(p *meta.Project, to string, amount *big.Int) error {
	if err := e.env.Token.Transfer(common.CustodyAddress(p.ID), to, amount); err != nil {
		return fmt.Errorf("pay %s from project %d: %w", to, p.ID, err)
	}
	return e.syncBalance(p)
}

func (e *Engine) syncBalance(p *meta.Project) error {
	custody, err := e.custody(p.ID)
	if err != nil {
		return err
	}
	p.CurrentAmount = custody
	return nil
}

func (e *Engine) emit(topic string, id uint32, data map[string]interface{}) {
	if e.env.Events == nil {
		return
	}
	e.env.Events.Publish(meta.Event{Topic: topic, ProjectID: id, Data: data})
}
