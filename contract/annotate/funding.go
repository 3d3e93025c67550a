package annotate

import (
	"fmt"
	"math/big"

	"github.com/cloudflare/cfssl/log"
	"github.com/openannot/common"
	"github.com/openannot/meta"
)

// Contribute 向项目出资，只能在 Funding 状态下进行
func (e *Engine) Contribute(user string, amount *big.Int, id uint32) error {
	if err := e.env.Auth.RequireAuth(user); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	p, err := e.project(id)
	if err != nil {
		return err
	}
	if p.State != meta.Funding {
		return fmt.Errorf("%w: project %d is %s", ErrSaleNotRunning, id, p.State)
	}
	before := targetReached(p.CurrentAmount, p.TargetAmount)

	if err := e.env.Token.Transfer(user, common.CustodyAddress(id), amount); err != nil {
		return fmt.Errorf("contribute to project %d: %w", id, err)
	}
	p.Contributions[user] = new(big.Int).Add(p.Contribution(user), amount)
	if err := e.syncBalance(p); err != nil {
		return err
	}
	if err := e.save(p); err != nil {
		return err
	}
	log.Infof("%s 向项目 %d 出资 %s，当前余额 %s", user, id, amount, p.CurrentAmount)

	e.emit(meta.EventPledgedAmountChanged, id, map[string]interface{}{
		"balance": p.CurrentAmount.String(),
	})
	if !before && targetReached(p.CurrentAmount, p.TargetAmount) {
		e.emit(meta.EventTargetReached, id, map[string]interface{}{
			"balance": p.CurrentAmount.String(),
			"target":  p.TargetAmount.String(),
		})
	}
	return e.refresh(p)
}

// Withdraw 项目过期后取回出资，重复取回得到0
func (e *Engine) Withdraw(user string, id uint32) (*big.Int, error) {
	if err := e.env.Auth.RequireAuth(user); err != nil {
		return nil, err
	}
	p, err := e.project(id)
	if err != nil {
		return nil, err
	}
	if p.State != meta.Expired {
		return nil, fmt.Errorf("%w: project %d is %s", ErrNotExpired, id, p.State)
	}
	amount := p.Contribution(user)
	if err := e.refund(p, user, amount); err != nil {
		return nil, err
	}
	e.emit(meta.EventWithdrawn, id, map[string]interface{}{
		"user":   user,
		"amount": amount.String(),
	})
	return amount, nil
}

// ClaimRefund 项目完成后取回剩余出资。标注奖励已经消耗的部分不再退还，
// 实际退款为出资额与托管余额中较小的一个
func (e *Engine) ClaimRefund(user string, id uint32) (*big.Int, error) {
	if err := e.env.Auth.RequireAuth(user); err != nil {
		return nil, err
	}
	p, err := e.project(id)
	if err != nil {
		return nil, err
	}
	return e.claimRefund(p, user)
}

func (e *Engine) claimRefund(p *meta.Project, user string) (*big.Int, error) {
	if p.State != meta.Success {
		return nil, fmt.Errorf("%w: project %d is %s", ErrNotSuccess, p.ID, p.State)
	}
	amount := p.Contribution(user)
	if amount.Cmp(p.CurrentAmount) > 0 {
		amount = new(big.Int).Set(p.CurrentAmount)
	}
	if err := e.refund(p, user, amount); err != nil {
		return nil, err
	}
	e.emit(meta.EventRefundClaimed, p.ID, map[string]interface{}{
		"user":   user,
		"amount": amount.String(),
	})
	return amount, nil
}

// refund 清零出资记录并从托管账户转出 amount
func (e *Engine) refund(p *meta.Project, user string, amount *big.Int) error {
	if _, ok := p.Contributions[user]; ok {
		p.Contributions[user] = new(big.Int)
	}
	if err := e.pay(p, user, amount); err != nil {
		return err
	}
	if err := e.save(p); err != nil {
		return err
	}
	if amount.Sign() > 0 {
		log.Infof("项目 %d 向 %s 退款 %s", p.ID, user, amount)
		e.emit(meta.EventPledgedAmountChanged, p.ID, map[string]interface{}{
			"balance": p.CurrentAmount.String(),
		})
	}
	return nil
}

// Balance 返回 user 可取回的出资。Annotating 状态下接收方看到整个托管余额，
// 其他人为0；Success 状态下与 ClaimRefund 一样不超过托管余额
func (e *Engine) Balance(user string, id uint32) (*big.Int, error) {
	p, err := e.project(id)
	if err != nil {
		return nil, err
	}
	if p.State == meta.Annotating {
		if user != p.Recipient {
			return new(big.Int), nil
		}
		return new(big.Int).Set(p.CurrentAmount), nil
	}
	amount := p.Contribution(user)
	if p.State == meta.Success && amount.Cmp(p.CurrentAmount) > 0 {
		amount.Set(p.CurrentAmount)
	}
	return amount, nil
}
