package annotate

import (
	"math/big"

	"github.com/cloudflare/cfssl/log"
	"github.com/openannot/meta"
)

var one = big.NewInt(1)

// deriveState 由存储的状态、托管余额和当前时间计算项目的实际状态。
// 同一次计算中达到目标优先于超过截止时间。
func deriveState(p *meta.Project, custody *big.Int, now uint64) meta.State {
	state := p.State
	switch state {
	case meta.Expired:
		return meta.Expired
	case meta.Funding:
		if targetReached(custody, p.TargetAmount) {
			state = meta.Annotating
		} else if now > p.Deadline {
			return meta.Expired
		}
	}
	if state == meta.Annotating && custody.Cmp(one) < 0 {
		state = meta.Success
	}
	return state
}

func targetReached(custody, target *big.Int) bool {
	return custody.Cmp(target) >= 0
}

// refresh 重新计算项目状态，状态变化时写回存储并发出事件
func (e *Engine) refresh(p *meta.Project) error {
	custody, err := e.custody(p.ID)
	if err != nil {
		return err
	}
	next := deriveState(p, custody, e.env.Clock.Now())
	if next == p.State && custody.Cmp(p.CurrentAmount) == 0 {
		return nil
	}
	prev := p.State
	p.State = next
	p.CurrentAmount = custody
	if err := e.save(p); err != nil {
		return err
	}
	if prev != next {
		log.Infof("项目 %d 状态变化: %s -> %s", p.ID, prev, next)
		e.emit(meta.EventStateChanged, p.ID, map[string]interface{}{
			"from": uint32(prev),
			"to":   uint32(next),
		})
	}
	return nil
}

// State 返回项目当前状态
func (e *Engine) State(id uint32) (meta.State, error) {
	p, err := e.project(id)
	if err != nil {
		return 0, err
	}
	return p.State, nil
}
