package annotate

import (
	"fmt"
	"math/big"

	"github.com/cloudflare/cfssl/log"
	"github.com/openannot/meta"
)

// Submit 的执行结果
type SubmitKind string

const (
	SubmittedAnnotation SubmitKind = "annotation"
	ClaimedRefund       SubmitKind = "refund"
)

type SubmitResult struct {
	Kind   SubmitKind `json:"kind"`
	Reward *big.Int   `json:"reward,omitempty"`
	Refund *big.Int   `json:"refund,omitempty"`
}

// Submit 按项目状态分派：Annotating 时提交标注，Success 时取回剩余出资
func (e *Engine) Submit(annotator, cid string, box meta.Box, label string, id uint32) (*SubmitResult, error) {
	if err := e.env.Auth.RequireAuth(annotator); err != nil {
		return nil, err
	}
	p, err := e.project(id)
	if err != nil {
		return nil, err
	}
	switch p.State {
	case meta.Annotating:
		reward, err := e.submitAnnotation(p, annotator, cid, box, label)
		if err != nil {
			return nil, err
		}
		return &SubmitResult{Kind: SubmittedAnnotation, Reward: reward}, nil
	case meta.Success:
		refund, err := e.claimRefund(p, annotator)
		if err != nil {
			return nil, err
		}
		return &SubmitResult{Kind: ClaimedRefund, Refund: refund}, nil
	default:
		return nil, annotatingRequired(p)
	}
}

// SubmitAnnotation 提交一条标注并获得奖励，只能在 Annotating 状态下进行
func (e *Engine) SubmitAnnotation(annotator, cid string, box meta.Box, label string, id uint32) (*big.Int, error) {
	if err := e.env.Auth.RequireAuth(annotator); err != nil {
		return nil, err
	}
	p, err := e.project(id)
	if err != nil {
		return nil, err
	}
	if p.State != meta.Annotating {
		return nil, annotatingRequired(p)
	}
	return e.submitAnnotation(p, annotator, cid, box, label)
}

func annotatingRequired(p *meta.Project) error {
	switch p.State {
	case meta.Funding:
		return fmt.Errorf("%w: project %d", ErrSaleRunning, p.ID)
	case meta.Expired:
		return fmt.Errorf("%w: project %d", ErrExpired, p.ID)
	default:
		return fmt.Errorf("%w: project %d", ErrAnnotationFinished, p.ID)
	}
}

func (e *Engine) submitAnnotation(p *meta.Project, annotator, cid string, box meta.Box, label string) (*big.Int, error) {
	if label == "" {
		return nil, ErrEmptyLabel
	}
	dp, ok := p.DataPoints[cid]
	if !ok {
		return nil, fmt.Errorf("%w: %q in project %d", ErrTaskNotFound, cid, p.ID)
	}
	annotations := make([]meta.Annotation, len(dp.Annotations), len(dp.Annotations)+1)
	copy(annotations, dp.Annotations)
	dp.Annotations = append(annotations, meta.Annotation{
		Annotator: annotator,
		Box:       box,
		Label:     label,
	})
	dp.Annotated = true
	p.DataPoints[cid] = dp

	// 托管余额不足一个奖励单位时支付剩余部分
	reward := new(big.Int).Set(e.rewardUnit)
	if reward.Cmp(p.CurrentAmount) > 0 {
		reward.Set(p.CurrentAmount)
	}
	p.AnnotatorEarnings[annotator] = new(big.Int).Add(p.Earning(annotator), reward)
	if err := e.pay(p, annotator, reward); err != nil {
		return nil, err
	}
	if err := e.save(p); err != nil {
		return nil, err
	}
	log.Infof("%s 标注了项目 %d 的数据 %s，奖励 %s", annotator, p.ID, cid, reward)
	e.emit(meta.EventAnnotationSubmitted, p.ID, map[string]interface{}{
		"annotator": annotator,
		"cid":       cid,
		"label":     label,
		"reward":    reward.String(),
	})
	if err := e.refresh(p); err != nil {
		return nil, err
	}
	return reward, nil
}

// Earnings 返回标注者在项目中累计获得的奖励
func (e *Engine) Earnings(annotator string, id uint32) (*big.Int, error) {
	p, err := e.project(id)
	if err != nil {
		return nil, err
	}
	return p.Earning(annotator), nil
}
