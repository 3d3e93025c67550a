package annotate

import (
	"fmt"
	"math/big"

	"github.com/cloudflare/cfssl/log"
	"github.com/openannot/common"
	"github.com/openannot/contract"
	"github.com/openannot/meta"
)

// Initialize 创建一个新项目并返回其 id，每次调用都会分配新的 id
func (e *Engine) Initialize(recipient string, deadline uint64, target *big.Int, cids []string, name, description string) (uint32, error) {
	now := e.env.Clock.Now()
	if recipient == "" {
		return 0, ErrInvalidRecipient
	}
	if target == nil || target.Sign() <= 0 {
		return 0, ErrInvalidTarget
	}
	if deadline <= now {
		return 0, fmt.Errorf("%w: deadline %d, now %d", ErrInvalidDeadline, deadline, now)
	}

	var count uint32
	if _, err := contract.GetJSON(e.env.Storage, common.ProjectCountKey, &count); err != nil {
		return 0, err
	}
	id := count

	dataPoints := make(map[string]meta.DataPoint, len(cids))
	for _, cid := range cids {
		dataPoints[cid] = meta.DataPoint{CID: cid, Annotations: []meta.Annotation{}}
	}
	p := &meta.Project{
		ID:                id,
		Name:              name,
		Description:       description,
		Recipient:         recipient,
		Started:           now,
		Deadline:          deadline,
		TargetAmount:      new(big.Int).Set(target),
		CurrentAmount:     new(big.Int),
		DataPoints:        dataPoints,
		Contributions:     map[string]*big.Int{},
		AnnotatorEarnings: map[string]*big.Int{},
		State:             meta.Funding,
	}
	if err := e.save(p); err != nil {
		return 0, err
	}
	if err := contract.PutJSON(e.env.Storage, common.ProjectCountKey, count+1); err != nil {
		return 0, err
	}
	ids, err := e.projectIDs()
	if err != nil {
		return 0, err
	}
	if err := contract.PutJSON(e.env.Storage, common.ProjectIDsKey, append(ids, id)); err != nil {
		return 0, err
	}

	log.Infof("创建项目 %d(%s)，目标金额 %s，截止时间 %d", id, name, target, deadline)
	e.emit(meta.EventProjectInitialized, id, map[string]interface{}{
		"recipient": recipient,
		"target":    target.String(),
		"deadline":  deadline,
		"items":     len(dataPoints),
	})
	return id, nil
}

func (e *Engine) projectIDs() ([]uint32, error) {
	var ids []uint32
	if _, err := contract.GetJSON(e.env.Storage, common.ProjectIDsKey, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// GetProjects 返回所有项目
func (e *Engine) GetProjects() ([]*meta.Project, error) {
	ids, err := e.projectIDs()
	if err != nil {
		return nil, err
	}
	projects := make([]*meta.Project, 0, len(ids))
	for _, id := range ids {
		p, err := e.project(id)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, nil
}

func (e *Engine) GetProject(id uint32) (*meta.Project, error) {
	return e.project(id)
}

func (e *Engine) Deadline(id uint32) (uint64, error) {
	p, err := e.load(id)
	if err != nil {
		return 0, err
	}
	return p.Deadline, nil
}

func (e *Engine) Target(id uint32) (*big.Int, error) {
	p, err := e.load(id)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(p.TargetAmount), nil
}

// Token 返回项目的托管账户地址
func (e *Engine) Token(id uint32) (string, error) {
	if _, err := e.load(id); err != nil {
		return "", err
	}
	return common.CustodyAddress(id), nil
}

func (e *Engine) GetName(id uint32) (string, error) {
	p, err := e.load(id)
	if err != nil {
		return "", err
	}
	return p.Name, nil
}

func (e *Engine) GetDescription(id uint32) (string, error) {
	p, err := e.load(id)
	if err != nil {
		return "", err
	}
	return p.Description, nil
}
