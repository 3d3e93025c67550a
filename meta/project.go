package meta

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// 项目生命周期状态，存储时使用序号
type State uint32

const (
	Funding    State = iota // 0: 众筹中
	Annotating              // 1: 标注中
	Success                 // 2: 完成
	Expired                 // 3: 过期
)

var stateNames = [...]string{"Funding", "Annotating", "Success", "Expired"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", uint32(s))
}

func (s State) Valid() bool {
	return s <= Expired
}

// ParseState 将存储的序号转换为状态，未知序号返回错误
func ParseState(ordinal uint32) (State, error) {
	s := State(ordinal)
	if !s.Valid() {
		return 0, fmt.Errorf("unknown state ordinal %d", ordinal)
	}
	return s, nil
}

func (s *State) UnmarshalJSON(data []byte) error {
	var ordinal uint32
	if err := json.Unmarshal(data, &ordinal); err != nil {
		return err
	}
	parsed, err := ParseState(ordinal)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// 标注框
type Box struct {
	PosX   uint32 `json:"posx"`
	PosY   uint32 `json:"posy"`
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

// 一个标注者对数据的一次标注结果，写入后不再修改
type Annotation struct {
	Annotator string `json:"annotator"`
	Box
	Label string `json:"label"`
}

// 需要标注的数据
type DataPoint struct {
	CID         string       `json:"cid"`
	Annotated   bool         `json:"annotated"` // 至少有一条标注
	Annotations []Annotation `json:"annotations"`
}

// 众筹 + 数据标注项目
type Project struct {
	ID                uint32               `json:"id"`
	Name              string               `json:"name"`
	Description       string               `json:"description"`
	Recipient         string               `json:"recipient"`
	Started           uint64               `json:"started"`
	Deadline          uint64               `json:"deadline"`
	TargetAmount      *big.Int             `json:"target_amount"`
	CurrentAmount     *big.Int             `json:"current_amount"` // 托管账户余额的缓存
	DataPoints        map[string]DataPoint `json:"data_points"`
	Contributions     map[string]*big.Int  `json:"contributors_contribution_map"`
	AnnotatorEarnings map[string]*big.Int  `json:"annotators_earning_map"`
	State             State                `json:"state"`
}

// Contribution 返回 user 的出资额，没有记录时为0
func (p *Project) Contribution(user string) *big.Int {
	if v, ok := p.Contributions[user]; ok && v != nil {
		return new(big.Int).Set(v)
	}
	return new(big.Int)
}

// Earning 返回 annotator 累计获得的奖励
func (p *Project) Earning(annotator string) *big.Int {
	if v, ok := p.AnnotatorEarnings[annotator]; ok && v != nil {
		return new(big.Int).Set(v)
	}
	return new(big.Int)
}
