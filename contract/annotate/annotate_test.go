package annotate

import (
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/openannot/account"
	"github.com/openannot/common"
	"github.com/openannot/contract"
	"github.com/openannot/levelDB"
	"github.com/openannot/meta"
	"gotest.tools/assert"
)

const start = uint64(1000)

type manualClock struct{ now uint64 }

func (c *manualClock) Now() uint64 { return c.now }

// denied 中的地址校验失败
type fakeAuth struct{ denied map[string]bool }

func (a *fakeAuth) RequireAuth(principal string) error {
	if a.denied[principal] {
		return contract.ErrUnauthorized
	}
	return nil
}

type recorder struct{ events []meta.Event }

func (r *recorder) Publish(e meta.Event) { r.events = append(r.events, e) }

func (r *recorder) count(topic string) int {
	n := 0
	for _, e := range r.events {
		if e.Topic == topic {
			n++
		}
	}
	return n
}

type fixture struct {
	t      *testing.T
	db     *levelDB.DB
	ledger *account.Ledger
	clock  *manualClock
	auth   *fakeAuth
	events *recorder
	engine *Engine
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	db, err := levelDB.OpenMemory()
	assert.NilError(t, err)
	t.Cleanup(func() { db.Close() })
	f := &fixture{
		t:      t,
		db:     db,
		ledger: account.NewLedger(db),
		clock:  &manualClock{now: start},
		auth:   &fakeAuth{denied: map[string]bool{}},
		events: &recorder{},
	}
	f.engine, err = New(&contract.Env{
		Storage: db,
		Token:   f.ledger,
		Auth:    f.auth,
		Clock:   f.clock,
		Events:  f.events,
	}, opts...)
	assert.NilError(t, err)
	for _, user := range []string{"alice", "bob", "carol"} {
		assert.NilError(t, f.ledger.Mint(user, big.NewInt(1000)))
	}
	return f
}

func (f *fixture) initialize(target int64, deadline uint64, cids ...string) uint32 {
	id, err := f.engine.Initialize("recipient", deadline, big.NewInt(target), cids, "cats", "label cats")
	assert.NilError(f.t, err)
	return id
}

func (f *fixture) state(id uint32) meta.State {
	s, err := f.engine.State(id)
	assert.NilError(f.t, err)
	return s
}

func (f *fixture) custody(id uint32) int64 {
	b, err := f.ledger.Balance(common.CustodyAddress(id))
	assert.NilError(f.t, err)
	return b.Int64()
}

func (f *fixture) balance(user string) int64 {
	b, err := f.ledger.Balance(user)
	assert.NilError(f.t, err)
	return b.Int64()
}

func TestFundAnnotateSucceed(t *testing.T) {
	f := newFixture(t)
	id := f.initialize(100, start+10, "a")

	assert.NilError(t, f.engine.Contribute("alice", big.NewInt(60), id))
	assert.Equal(t, f.state(id), meta.Funding)
	b, err := f.engine.Balance("alice", id)
	assert.NilError(t, err)
	assert.Equal(t, b.Int64(), int64(60))

	assert.NilError(t, f.engine.Contribute("bob", big.NewInt(40), id))
	assert.Equal(t, f.state(id), meta.Annotating)
	assert.Equal(t, f.events.count(meta.EventTargetReached), 1)

	// 接收方看到全部托管余额，其他人为0
	b, err = f.engine.Balance("recipient", id)
	assert.NilError(t, err)
	assert.Equal(t, b.Int64(), int64(100))
	b, err = f.engine.Balance("alice", id)
	assert.NilError(t, err)
	assert.Equal(t, b.Sign(), 0)

	res, err := f.engine.Submit("carol", "a", meta.Box{PosX: 1, PosY: 2, Width: 3, Height: 4}, "cat", id)
	assert.NilError(t, err)
	assert.Equal(t, res.Kind, SubmittedAnnotation)
	assert.Equal(t, f.custody(id), int64(99))
	p, err := f.engine.GetProject(id)
	assert.NilError(t, err)
	assert.Equal(t, len(p.DataPoints["a"].Annotations), 1)
	assert.Assert(t, p.DataPoints["a"].Annotated)
	assert.Equal(t, p.DataPoints["a"].Annotations[0].Width, uint32(3))

	for i := 0; i < 99; i++ {
		_, err := f.engine.Submit(fmt.Sprintf("worker%d", i), "a", meta.Box{}, "cat", id)
		assert.NilError(t, err)
	}
	assert.Equal(t, f.custody(id), int64(0))
	assert.Equal(t, f.state(id), meta.Success)
	assert.Equal(t, f.events.count(meta.EventTargetReached), 1)

	before := f.balance("dave")
	res, err = f.engine.Submit("dave", "a", meta.Box{}, "cat", id)
	assert.NilError(t, err)
	assert.Equal(t, res.Kind, ClaimedRefund)
	assert.Equal(t, res.Refund.Sign(), 0)
	assert.Equal(t, f.balance("dave"), before)

	earned, err := f.engine.Earnings("carol", id)
	assert.NilError(t, err)
	assert.Equal(t, earned.Int64(), int64(1))
}

func TestExpireAndWithdraw(t *testing.T) {
	f := newFixture(t)
	id := f.initialize(100, start+1, "a")
	assert.NilError(t, f.engine.Contribute("alice", big.NewInt(10), id))

	f.clock.now = start + 2
	assert.Equal(t, f.state(id), meta.Expired)

	amount, err := f.engine.Withdraw("alice", id)
	assert.NilError(t, err)
	assert.Equal(t, amount.Int64(), int64(10))
	assert.Equal(t, f.balance("alice"), int64(1000))

	amount, err = f.engine.Withdraw("alice", id)
	assert.NilError(t, err)
	assert.Equal(t, amount.Sign(), 0)
	assert.Equal(t, f.custody(id), int64(0))
	assert.Equal(t, f.balance("alice"), int64(1000))
}

func TestExpiredIsAbsorbing(t *testing.T) {
	f := newFixture(t)
	id := f.initialize(100, start+5)
	f.clock.now = start + 6
	assert.Equal(t, f.state(id), meta.Expired)

	err := f.engine.Contribute("alice", big.NewInt(100), id)
	assert.Assert(t, errors.Is(err, ErrSaleNotRunning))
	for i := 0; i < 3; i++ {
		f.clock.now += 100
		assert.Equal(t, f.state(id), meta.Expired)
	}
	_, err = f.engine.Submit("alice", "a", meta.Box{}, "cat", id)
	assert.Assert(t, errors.Is(err, ErrExpired))
}

func TestNeverRevertsToFunding(t *testing.T) {
	f := newFixture(t)
	id := f.initialize(50, start+10, "a", "b")
	assert.NilError(t, f.engine.Contribute("alice", big.NewInt(70), id))
	assert.Equal(t, f.state(id), meta.Annotating)

	f.clock.now = start + 100
	assert.Equal(t, f.state(id), meta.Annotating)
	err := f.engine.Contribute("bob", big.NewInt(1), id)
	assert.Assert(t, errors.Is(err, ErrSaleNotRunning))
}

func TestTargetWinsOverDeadline(t *testing.T) {
	f := newFixture(t)
	id := f.initialize(10, start+1)
	assert.NilError(t, f.engine.Contribute("alice", big.NewInt(10), id))
	f.clock.now = start + 50
	assert.Equal(t, f.state(id), meta.Annotating)
}

func TestStateIdempotent(t *testing.T) {
	f := newFixture(t)
	id := f.initialize(100, start+1)
	f.clock.now = start + 2

	assert.Equal(t, f.state(id), meta.Expired)
	first, err := f.db.Get(common.ProjectKey(id))
	assert.NilError(t, err)
	changes := f.events.count(meta.EventStateChanged)
	for i := 0; i < 5; i++ {
		assert.Equal(t, f.state(id), meta.Expired)
		again, err := f.db.Get(common.ProjectKey(id))
		assert.NilError(t, err)
		assert.DeepEqual(t, again, first)
	}
	assert.Equal(t, f.events.count(meta.EventStateChanged), changes)
}

func TestRewardConservation(t *testing.T) {
	f := newFixture(t)
	id := f.initialize(3, start+10, "a", "b")
	assert.NilError(t, f.engine.Contribute("alice", big.NewInt(3), id))

	for i, cid := range []string{"a", "b", "a"} {
		before := f.custody(id)
		reward, err := f.engine.SubmitAnnotation("carol", cid, meta.Box{}, "dog", id)
		assert.NilError(t, err)
		assert.Equal(t, reward.Int64(), int64(1))
		assert.Equal(t, f.custody(id), before-1, "submission %d", i)
	}
	p, err := f.engine.GetProject(id)
	assert.NilError(t, err)
	assert.Equal(t, len(p.DataPoints["a"].Annotations), 2)
	assert.Equal(t, len(p.DataPoints["b"].Annotations), 1)
	assert.Equal(t, p.State, meta.Success)
	assert.Equal(t, p.Earning("carol").Int64(), int64(3))

	_, err = f.engine.SubmitAnnotation("carol", "a", meta.Box{}, "dog", id)
	assert.Assert(t, errors.Is(err, ErrAnnotationFinished))
}

func TestRewardUnitCappedByCustody(t *testing.T) {
	f := newFixture(t, WithRewardUnit(2))
	id := f.initialize(3, start+10, "a")
	assert.NilError(t, f.engine.Contribute("alice", big.NewInt(3), id))

	reward, err := f.engine.SubmitAnnotation("carol", "a", meta.Box{}, "dog", id)
	assert.NilError(t, err)
	assert.Equal(t, reward.Int64(), int64(2))
	reward, err = f.engine.SubmitAnnotation("bob", "a", meta.Box{}, "dog", id)
	assert.NilError(t, err)
	assert.Equal(t, reward.Int64(), int64(1))
	assert.Equal(t, f.state(id), meta.Success)
}

func TestClaimRefundInSuccess(t *testing.T) {
	f := newFixture(t)
	id := f.initialize(2, start+10, "a")
	assert.NilError(t, f.engine.Contribute("alice", big.NewInt(5), id))
	for i := 0; i < 5; i++ {
		_, err := f.engine.SubmitAnnotation("carol", "a", meta.Box{}, "dog", id)
		assert.NilError(t, err)
	}
	assert.Equal(t, f.state(id), meta.Success)

	// 出资记录还在，但可取回的金额与实际退款一致
	assert.Equal(t, f.engine.mustProject(t, id).Contribution("alice").Int64(), int64(5))
	bal, err := f.engine.Balance("alice", id)
	assert.NilError(t, err)
	assert.Equal(t, bal.Sign(), 0)

	refund, err := f.engine.ClaimRefund("alice", id)
	assert.NilError(t, err)
	assert.Equal(t, refund.Cmp(bal), 0)
	assert.Equal(t, f.engine.mustProject(t, id).Contribution("alice").Sign(), 0)
}

func TestSubmitRejections(t *testing.T) {
	f := newFixture(t)
	id := f.initialize(10, start+10, "a")

	_, err := f.engine.Submit("carol", "a", meta.Box{}, "cat", id)
	assert.Assert(t, errors.Is(err, ErrSaleRunning))
	_, err = f.engine.ClaimRefund("alice", id)
	assert.Assert(t, errors.Is(err, ErrNotSuccess))
	_, err = f.engine.Withdraw("alice", id)
	assert.Assert(t, errors.Is(err, ErrNotExpired))

	assert.NilError(t, f.engine.Contribute("alice", big.NewInt(10), id))
	_, err = f.engine.Submit("carol", "a", meta.Box{}, "", id)
	assert.Assert(t, errors.Is(err, ErrEmptyLabel))
	_, err = f.engine.Submit("carol", "missing", meta.Box{}, "cat", id)
	assert.Assert(t, errors.Is(err, ErrTaskNotFound))
	assert.Equal(t, f.custody(id), int64(10))
}

func TestContributeValidation(t *testing.T) {
	f := newFixture(t)
	id := f.initialize(10, start+10)

	assert.Assert(t, errors.Is(f.engine.Contribute("alice", big.NewInt(0), id), ErrInvalidAmount))
	assert.Assert(t, errors.Is(f.engine.Contribute("alice", big.NewInt(-3), id), ErrInvalidAmount))
	assert.Assert(t, errors.Is(f.engine.Contribute("alice", big.NewInt(1), 99), ErrProjectNotFound))
	err := f.engine.Contribute("alice", big.NewInt(5000), id)
	assert.Assert(t, errors.Is(err, account.ErrInsufficientBalance))
	assert.Equal(t, f.custody(id), int64(0))
	assert.Equal(t, f.engine.mustProject(t, id).Contribution("alice").Sign(), 0)
}

func TestAuthorizationCheckedFirst(t *testing.T) {
	f := newFixture(t)
	f.auth.denied["mallory"] = true

	// 不存在的项目也先返回未授权
	err := f.engine.Contribute("mallory", big.NewInt(1), 42)
	assert.Assert(t, errors.Is(err, contract.ErrUnauthorized))
	_, err = f.engine.Withdraw("mallory", 42)
	assert.Assert(t, errors.Is(err, contract.ErrUnauthorized))
	_, err = f.engine.Submit("mallory", "a", meta.Box{}, "cat", 42)
	assert.Assert(t, errors.Is(err, contract.ErrUnauthorized))
	_, err = f.engine.ClaimRefund("mallory", 42)
	assert.Assert(t, errors.Is(err, contract.ErrUnauthorized))
}

func TestInitialize(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.Initialize("", start+1, big.NewInt(1), nil, "", "")
	assert.Assert(t, errors.Is(err, ErrInvalidRecipient))
	_, err = f.engine.Initialize("r", start+1, big.NewInt(0), nil, "", "")
	assert.Assert(t, errors.Is(err, ErrInvalidTarget))
	_, err = f.engine.Initialize("r", start, big.NewInt(1), nil, "", "")
	assert.Assert(t, errors.Is(err, ErrInvalidDeadline))

	first := f.initialize(10, start+10, "a", "a", "b")
	second := f.initialize(20, start+20)
	assert.Equal(t, first, uint32(0))
	assert.Equal(t, second, uint32(1))

	projects, err := f.engine.GetProjects()
	assert.NilError(t, err)
	assert.Equal(t, len(projects), 2)
	assert.Equal(t, len(projects[0].DataPoints), 2)
	assert.Equal(t, projects[0].Started, start)

	name, err := f.engine.GetName(first)
	assert.NilError(t, err)
	assert.Equal(t, name, "cats")
	desc, err := f.engine.GetDescription(first)
	assert.NilError(t, err)
	assert.Equal(t, desc, "label cats")
	deadline, err := f.engine.Deadline(second)
	assert.NilError(t, err)
	assert.Equal(t, deadline, start+20)
	target, err := f.engine.Target(second)
	assert.NilError(t, err)
	assert.Equal(t, target.Int64(), int64(20))
	token, err := f.engine.Token(second)
	assert.NilError(t, err)
	assert.Equal(t, token, "project:1")
	_, err = f.engine.GetName(7)
	assert.Assert(t, errors.Is(err, ErrProjectNotFound))
	assert.Equal(t, f.events.count(meta.EventProjectInitialized), 2)
}

func TestDeriveState(t *testing.T) {
	p := &meta.Project{TargetAmount: big.NewInt(10), Deadline: 100}
	cases := []struct {
		stored  meta.State
		custody int64
		now     uint64
		want    meta.State
	}{
		{meta.Funding, 5, 50, meta.Funding},
		{meta.Funding, 10, 50, meta.Annotating},
		{meta.Funding, 5, 101, meta.Expired},
		{meta.Funding, 10, 101, meta.Annotating},
		{meta.Annotating, 0, 50, meta.Success},
		{meta.Annotating, 1, 500, meta.Annotating},
		{meta.Expired, 20, 50, meta.Expired},
		{meta.Success, 0, 50, meta.Success},
	}
	for _, c := range cases {
		p.State = c.stored
		assert.Equal(t, deriveState(p, big.NewInt(c.custody), c.now), c.want, "%v/%d/%d", c.stored, c.custody, c.now)
	}
}

func TestInvoke(t *testing.T) {
	f := newFixture(t)
	res, err := f.engine.Invoke("recipient", meta.MethodInitialize, map[string]string{
		"deadline": fmt.Sprint(start + 10),
		"target":   "5",
		"cids":     `["img1","img2"]`,
		"name":     "cats",
	})
	assert.NilError(t, err)
	id := res.(uint32)

	_, err = f.engine.Invoke("alice", meta.MethodContribute, map[string]string{"project_id": "0", "amount": "5"})
	assert.NilError(t, err)
	res, err = f.engine.Invoke("bob", meta.MethodSubmitAnnotation, map[string]string{
		"project_id": "0", "cid": "img2", "label": "cat", "posx": "3", "width": "8",
	})
	assert.NilError(t, err)
	assert.Equal(t, res.(*big.Int).Int64(), int64(1))
	p := f.engine.mustProject(t, id)
	assert.Equal(t, p.DataPoints["img2"].Annotations[0].PosX, uint32(3))
	assert.Equal(t, p.Recipient, "recipient")

	_, err = f.engine.Invoke("bob", "transfer", map[string]string{"project_id": "0"})
	assert.Assert(t, errors.Is(err, ErrUnknownMethod))
	_, err = f.engine.Invoke("bob", meta.MethodContribute, map[string]string{"project_id": "0", "amount": "x"})
	assert.Assert(t, errors.Is(err, ErrInvalidArgs))
	cids, err := listArg("a, b,,c")
	assert.NilError(t, err)
	assert.DeepEqual(t, cids, []string{"a", "b", "c"})
}

func (e *Engine) mustProject(t *testing.T, id uint32) *meta.Project {
	p, err := e.GetProject(id)
	assert.NilError(t, err)
	return p
}
