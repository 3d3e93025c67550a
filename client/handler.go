package client

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/cloudflare/cfssl/log"
	"github.com/gin-gonic/gin"
	"github.com/openannot/account"
	"github.com/openannot/chain"
	"github.com/openannot/contract"
	"github.com/openannot/contract/annotate"
	"github.com/openannot/meta"
	"github.com/openannot/util"
)

func Cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method

		origin := c.Request.Header.Get("Origin")

		if origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Headers", "Content-Type,AccessToken,X-CSRF-Token, Authorization") //自定义 Header
			c.Header("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			c.Header("Access-Control-Expose-Headers", "Content-Length, Access-Control-Allow-Origin, Access-Control-Allow-Headers, Content-Type")
			c.Header("Access-Control-Allow-Credentials", "true")
		}

		if method == "OPTIONS" {
			c.Header("Access-Control-Allow-Origin", "*")
			c.Header("Access-Control-Allow-Headers", "Content-Type,AccessToken,X-CSRF-Token, Authorization") //自定义 Header
			c.Header("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			c.Header("Access-Control-Expose-Headers", "Content-Length, Access-Control-Allow-Origin, Access-Control-Allow-Headers, Content-Type")
			c.Header("Access-Control-Allow-Credentials", "true")
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

//账户注册
func (c *Client) registerAccount(ctx *gin.Context) {
	//首先生成公私钥
	priKey, pubKey, err := util.GetKeyPair()
	if err != nil {
		log.Error("[registerAccount] 生成密钥失败:", err)
		ctx.JSON(http.StatusOK, errResponse("生成密钥失败"))
		return
	}
	//将公钥hash作为账户地址
	acc, err := c.executor.RegisterAccount(string(pubKey), c.opts.InitBalance)
	if err != nil {
		log.Error("[registerAccount] 注册失败:", err)
		ctx.JSON(http.StatusOK, errResponse(errMessage(err)))
		return
	}
	res := meta.ChainAccount{
		AccountAddress: acc.Address,
		PublicKey:      string(pubKey),
		PrivateKey:     string(priKey),
	}
	ctx.JSON(http.StatusOK, goodResponse(res))
}

//提交一笔交易
func (c *Client) postTran(ctx *gin.Context) {
	b, _ := ctx.GetRawData()
	log.Infof("[client] 收到一笔交易: %s", string(b))

	pt := meta.PostTran{}
	if err := json.Unmarshal(b, &pt); err != nil {
		log.Error("[postTran],json decode err:", err)
		ctx.JSON(http.StatusOK, errResponse("交易格式错误"))
		return
	}

	// 检查交易参数
	if msg, ok := checkTranParameters(&pt); !ok {
		log.Info(msg)
		ctx.JSON(http.StatusOK, errResponse(msg))
		return
	}

	//将args解析
	args := make(map[string]string)
	if pt.Args != "" {
		if err := json.Unmarshal([]byte(pt.Args), &args); err != nil {
			log.Error("[postTran] json err:", err)
			ctx.JSON(http.StatusOK, errResponse("合约参数格式错误"))
			return
		}
	}
	t := meta.Transaction{
		From:      pt.From,
		Contract:  chain.AnnotateContract,
		Method:    pt.Method,
		Args:      args,
		Timestamp: pt.Timestamp,
		PublicKey: pt.PublicKey,
	}
	if pt.Sign == "" {
		// 用户未签名时由 client 使用私钥代签
		if t.Timestamp == 0 {
			t.Timestamp = uint64(time.Now().UnixNano())
		}
		if err := chain.SignTransaction(&t, []byte(pt.PrivateKey)); err != nil {
			log.Error("[postTran] 签名失败:", err)
			ctx.JSON(http.StatusOK, errResponse("私钥错误"))
			return
		}
	} else {
		sign, err := hex.DecodeString(pt.Sign)
		if err != nil {
			ctx.JSON(http.StatusOK, errResponse("签名格式错误"))
			return
		}
		t.Hash = util.CalculateTxHash(t)
		t.Sign = sign
	}

	receipt, err := c.executor.Execute(t)
	if err != nil {
		ctx.JSON(http.StatusOK, errResponse(errMessage(err)))
		return
	}
	ctx.JSON(http.StatusOK, goodResponse(receipt))
}

//链上信息query服务
func (c *Client) query(ctx *gin.Context) {
	data, _ := ctx.GetRawData()
	log.Infof("[client] 收到查询请求: %s", string(data))

	q := meta.Query{}
	if err := json.Unmarshal(data, &q); err != nil {
		log.Error("[query],json decode err:", err)
		ctx.JSON(http.StatusOK, errResponse("Query参数有误!"))
		return
	}

	res, err := c.doQuery(q)
	if err != nil {
		log.Infof("[query] %s 失败: %v", q.Type, err)
		ctx.JSON(http.StatusOK, errResponse(errMessage(err)))
		return
	}
	ctx.JSON(http.StatusOK, goodResponse(res))
}

var errInvalidParam = errors.New("Invalid param")

func (c *Client) doQuery(q meta.Query) (interface{}, error) {
	param := func(i int) (string, error) {
		if len(q.Parameters) <= i {
			return "", errInvalidParam
		}
		return q.Parameters[i], nil
	}
	projectID := func() (uint32, error) {
		p, err := param(0)
		if err != nil {
			return 0, err
		}
		id, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return 0, errInvalidParam
		}
		return uint32(id), nil
	}
	view := func(fn func(e *annotate.Engine, id uint32) (interface{}, error)) (interface{}, error) {
		id, err := projectID()
		if err != nil {
			return nil, err
		}
		return c.executor.View(func(e *annotate.Engine) (interface{}, error) {
			return fn(e, id)
		})
	}

	switch q.Type {
	case "getBlockChain": // 获取区块链
		return c.executor.GetBlockChain()
	case "getBlock", "getOneBlockTxs": // 获取指定高度的区块及其交易
		h, err := param(0)
		if err != nil {
			return nil, err
		}
		height, err := strconv.Atoi(h)
		if err != nil {
			return nil, errInvalidParam
		}
		b, err := c.executor.GetBlock(height)
		if err != nil {
			return nil, err
		}
		if q.Type == "getOneBlockTxs" {
			return b.TX, nil
		}
		return b, nil
	case "getPendingTxs": // 尚未打包的交易
		return c.executor.PendingTxs()
	case "getAllAccounts": // 获取所有的账户
		return c.executor.GetAllAccounts()
	case "getAccount":
		address, err := param(0)
		if err != nil {
			return nil, err
		}
		return c.executor.GetAccount(address)
	case "getProjects":
		return c.executor.View(func(e *annotate.Engine) (interface{}, error) {
			return e.GetProjects()
		})
	case "getProject":
		return view(func(e *annotate.Engine, id uint32) (interface{}, error) { return e.GetProject(id) })
	case "state":
		return view(func(e *annotate.Engine, id uint32) (interface{}, error) {
			s, err := e.State(id)
			return uint32(s), err
		})
	case "deadline":
		return view(func(e *annotate.Engine, id uint32) (interface{}, error) { return e.Deadline(id) })
	case "target":
		return view(func(e *annotate.Engine, id uint32) (interface{}, error) { return e.Target(id) })
	case "token":
		return view(func(e *annotate.Engine, id uint32) (interface{}, error) { return e.Token(id) })
	case "name":
		return view(func(e *annotate.Engine, id uint32) (interface{}, error) { return e.GetName(id) })
	case "description":
		return view(func(e *annotate.Engine, id uint32) (interface{}, error) { return e.GetDescription(id) })
	case "balance", "earnings": // 参数：项目id、用户地址
		user, err := param(1)
		if err != nil {
			return nil, err
		}
		return view(func(e *annotate.Engine, id uint32) (interface{}, error) {
			if q.Type == "earnings" {
				return e.Earnings(user, id)
			}
			return e.Balance(user, id)
		})
	case "getEvent": // 可选参数：项目id
		if len(q.Parameters) == 0 {
			return c.events.Recent(nil), nil
		}
		id, err := projectID()
		if err != nil {
			return nil, err
		}
		return c.events.Recent(&id), nil
	}
	return nil, errors.New("Query参数有误!")
}

// 返回正常信息
func goodResponse(data interface{}) meta.HttpResponse {
	res := meta.HttpResponse{
		Data: data,
		Code: 20000,
	}
	return res
}

// 出现异常，返回异常信息
func errResponse(errMsg string) meta.HttpResponse {
	res := meta.HttpResponse{
		Error: errMsg,
		Data:  "",
		Code:  20000,
	}
	return res
}

// 检查交易参数
func checkTranParameters(pt *meta.PostTran) (string, bool) {
	if pt.From == "" {
		return "发起地址不能为空", false
	}
	if pt.Method == "" {
		return "调用方法不能为空", false
	}
	if pt.PublicKey == "" {
		return "公钥不能为空", false
	}
	if pt.Sign == "" && pt.PrivateKey == "" {
		return "签名和私钥不能同时为空", false
	}
	return "", true
}

// 把错误转换为返回给用户的信息
func errMessage(err error) string {
	switch {
	case errors.Is(err, contract.ErrUnauthorized),
		errors.Is(err, chain.ErrBadSender),
		errors.Is(err, chain.ErrBadSignature),
		errors.Is(err, chain.ErrBadTxHash):
		return "交易验证失败: " + err.Error()
	case errors.Is(err, chain.ErrReplayedTx):
		return "重复交易: " + err.Error()
	case errors.Is(err, account.ErrInsufficientBalance):
		return "余额不足: " + err.Error()
	case errors.Is(err, account.ErrAccountExists):
		return "账户已存在"
	case errors.Is(err, account.ErrAccountNotFound),
		errors.Is(err, annotate.ErrProjectNotFound),
		errors.Is(err, annotate.ErrTaskNotFound),
		errors.Is(err, contract.ErrNotFound):
		return "查询对象不存在: " + err.Error()
	case errors.Is(err, annotate.ErrInvalidArgs),
		errors.Is(err, annotate.ErrUnknownMethod),
		errors.Is(err, errInvalidParam):
		return "参数错误: " + err.Error()
	}
	return err.Error()
}
