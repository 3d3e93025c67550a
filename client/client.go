package client

import (
	"math/big"

	"github.com/cloudflare/cfssl/log"
	"github.com/gin-gonic/gin"
	"github.com/openannot/chain"
	"github.com/openannot/event"
	"github.com/unrolled/secure"
)

type Options struct {
	Addr        string
	TLS         bool     // 重定向为https
	InitBalance *big.Int // 注册账户时转入的初始余额
}

type Client struct {
	executor *chain.Executor
	events   *event.Log
	opts     Options
}

func New(executor *chain.Executor, events *event.Log, opts Options) *Client {
	if opts.InitBalance == nil {
		opts.InitBalance = new(big.Int)
	}
	return &Client{executor: executor, events: events, opts: opts}
}

// Router 注册所有接口
func (c *Client) Router() *gin.Engine {
	r := gin.Default()
	r.Use(Cors()) // 使用跨域组件
	if c.opts.TLS {
		r.Use(TlsHandler(c.opts.Addr)) // 重定向为https
	}
	r.POST("/postTran", c.postTran)              // 提交一笔交易
	r.GET("/registerAccount", c.registerAccount) // 注册账户
	r.POST("/query", c.query)                    // 提供链上查询服务
	r.GET("/getLog", c.getLog)                   // 与前端建立websocket
	return r
}

// 监听用户请求
func (c *Client) ListenRequest() error {
	log.Info(" ---------------------------------------------------------------------------------")
	log.Infof("|  标注众筹节点已启动，监听地址 %s  |", c.opts.Addr)
	log.Info(" ---------------------------------------------------------------------------------")
	return c.Router().Run(c.opts.Addr)
}

func TlsHandler(host string) gin.HandlerFunc {
	secureMiddleware := secure.New(secure.Options{
		SSLRedirect: true,
		SSLHost:     host,
	})
	return func(c *gin.Context) {
		err := secureMiddleware.Process(c.Writer, c.Request)

		// If there was an error, do not continue.
		if err != nil {
			c.Abort()
			return
		}
		// Avoid header rewrite if response is a redirection.
		if status := c.Writer.Status(); status > 300 && status < 399 {
			c.Abort()
			return
		}
		c.Next()
	}
}
