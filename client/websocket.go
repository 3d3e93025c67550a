package client

import (
	"net/http"
	"strconv"
	"time"

	"github.com/cloudflare/cfssl/log"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/openannot/meta"
)

var upGrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const writeWait = 5 * time.Second

// 使用WebSocket向前端推送合约事件，可用 ?project=<id> 只订阅某个项目
func (c *Client) getLog(ctx *gin.Context) {
	var filter *uint32
	if p := ctx.Query("project"); p != "" {
		id, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			ctx.JSON(http.StatusOK, errResponse("Invalid param"))
			return
		}
		pid := uint32(id)
		filter = &pid
	}

	events, cancel := c.events.Subscribe()
	defer cancel()

	// 升级请求为WebSocket协议
	ws, err := upGrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Info("Upgrade failed")
		return
	}
	defer ws.Close()

	// 前端断开连接时结束推送
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if !match(filter, e) {
				continue
			}
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteJSON(e); err != nil {
				log.Info(err)
				return
			}
		}
	}
}

func match(filter *uint32, e meta.Event) bool {
	return filter == nil || e.ProjectID == *filter
}
