package main

import (
	"flag"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudflare/cfssl/log"
	"github.com/openannot/chain"
	"github.com/openannot/client"
	"github.com/openannot/config"
	"github.com/openannot/contract"
	"github.com/openannot/event"
	"github.com/openannot/levelDB"
	"github.com/openannot/redis"
	"github.com/openannot/util"
)

func main() {
	if err := Start(); err != nil {
		log.Fatal(err)
	}
}

func Start() error {
	//获取配置文件路径
	configPath := flag.String("c", "", "config file path (yaml)")
	flag.Parse()
	if *configPath == "" && util.FileExists("./config/config.yaml") {
		*configPath = "./config/config.yaml"
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	cfg.ApplyLogLevel()

	eventLog := event.NewLog(0)
	sinks := event.Multi{eventLog}
	db, err := openStore(cfg, &sinks)
	if err != nil {
		return err
	}
	defer db.Close()

	executor, err := chain.NewExecutor(db, chain.Options{
		Clock:        &chain.SystemClock{},
		Events:       sinks,
		RewardUnit:   cfg.Chain.RewardUnit,
		TxsThreshold: cfg.Chain.TxsThreshold,
	})
	if err != nil {
		return err
	}

	// 退出时关闭数据库
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info("节点退出")
		db.Close()
		os.Exit(0)
	}()

	c := client.New(executor, eventLog, client.Options{
		Addr:        cfg.Client.Addr,
		TLS:         cfg.Client.TLS,
		InitBalance: big.NewInt(cfg.Account.InitBalance),
	})
	return c.ListenRequest()
}

// 按配置打开存储，redis 后端同时把事件写入 redis 列表
func openStore(cfg *config.Config, sinks *event.Multi) (contract.Database, error) {
	switch cfg.Store.Backend {
	case config.BackendRedis:
		store, err := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		*sinks = append(*sinks, redis.NewSink(store, cfg.Redis.EventList))
		log.Infof("使用 redis 存储: %s", cfg.Redis.Addr)
		return store, nil
	case config.BackendMemory:
		log.Info("使用内存存储，节点退出后数据丢失")
		return levelDB.OpenMemory()
	default:
		log.Infof("使用 leveldb 存储: %s", cfg.Store.Path)
		return levelDB.Open(cfg.Store.Path)
	}
}
