package annotate

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/openannot/meta"
)

var (
	ErrUnknownMethod = errors.New("unknown method")
	ErrInvalidArgs   = errors.New("invalid arguments")
)

// Invoke 按方法名调用合约，参数全部以字符串传入，调用者即交易发送方
func (e *Engine) Invoke(caller, method string, args map[string]string) (interface{}, error) {
	if method == meta.MethodInitialize {
		return e.invokeInitialize(caller, args)
	}
	id, err := uint32Arg(args, "project_id")
	if err != nil {
		return nil, err
	}
	switch method {
	case meta.MethodContribute:
		amount, err := bigArg(args, "amount")
		if err != nil {
			return nil, err
		}
		return nil, e.Contribute(caller, amount, id)
	case meta.MethodSubmit, meta.MethodSubmitAnnotation:
		box, err := boxArg(args)
		if err != nil {
			return nil, err
		}
		if method == meta.MethodSubmit {
			return e.Submit(caller, args["cid"], box, args["label"], id)
		}
		return e.SubmitAnnotation(caller, args["cid"], box, args["label"], id)
	case meta.MethodClaimRefund:
		return e.ClaimRefund(caller, id)
	case meta.MethodWithdraw:
		return e.Withdraw(caller, id)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
}

func (e *Engine) invokeInitialize(caller string, args map[string]string) (interface{}, error) {
	recipient := args["recipient"]
	if recipient == "" {
		recipient = caller
	}
	deadline, err := strconv.ParseUint(args["deadline"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: deadline: %v", ErrInvalidArgs, err)
	}
	target, err := bigArg(args, "target")
	if err != nil {
		return nil, err
	}
	cids, err := listArg(args["cids"])
	if err != nil {
		return nil, err
	}
	return e.Initialize(recipient, deadline, target, cids, args["name"], args["description"])
}

func uint32Arg(args map[string]string, key string) (uint32, error) {
	v, err := strconv.ParseUint(args[key], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidArgs, key, err)
	}
	return uint32(v), nil
}

func bigArg(args map[string]string, key string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(args[key], 10)
	if !ok {
		return nil, fmt.Errorf("%w: %s=%q", ErrInvalidArgs, key, args[key])
	}
	return v, nil
}

func boxArg(args map[string]string) (meta.Box, error) {
	var box meta.Box
	fields := []struct {
		key string
		dst *uint32
	}{
		{"posx", &box.PosX},
		{"posy", &box.PosY},
		{"width", &box.Width},
		{"height", &box.Height},
	}
	for _, f := range fields {
		if args[f.key] == "" {
			continue
		}
		v, err := uint32Arg(args, f.key)
		if err != nil {
			return box, err
		}
		*f.dst = v
	}
	return box, nil
}

// listArg 支持 JSON 数组或逗号分隔的列表
func listArg(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if strings.HasPrefix(raw, "[") {
		var list []string
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			return nil, fmt.Errorf("%w: cids: %v", ErrInvalidArgs, err)
		}
		return list, nil
	}
	var list []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			list = append(list, s)
		}
	}
	return list, nil
}
