package okx_http

import (
	"context"
	"encoding/json"
	"fmt"
)

type balanceEnvelope struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data []struct {
		TotalEq string `json:"totalEq"`
		Details []struct {
			Ccy string `json:"ccy"`
			Eq  string `json:"eq"`
		} `json:"details"`
	} `json:"data"`
}

// Balance holds per-currency equity from the unified trading account.
type Balance struct {
	TotalEqUSD string
	Totals     map[string]string // currency -> equity
}

// GetBalance fetches the account balance for the startup report.
func (c *Client) GetBalance(ctx context.Context) (*Balance, error) {
	body, status, err := c.Get(ctx, "/api/v5/account/balance")
	if err != nil {
		return nil, err
	}
	if status != 200 {
		return nil, fmt.Errorf("get balance: status=%d body=%s", status, string(body))
	}

	var env balanceEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("unmarshal balance: %w", err)
	}
	if env.Code != "0" || len(env.Data) == 0 {
		return nil, fmt.Errorf("get balance: code=%s msg=%q", env.Code, env.Msg)
	}

	bal := &Balance{
		TotalEqUSD: env.Data[0].TotalEq,
		Totals:     make(map[string]string, len(env.Data[0].Details)),
	}
	for _, d := range env.Data[0].Details {
		bal.Totals[d.Ccy] = d.Eq
	}
	return bal, nil
}
