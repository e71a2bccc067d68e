// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"errors"

	"github.com/luxfi/metric"

	"github.com/luxfi/stakevm/utils/wrappers"
)

var _ Metrics = (*metricsImpl)(nil)

type Metrics interface {
	metric.APIInterceptor

	// IncAirdrop records a successful mint-to issuance.
	IncAirdrop()
	// IncDeposit records a committed deposit.
	IncDeposit()
	// IncWithdraw records a committed withdraw.
	IncWithdraw()
	// IncAborted records an operation rolled back before commit.
	IncAborted()
}

type metricsImpl struct {
	numAirdrops, numDeposits, numWithdraws, numAborted metric.Counter

	metric.APIInterceptor
}

func (m *metricsImpl) IncAirdrop() {
	m.numAirdrops.Inc()
}

func (m *metricsImpl) IncDeposit() {
	m.numDeposits.Inc()
}

func (m *metricsImpl) IncWithdraw() {
	m.numWithdraws.Inc()
}

func (m *metricsImpl) IncAborted() {
	m.numAborted.Inc()
}

func New(registerer metric.Registerer) (Metrics, error) {
	registry, ok := registerer.(metric.Registry)
	if !ok {
		return nil, errors.New("registerer must implement metric.Registry")
	}

	m := &metricsImpl{}

	m.numAirdrops = metric.NewCounter(metric.CounterOpts{
		Name: "airdrops",
		Help: "Number of airdrop issuances executed",
	})
	m.numDeposits = metric.NewCounter(metric.CounterOpts{
		Name: "deposits",
		Help: "Number of deposits committed",
	})
	m.numWithdraws = metric.NewCounter(metric.CounterOpts{
		Name: "withdraws",
		Help: "Number of withdraws committed",
	})
	m.numAborted = metric.NewCounter(metric.CounterOpts{
		Name: "aborted_operations",
		Help: "Number of operations rolled back before commit",
	})

	apiRequestMetric, err := metric.NewAPIInterceptor(registry)
	m.APIInterceptor = apiRequestMetric

	errs := wrappers.Errs{}
	errs.Add(err)
	return m, errs.Err
}
