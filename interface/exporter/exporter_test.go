package exporter

import (
	"net/http/httptest"
	"stakeregistry/domain"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	Init(prometheus.NewRegistry())

	IncErrorCount(domain.ErrorInsufficientUnlockedTokens)
	IncErrorCount(domain.ErrorArithmeticOverflow)
	IncErrorCount(domain.ErrorArithmeticOverflow)
	IncOperationCount("withdraw")
	IncCommitRetryCount("withdraw")

	assert.Equal(t, 1.0, testutil.ToFloat64(GetCounter(METRIC_ERROR_COUNT, "state")))
	assert.Equal(t, 2.0, testutil.ToFloat64(GetCounter(METRIC_ERROR_COUNT, "arithmetic")))
	assert.Equal(t, 1.0, testutil.ToFloat64(GetCounter(METRIC_OPERATION_COUNT, "withdraw")))
	assert.Equal(t, 1.0, testutil.ToFloat64(GetCounter(METRIC_COMMIT_RETRIES, "withdraw")))

	registrar := &domain.Registrar{
		Address:                      "registrar",
		CurrentRewardAmountPerSecond: domain.NewFixedPoint(2),
		PermanentlyLockedAmount:      1_000,
		IssuedRewardAmount:           30,
		RewardAccrualTs:              1_700_000_000,
	}
	SetRegistrarGauges(registrar)

	assert.Equal(t, 1_000.0, testutil.ToFloat64(GetGauge(METRIC_PERMANENTLY_LOCKED, "registrar")))
	assert.Equal(t, 30.0, testutil.ToFloat64(GetGauge(METRIC_ISSUED_REWARD, "registrar")))
	assert.Equal(t, 2.0, testutil.ToFloat64(GetGauge(METRIC_REWARD_RATE, "registrar")))
	assert.Equal(t, 1_700_000_000.0, testutil.ToFloat64(GetGauge(METRIC_REWARD_ACCRUAL_TS, "registrar")))

	recorder := httptest.NewRecorder()
	Handler().ServeHTTP(recorder, httptest.NewRequest("GET", "/metrics", nil))
	assert.True(t, strings.Contains(recorder.Body.String(), "stake_registry_issued_reward_amount"))
}
