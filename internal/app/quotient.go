package app

import "github.com/packagewjx/app-autoscaler/pkg/core"

// QuotientController 维护每实例请求数的目标值（quotient），并根据健康状态下的请求量在线学习
type QuotientController struct {
	Policy  core.ThresholdPolicy
	Enabled bool

	quotient    int64
	minQuotient int64
	history     *MetricWindow
}

// Value 请求数的归约值。mean策略以-1为初始累加值，为空时同样返回-1
func (q *QuotientController) Value() int64 {
	return q.history.Reduce(q.Policy, RequestsField, -1)
}

func (q *QuotientController) Quotient() int64 {
	return q.quotient
}

// SetQuotient 不低于minQuotient
func (q *QuotientController) SetQuotient(quotient int64) {
	if quotient < q.minQuotient {
		q.quotient = q.minQuotient
	} else {
		q.quotient = quotient
	}
}

func (q *QuotientController) MinQuotient() int64 {
	return q.minQuotient
}

// SetMinQuotient 若当前quotient低于新的下限，则一并提高
func (q *QuotientController) SetMinQuotient(minQuotient int64) {
	q.minQuotient = minQuotient
	if q.quotient < minQuotient {
		q.quotient = minQuotient
	}
}

func (q *QuotientController) Reset() {
	if q.minQuotient > 0 {
		q.quotient = q.minQuotient
	} else {
		q.quotient = 0
	}
}

// Learn 在应用健康时根据当前每实例请求数提高quotient，每次最多提高差值的一半。
// 实例数未知，或任一guard的当前值超过其上限时不学习。返回quotient是否改变
func (q *QuotientController) Learn(instances int, guards ...*ComponentPolicy) bool {
	if instances == NoMetricInstanceCount || instances <= 0 {
		return false
	}
	for _, guard := range guards {
		if guard.AboveUpperLimit() {
			return false
		}
	}

	perInstance := q.Value() / int64(instances)
	if perInstance > q.quotient {
		q.SetQuotient((perInstance + q.quotient) / 2)
		return true
	}
	return false
}
