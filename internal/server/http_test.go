package server

import (
	"bytes"
	"encoding/json"
	"github.com/packagewjx/app-autoscaler/pkg/core"
	"github.com/stretchr/testify/assert"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func doRequest(t *testing.T, method, url string, body interface{}) (int, []byte) {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		marshal, _ := json.Marshal(b)
		reader = bytes.NewReader(marshal)
	}
	request, _ := http.NewRequest(method, url, reader)
	response, err := http.DefaultClient.Do(request)
	if !assert.NoError(t, err) {
		assert.FailNow(t, "请求失败")
	}
	defer response.Body.Close()
	content, _ := ioutil.ReadAll(response.Body)
	return response.StatusCode, content
}

func TestBindingHandlers(t *testing.T) {
	s := newTestServer(t, newTestDao(t), &fakeExecutor{})
	server := httptest.NewServer(s.buildHandler())
	defer server.Close()

	status, body := doRequest(t, http.MethodPost, server.URL+"/bindings", testBinding("app-1", "resource-1"))
	assert.Equal(t, http.StatusCreated, status)
	bp := &core.Blueprint{}
	assert.NoError(t, json.Unmarshal(body, bp))
	assert.Equal(t, "app-1", bp.Binding.Id)

	status, _ = doRequest(t, http.MethodPost, server.URL+"/bindings", testBinding("app-1", "resource-1"))
	assert.Equal(t, http.StatusOK, status)

	status, _ = doRequest(t, http.MethodPost, server.URL+"/bindings", testBinding("app-1", "resource-9"))
	assert.Equal(t, http.StatusConflict, status)

	status, _ = doRequest(t, http.MethodPost, server.URL+"/bindings", "{broken")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doRequest(t, http.MethodPost, server.URL+"/bindings", &core.Binding{Id: "app-2"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = doRequest(t, http.MethodGet, server.URL+"/bindings/serviceInstance/service-1", nil)
	assert.Equal(t, http.StatusOK, status)
	bindings := map[string][]*core.Binding{}
	assert.NoError(t, json.Unmarshal(body, &bindings))
	assert.Len(t, bindings["bindings"], 1)

	status, _ = doRequest(t, http.MethodDelete, server.URL+"/bindings/app-1", nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = doRequest(t, http.MethodDelete, server.URL+"/bindings/app-1", nil)
	assert.Equal(t, http.StatusGone, status)
}

func TestAppHandlers(t *testing.T) {
	s := newTestServer(t, newTestDao(t), &fakeExecutor{name: "renamed"})
	server := httptest.NewServer(s.buildHandler())
	defer server.Close()
	doRequest(t, http.MethodPost, server.URL+"/bindings", testBinding("app-1", "resource-1"))

	status, _ := doRequest(t, http.MethodGet, server.URL+"/apps/app-1", nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = doRequest(t, http.MethodGet, server.URL+"/apps/unknown", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body := doRequest(t, http.MethodPatch, server.URL+"/apps/app-1", `{"maxInstances": 25}`)
	assert.Equal(t, http.StatusOK, status)
	bp := &core.Blueprint{}
	assert.NoError(t, json.Unmarshal(body, bp))
	assert.Equal(t, 25, bp.MaxInstances)

	status, _ = doRequest(t, http.MethodPatch, server.URL+"/apps/app-1", `{"cpuThresholdPolicy": "median"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doRequest(t, http.MethodPost, server.URL+"/apps/app-1/quotient/reset", nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = doRequest(t, http.MethodPost, server.URL+"/apps/app-1/learning/reset", nil)
	assert.Equal(t, http.StatusOK, status)
	status, body = doRequest(t, http.MethodPost, server.URL+"/apps/app-1/name/update", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, strings.Contains(string(body), "renamed"))

	status, _ = doRequest(t, http.MethodDelete, server.URL+"/apps/app-1", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, status)
}

func TestIngestHandlers(t *testing.T) {
	s := newTestServer(t, newTestDao(t), &fakeExecutor{})
	server := httptest.NewServer(s.buildHandler())
	defer server.Close()
	doRequest(t, http.MethodPost, server.URL+"/bindings", testBinding("app-1", "resource-1"))

	status, _ := doRequest(t, http.MethodPost, server.URL+"/metrics/container",
		&core.ContainerMetric{Timestamp: testNow, ResourceId: "resource-1", Cpu: 10, Ram: 10})
	assert.Equal(t, http.StatusAccepted, status)
	status, _ = doRequest(t, http.MethodPost, server.URL+"/metrics/http",
		&core.HttpMetric{Timestamp: testNow, ResourceId: "resource-1", Requests: 10})
	assert.Equal(t, http.StatusAccepted, status)
	status, _ = doRequest(t, http.MethodPost, server.URL+"/predictions",
		&core.Prediction{AppId: "app-1", PredictorId: "p", InstanceCount: 2, IntervalStart: 1, IntervalEnd: 2})
	assert.Equal(t, http.StatusAccepted, status)
	status, _ = doRequest(t, http.MethodPost, server.URL+"/metrics/http", "[]")
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = doRequest(t, http.MethodGet, server.URL+"/metrics/http", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, status)

	a := s.apps.get("app-1")
	assert.Len(t, a.ContainerMetrics(), 1)
	assert.Len(t, a.HttpMetrics(), 1)
	assert.NotNil(t, a.Prediction())
}

func TestOperationalHandlers(t *testing.T) {
	s := newTestServer(t, newTestDao(t), &fakeExecutor{})
	server := httptest.NewServer(s.buildHandler())
	defer server.Close()

	status, _ := doRequest(t, http.MethodPost, server.URL+"/trigger", nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = doRequest(t, http.MethodGet, server.URL+"/healthz", nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = doRequest(t, http.MethodGet, server.URL+"/metrics", nil)
	assert.Equal(t, http.StatusOK, status)
}
