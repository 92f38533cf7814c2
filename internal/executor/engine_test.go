package executor

import (
	"context"
	"encoding/json"
	"github.com/packagewjx/app-autoscaler/pkg/core"
	"github.com/stretchr/testify/assert"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testBinding() *core.Binding {
	return &core.Binding{
		Id:         "app-1",
		ResourceId: "resource-1",
		ScalerId:   "scaler-1",
		ServiceId:  "service-1",
		Context:    map[string]string{"platform": "test"},
	}
}

func TestScalingEngineScale(t *testing.T) {
	var received scalingRequest
	var token, path string
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		token = request.Header.Get(authTokenHeader)
		path = request.URL.Path
		body, _ := ioutil.ReadAll(request.Body)
		_ = json.Unmarshal(body, &received)
		writer.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	e := NewScalingEngine(server.URL+"/", "secret", time.Second)
	status, err := e.Scale(context.Background(), testBinding(), 7)
	if !assert.NoError(t, err) {
		assert.FailNow(t, "扩缩容请求失败")
	}
	assert.Equal(t, http.StatusAccepted, status)
	assert.Equal(t, "secret", token)
	assert.Equal(t, "/resources/resource-1", path)
	assert.Equal(t, 7, received.Instances)
	assert.Equal(t, "test", received.Context["platform"])
}

func TestScalingEngineErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		http.Error(writer, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	status, err := NewScalingEngine(server.URL, "", time.Second).Scale(context.Background(), testBinding(), 3)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, status)
}

func TestScalingEngineUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewScalingEngine(url, "", time.Second).Scale(context.Background(), testBinding(), 3)
	assert.Error(t, err)
}

func TestScalingEngineResourceName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/namefromid/resource-1" {
			http.NotFound(writer, request)
			return
		}
		req := &nameRequest{}
		body, _ := ioutil.ReadAll(request.Body)
		_ = json.Unmarshal(body, req)
		req.Name = "my-app"
		marshal, _ := json.Marshal(req)
		_, _ = writer.Write(marshal)
	}))
	defer server.Close()

	e := NewScalingEngine(server.URL, "secret", time.Second)
	name, err := e.ResourceName(context.Background(), testBinding())
	assert.NoError(t, err)
	assert.Equal(t, "my-app", name)

	binding := testBinding()
	binding.ResourceId = "unknown"
	_, err = e.ResourceName(context.Background(), binding)
	assert.Error(t, err)
}

func TestNewExecutor(t *testing.T) {
	_, err := NewExecutor(&Config{Kind: KindScalingEngine})
	assert.Error(t, err)

	_, err = NewExecutor(&Config{Kind: "mesos"})
	assert.Error(t, err)

	e, err := NewExecutor(&Config{Kind: KindScalingEngine, Endpoint: "http://localhost:8080"})
	assert.NoError(t, err)
	assert.IsType(t, &scalingEngine{}, e)
}
