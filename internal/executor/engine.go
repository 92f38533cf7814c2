package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"github.com/packagewjx/app-autoscaler/pkg/core"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"io/ioutil"
	"net/http"
	"strings"
	"time"
)

const authTokenHeader = "X-Auth-Token"

type scalingRequest struct {
	Instances int               `json:"instances"`
	Context   map[string]string `json:"context"`
}

type nameRequest struct {
	Id      string            `json:"id"`
	Name    string            `json:"name"`
	Context map[string]string `json:"context"`
}

// scalingEngine 通过REST接口调用平台的scaling engine
type scalingEngine struct {
	endpoint string
	secret   string
	client   *http.Client
	logger   *logrus.Entry
}

var _ Executor = &scalingEngine{}

func NewScalingEngine(endpoint, secret string, timeout time.Duration) Executor {
	return &scalingEngine{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		secret:   secret,
		client:   &http.Client{Timeout: timeout},
		logger:   logrus.WithField("component", "scaling-engine"),
	}
}

func (e *scalingEngine) Scale(ctx context.Context, binding *core.Binding, instances int) (int, error) {
	url := fmt.Sprintf("%s/resources/%s", e.endpoint, binding.ResourceId)
	e.logger.Debugf("向%s发送扩缩容请求，实例数为%d", url, instances)

	response, err := e.post(ctx, url, &scalingRequest{
		Instances: instances,
		Context:   binding.Context,
	})
	if err != nil {
		return 0, err
	}
	defer response.Body.Close()
	_, _ = ioutil.ReadAll(response.Body)

	return response.StatusCode, nil
}

func (e *scalingEngine) ResourceName(ctx context.Context, binding *core.Binding) (string, error) {
	url := fmt.Sprintf("%s/namefromid/%s", e.endpoint, binding.ResourceId)
	response, err := e.post(ctx, url, &nameRequest{
		Id:      binding.ResourceId,
		Context: binding.Context,
	})
	if err != nil {
		return "", err
	}
	defer response.Body.Close()

	body, err := ioutil.ReadAll(response.Body)
	if err != nil {
		return "", errors.Wrap(err, "读取时出现异常")
	}
	if response.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("查询资源%s的名称失败，状态码为%d", binding.ResourceId, response.StatusCode)
	}

	dest := &nameRequest{}
	if err = json.Unmarshal(body, dest); err != nil {
		return "", errors.Wrap(err, fmt.Sprintf("解析json异常，json为\n%s", string(body)))
	}
	return dest.Name, nil
}

func (e *scalingEngine) post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	marshal, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "序列化请求失败")
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(marshal))
	if err != nil {
		return nil, errors.Wrap(err, "创建请求失败")
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set(authTokenHeader, e.secret)

	response, err := e.client.Do(request)
	if err != nil {
		return nil, errors.Wrap(err, "请求时出现异常")
	}
	return response, nil
}
