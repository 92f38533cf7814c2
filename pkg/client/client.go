package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"github.com/packagewjx/app-autoscaler/pkg/core"
	"github.com/packagewjx/app-autoscaler/pkg/server"
	"github.com/pkg/errors"
	"io/ioutil"
	"net/http"
	"strings"
)

const DefaultApiHostBaseUrl = "http://app-autoscaler.app-autoscaler:2000"

func NewApiClient(baseUrl string) server.API {
	if baseUrl == "" {
		baseUrl = DefaultApiHostBaseUrl
	}
	return &apiClient{
		baseUrl: strings.TrimSuffix(baseUrl, "/"),
		client:  http.DefaultClient,
	}
}

var _ server.API = &apiClient{}

type apiClient struct {
	baseUrl string
	client  *http.Client
}

type errorResponse struct {
	Error string `json:"error"`
}

// errorOf 将服务端返回的状态码还原为对应的错误
func errorOf(status int, body []byte) error {
	message := string(body)
	resp := &errorResponse{}
	if err := json.Unmarshal(body, resp); err == nil && resp.Error != "" {
		message = resp.Error
	}

	switch status {
	case http.StatusBadRequest:
		return errors.Wrap(server.ErrBadRequest, message)
	case http.StatusNotFound:
		return errors.Wrap(server.ErrAppNotFound, message)
	case http.StatusGone:
		return errors.Wrap(server.ErrBindingNotFound, message)
	case http.StatusConflict:
		return errors.Wrap(server.ErrBindingConflict, message)
	case http.StatusServiceUnavailable:
		return errors.Wrap(server.ErrInterrupted, message)
	default:
		return fmt.Errorf("服务器返回状态码%d：%s", status, message)
	}
}

// do 发送请求，body不为nil时序列化为json。返回状态码，状态码不小于400时返回错误
func (a *apiClient) do(ctx context.Context, method, path string, body, dest interface{}) (int, error) {
	var reader *bytes.Reader
	if body != nil {
		marshal, err := json.Marshal(body)
		if err != nil {
			return 0, errors.Wrap(err, "序列化请求体出错")
		}
		reader = bytes.NewReader(marshal)
	} else {
		reader = bytes.NewReader(nil)
	}

	request, err := http.NewRequestWithContext(ctx, method, a.baseUrl+path, reader)
	if err != nil {
		return 0, errors.Wrap(err, "创建请求出错")
	}
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	response, err := a.client.Do(request)
	if err != nil {
		return 0, errors.Wrap(err, "请求时出现异常")
	}
	defer response.Body.Close()

	content, err := ioutil.ReadAll(response.Body)
	if err != nil {
		return response.StatusCode, errors.Wrap(err, "读取时出现异常")
	}
	if response.StatusCode >= http.StatusBadRequest {
		return response.StatusCode, errorOf(response.StatusCode, content)
	}

	if dest != nil {
		if err = json.Unmarshal(content, dest); err != nil {
			return response.StatusCode, errors.Wrap(err, fmt.Sprintf("解析json异常，json为\n%s", string(content)))
		}
	}
	return response.StatusCode, nil
}

func (a *apiClient) blueprint(ctx context.Context, method, path string, body interface{}) (*core.Blueprint, error) {
	bp := &core.Blueprint{}
	if _, err := a.do(ctx, method, path, body, bp); err != nil {
		return nil, err
	}
	return bp, nil
}

func (a *apiClient) Bind(ctx context.Context, binding *core.Binding) (*core.Blueprint, bool, error) {
	bp := &core.Blueprint{}
	status, err := a.do(ctx, http.MethodPost, "/bindings", binding, bp)
	if err != nil {
		return nil, false, err
	}
	return bp, status == http.StatusCreated, nil
}

func (a *apiClient) Unbind(ctx context.Context, bindingId string) error {
	_, err := a.do(ctx, http.MethodDelete, "/bindings/"+bindingId, nil, nil)
	return err
}

func (a *apiClient) BindingsOfService(ctx context.Context, serviceId string) ([]*core.Binding, error) {
	dest := make(map[string][]*core.Binding)
	if _, err := a.do(ctx, http.MethodGet, "/bindings/serviceInstance/"+serviceId, nil, &dest); err != nil {
		return nil, err
	}
	return dest["bindings"], nil
}

func (a *apiClient) GetApplication(ctx context.Context, bindingId string) (*core.Blueprint, error) {
	return a.blueprint(ctx, http.MethodGet, "/apps/"+bindingId, nil)
}

func (a *apiClient) UpdateApplication(ctx context.Context, bindingId string, request *server.UpdateRequest) (*core.Blueprint, error) {
	return a.blueprint(ctx, http.MethodPatch, "/apps/"+bindingId, request)
}

func (a *apiClient) ResetQuotient(ctx context.Context, bindingId string) (*core.Blueprint, error) {
	return a.blueprint(ctx, http.MethodPost, "/apps/"+bindingId+"/quotient/reset", nil)
}

func (a *apiClient) ResetLearningStartTime(ctx context.Context, bindingId string) (*core.Blueprint, error) {
	return a.blueprint(ctx, http.MethodPost, "/apps/"+bindingId+"/learning/reset", nil)
}

func (a *apiClient) UpdateResourceName(ctx context.Context, bindingId string) (*core.Blueprint, error) {
	return a.blueprint(ctx, http.MethodPost, "/apps/"+bindingId+"/name/update", nil)
}

func (a *apiClient) AddContainerMetric(ctx context.Context, metric *core.ContainerMetric) error {
	_, err := a.do(ctx, http.MethodPost, "/metrics/container", metric, nil)
	return err
}

func (a *apiClient) AddHttpMetric(ctx context.Context, metric *core.HttpMetric) error {
	_, err := a.do(ctx, http.MethodPost, "/metrics/http", metric, nil)
	return err
}

func (a *apiClient) AddPrediction(ctx context.Context, prediction *core.Prediction) error {
	_, err := a.do(ctx, http.MethodPost, "/predictions", prediction, nil)
	return err
}

func (a *apiClient) Trigger() {
	_, _ = a.do(context.Background(), http.MethodPost, "/trigger", nil, nil)
}
