package server

import (
	"encoding/json"
	"fmt"
	"github.com/packagewjx/app-autoscaler/pkg/core"
	"github.com/packagewjx/app-autoscaler/pkg/server"
	"github.com/pkg/errors"
	"io/ioutil"
	"net/http"
	"regexp"
)

const idPattern = "[A-Za-z0-9-]+"

var (
	bindingPathPattern = regexp.MustCompile(fmt.Sprintf("^/bindings/(%s)$", idPattern))
	servicePathPattern = regexp.MustCompile(fmt.Sprintf("^/bindings/serviceInstance/(%s)$", idPattern))
	appPathPattern     = regexp.MustCompile(fmt.Sprintf("^/apps/(%s)(/quotient/reset|/learning/reset|/name/update)?$", idPattern))
)

// statusCode 将错误映射为HTTP状态码
func statusCode(err error) int {
	switch {
	case core.IsValidationError(err), errors.Is(err, server.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, server.ErrAppNotFound):
		return http.StatusNotFound
	case errors.Is(err, server.ErrBindingNotFound):
		return http.StatusGone
	case errors.Is(err, server.ErrBindingConflict):
		return http.StatusConflict
	case errors.Is(err, server.ErrInterrupted):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(writer http.ResponseWriter, err error) {
	writeJson(writer, statusCode(err), &errorResponse{Error: err.Error()})
}

func writeJson(writer http.ResponseWriter, status int, body interface{}) {
	marshal, err := json.Marshal(body)
	if err != nil {
		http.Error(writer, err.Error(), http.StatusInternalServerError)
		return
	}

	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	_, _ = writer.Write(marshal)
}

func readJson(request *http.Request, dest interface{}) error {
	body, err := ioutil.ReadAll(request.Body)
	if err != nil {
		return errors.Wrap(err, "读取请求体失败")
	}
	if err = json.Unmarshal(body, dest); err != nil {
		return errors.Wrap(server.ErrBadRequest, fmt.Sprintf("解析json异常：%v", err))
	}
	return nil
}

func (s *serverImpl) buildServer() *http.Server {
	return &http.Server{
		Addr:    fmt.Sprintf(":%d", s.config.Port),
		Handler: s.buildHandler(),
	}
}

func (s *serverImpl) buildHandler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/bindings", func(writer http.ResponseWriter, request *http.Request) {
		if request.Method != http.MethodPost {
			http.Error(writer, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		binding := &core.Binding{}
		if err := readJson(request, binding); err != nil {
			writeError(writer, err)
			return
		}
		bp, created, err := s.Bind(request.Context(), binding)
		if err != nil {
			writeError(writer, err)
			return
		}
		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		writeJson(writer, status, bp)
	})

	mux.HandleFunc("/bindings/", func(writer http.ResponseWriter, request *http.Request) {
		if subMatch := servicePathPattern.FindStringSubmatch(request.URL.Path); subMatch != nil {
			if request.Method != http.MethodGet {
				http.Error(writer, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			bindings, err := s.BindingsOfService(request.Context(), subMatch[1])
			if err != nil {
				writeError(writer, err)
				return
			}
			writeJson(writer, http.StatusOK, map[string][]*core.Binding{"bindings": bindings})
			return
		}

		subMatch := bindingPathPattern.FindStringSubmatch(request.URL.Path)
		if subMatch == nil {
			http.NotFound(writer, request)
			return
		}
		if request.Method != http.MethodDelete {
			http.Error(writer, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := s.Unbind(request.Context(), subMatch[1]); err != nil {
			writeError(writer, err)
			return
		}
		writer.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/apps/", func(writer http.ResponseWriter, request *http.Request) {
		subMatch := appPathPattern.FindStringSubmatch(request.URL.Path)
		if subMatch == nil {
			http.NotFound(writer, request)
			return
		}
		id, action := subMatch[1], subMatch[2]

		var bp *core.Blueprint
		var err error
		switch {
		case action == "" && request.Method == http.MethodGet:
			bp, err = s.GetApplication(request.Context(), id)
		case action == "" && (request.Method == http.MethodPatch || request.Method == http.MethodPost):
			update := &server.UpdateRequest{}
			if err = readJson(request, update); err == nil {
				bp, err = s.UpdateApplication(request.Context(), id, update)
			}
		case action == "/quotient/reset" && request.Method == http.MethodPost:
			bp, err = s.ResetQuotient(request.Context(), id)
		case action == "/learning/reset" && request.Method == http.MethodPost:
			bp, err = s.ResetLearningStartTime(request.Context(), id)
		case action == "/name/update" && request.Method == http.MethodPost:
			bp, err = s.UpdateResourceName(request.Context(), id)
		default:
			http.Error(writer, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err != nil {
			writeError(writer, err)
			return
		}
		writeJson(writer, http.StatusOK, bp)
	})

	mux.HandleFunc("/metrics/container", s.ingestHandler(func(request *http.Request) error {
		metric := &core.ContainerMetric{}
		if err := readJson(request, metric); err != nil {
			return err
		}
		return s.AddContainerMetric(request.Context(), metric)
	}))

	mux.HandleFunc("/metrics/http", s.ingestHandler(func(request *http.Request) error {
		metric := &core.HttpMetric{}
		if err := readJson(request, metric); err != nil {
			return err
		}
		return s.AddHttpMetric(request.Context(), metric)
	}))

	mux.HandleFunc("/predictions", s.ingestHandler(func(request *http.Request) error {
		prediction := &core.Prediction{}
		if err := readJson(request, prediction); err != nil {
			return err
		}
		return s.AddPrediction(request.Context(), prediction)
	}))

	mux.HandleFunc("/trigger", func(writer http.ResponseWriter, request *http.Request) {
		s.Trigger()
		_, _ = writer.Write([]byte("OK"))
	})

	mux.Handle("/metrics", s.prometheus.Handler())

	mux.HandleFunc("/healthz", func(writer http.ResponseWriter, request *http.Request) {
		_, _ = writer.Write([]byte("OK"))
	})

	return mux
}

func (s *serverImpl) ingestHandler(f func(request *http.Request) error) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		if request.Method != http.MethodPost {
			http.Error(writer, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := f(request); err != nil {
			writeError(writer, err)
			return
		}
		writer.WriteHeader(http.StatusAccepted)
	}
}
