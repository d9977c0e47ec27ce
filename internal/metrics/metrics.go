// Package metrics собирает Prometheus-метрики сервиса загрузки.
// Все методы безопасны для nil-получателя: без метрик компоненты работают как раньше.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics агрегирует все счётчики сервиса поверх собственного реестра.
type Metrics struct {
	reg *prometheus.Registry

	uploadsTotal    *prometheus.CounterVec
	uploadedBytes   prometheus.Counter
	downloadsTotal  *prometheus.CounterVec
	listTotal       *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New регистрирует метрики в новом реестре.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		reg: reg,
		uploadsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "filedrop_uploads_total",
				Help: "Upload attempts admitted by the storage controller, by result",
			},
			[]string{"result"},
		),
		uploadedBytes: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "filedrop_uploaded_bytes_total",
				Help: "Bytes written to the storage directory",
			},
		),
		downloadsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "filedrop_downloads_total",
				Help: "Download resolutions, by result",
			},
			[]string{"result"},
		),
		listTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "filedrop_list_total",
				Help: "Storage directory listings, by result",
			},
			[]string{"result"},
		),
		requestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "filedrop_http_request_duration_milliseconds",
				Help:    "Duration of HTTP requests in milliseconds",
				Buckets: []float64{1, 10, 100, 1000, 10000, 60000},
			},
			[]string{"method", "route", "status"},
		),
	}
}

// Registry возвращает реестр, например для тестов.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

// Handler отдаёт метрики в формате Prometheus.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func (m *Metrics) ObserveUpload(result string, bytes int64) {
	if m == nil {
		return
	}
	m.uploadsTotal.WithLabelValues(result).Inc()
	if bytes > 0 {
		m.uploadedBytes.Add(float64(bytes))
	}
}

func (m *Metrics) ObserveDownload(result string) {
	if m == nil {
		return
	}
	m.downloadsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveList(result string) {
	if m == nil {
		return
	}
	m.listTotal.WithLabelValues(result).Inc()
}

// ObserveRequest фиксирует длительность HTTP-запроса.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.
		WithLabelValues(method, route, strconv.Itoa(status)).
		Observe(float64(d.Microseconds()) / 1000)
}
