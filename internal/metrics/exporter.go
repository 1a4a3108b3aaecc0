// Package metrics экспортирует показатели стриминга в Prometheus
package metrics

import (
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/annel0/voxel-rt/internal/logging"
)

// Stats — снимок счётчиков стриминга чанков
type Stats struct {
	LoadedTotal  int64 // Всего загружено чанков с запуска
	EvictedTotal int64 // Всего вытеснено чанков с запуска
	Pending      int   // Чанков в очереди загрузки
	Loaded       int   // Чанков в атласе сейчас
	Cached       int   // Резидентных чанков вне куба видимости
	State        int   // Состояние стриминга: 0 idle, 1 loading, 2 stalled
}

// StatsProvider отдаёт текущие показатели стриминга.
// Экспортер не знает о менеджере чанков напрямую и опирается только
// на этот интерфейс.
type StatsProvider interface {
	Metrics() Stats
}

// Exporter управляет HTTP-эндпоинтом Prometheus и периодически обновляет метрики
type Exporter struct {
	provider StatsProvider
	quit     chan struct{}
	done     chan struct{}

	loadedTotal   prometheus.Counter
	evictedTotal  prometheus.Counter
	pending       prometheus.Gauge
	loaded        prometheus.Gauge
	cached        prometheus.Gauge
	streamingStat prometheus.Gauge
	rssBytes      prometheus.Gauge
}

// NewExporter создаёт экспортер, но не запускает HTTP-сервер
func NewExporter(provider StatsProvider) *Exporter {
	e := &Exporter{
		provider: provider,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		loadedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxelrt",
			Name:      "chunks_loaded_total",
			Help:      "Общее число чанков, загруженных в атлас.",
		}),
		evictedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxelrt",
			Name:      "chunks_evicted_total",
			Help:      "Общее число чанков, вытесненных из атласа.",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxelrt",
			Name:      "chunks_pending",
			Help:      "Чанков, ожидающих загрузки в очереди стриминга.",
		}),
		loaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxelrt",
			Name:      "chunks_loaded",
			Help:      "Чанков, находящихся в атласе в данный момент.",
		}),
		cached: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxelrt",
			Name:      "chunks_cached",
			Help:      "Резидентных чанков за пределами куба видимости.",
		}),
		streamingStat: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxelrt",
			Name:      "streaming_state",
			Help:      "Состояние стриминга: 0 покой, 1 загрузка, 2 захлебнулся.",
		}),
		rssBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxelrt",
			Name:      "process_resident_bytes",
			Help:      "Резидентная память процесса по данным ОС.",
		}),
	}

	prometheus.MustRegister(e.loadedTotal, e.evictedTotal, e.pending,
		e.loaded, e.cached, e.streamingStat, e.rssBytes)
	return e
}

// StartHTTP запускает эндпоинт /metrics на указанном адресе (например, ":2112").
// Метод неблокирующий, сервер живёт в отдельной горутине.
func (e *Exporter) StartHTTP(addr string) {
	go func() {
		logging.LogInfo("Prometheus /metrics доступен по адресу %s", addr)
		if err := http.ListenAndServe(addr, promhttp.Handler()); err != nil {
			logging.LogError("Ошибка Prometheus HTTP сервера: %v", err)
		}
	}()
	go e.loop()
}

// Stop останавливает обновление метрик
func (e *Exporter) Stop() {
	close(e.quit)
	<-e.done
}

func (e *Exporter) loop() {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()
	defer close(e.done)

	proc, procErr := process.NewProcess(int32(os.Getpid()))

	// Counter обновляется дельтой относительно прошлого снимка
	var prev Stats

	for {
		select {
		case <-ticker.C:
			stats := e.provider.Metrics()

			if d := stats.LoadedTotal - prev.LoadedTotal; d > 0 {
				e.loadedTotal.Add(float64(d))
			}
			if d := stats.EvictedTotal - prev.EvictedTotal; d > 0 {
				e.evictedTotal.Add(float64(d))
			}

			e.pending.Set(float64(stats.Pending))
			e.loaded.Set(float64(stats.Loaded))
			e.cached.Set(float64(stats.Cached))
			e.streamingStat.Set(float64(stats.State))

			if procErr == nil {
				if mem, err := proc.MemoryInfo(); err == nil {
					e.rssBytes.Set(float64(mem.RSS))
				}
			}

			prev = stats
		case <-e.quit:
			return
		}
	}
}
