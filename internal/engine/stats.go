package engine

import (
	"github.com/annel0/voxel-rt/internal/metrics"
)

// StreamingState — агрегированное состояние стриминга
type StreamingState int

const (
	// StateIdle — весь видимый куб загружен, очередь пуста
	StateIdle StreamingState = iota
	// StateLoading — очередь непуста и за тик что-то загрузилось
	StateLoading
	// StateStalled — очередь непуста, но тик не загрузил ни одного
	// чанка: бюджет исчерпан или загрузки падают с ошибками
	StateStalled
)

func (s StreamingState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateStalled:
		return "stalled"
	default:
		return "unknown"
	}
}

// TickStats — статистика одного тика стриминга
type TickStats struct {
	LoadedThisTick   int // Чанков загружено за тик
	UnloadedThisTick int // Чанков вытеснено за тик
	PendingCount     int // Чанков осталось в очереди
	TotalLoaded      int // Резидентных чанков всего
	TotalVisible     int // Чанков в видимом кубе
	CachedCount      int // Резидентных чанков вне куба видимости
}

// updateState выводит состояние стриминга из итогов тика:
// пустая очередь — Idle, очередь с прогрессом — Loading,
// очередь без единой загрузки — Stalled.
func (cm *ChunkManager) updateState(stats TickStats) {
	switch {
	case stats.PendingCount == 0:
		cm.state = StateIdle
	case stats.LoadedThisTick > 0:
		cm.state = StateLoading
	default:
		cm.state = StateStalled
	}
}

// State возвращает текущее состояние стриминга
func (cm *ChunkManager) State() StreamingState {
	return cm.state
}

// LastStats возвращает статистику последнего тика
func (cm *ChunkManager) LastStats() TickStats {
	return cm.lastStats
}

// Metrics реализует metrics.StatsProvider
func (cm *ChunkManager) Metrics() metrics.Stats {
	return metrics.Stats{
		LoadedTotal:  cm.loadedTotal,
		EvictedTotal: cm.evictedTotal,
		Pending:      cm.lastStats.PendingCount,
		Loaded:       cm.atlas.OccupiedSlots(),
		Cached:       cm.lastStats.CachedCount,
		State:        int(cm.state),
	}
}

// Смещения полей вектора CollectFrameStats
const (
	FrameStatFrameTime   = 0  // Длительность последнего тика, сек
	FrameStatCameraX     = 1  // Позиция камеры (3 компоненты)
	FrameStatLoaded      = 4  // Резидентных чанков всего
	FrameStatPending     = 5  // Чанков в очереди
	FrameStatCached      = 6  // Резидентных чанков вне куба видимости
	FrameStatState       = 7  // Состояние стриминга
	FrameStatBudget      = 8  // Бюджет загрузок за тик
	FrameStatChunkX      = 9  // Чанк камеры (3 компоненты)
	FrameStatLoadedTick  = 12 // Загружено за последний тик
	FrameStatEvictedTick = 13 // Вытеснено за последний тик
	FrameStatVisible     = 14 // Чанков в видимом кубе
	FrameStatRSSMB       = 15 // Резидентная память процесса, МБ
)

// CollectFrameStats собирает вектор показателей кадра фиксированной
// длины для отладочного оверлея: время кадра, поза камеры, счётчики
// стриминга, состояние, бюджет и чанк камеры.
func (cm *ChunkManager) CollectFrameStats() [16]float32 {
	var out [16]float32
	out[FrameStatFrameTime] = float32(cm.lastDt)
	out[FrameStatCameraX+0] = cm.pose.Position.X()
	out[FrameStatCameraX+1] = cm.pose.Position.Y()
	out[FrameStatCameraX+2] = cm.pose.Position.Z()
	out[FrameStatLoaded] = float32(cm.lastStats.TotalLoaded)
	out[FrameStatPending] = float32(cm.lastStats.PendingCount)
	out[FrameStatCached] = float32(cm.lastStats.CachedCount)
	out[FrameStatState] = float32(cm.state)
	out[FrameStatBudget] = float32(cm.budget)

	cc := cm.cameraChunk()
	out[FrameStatChunkX+0] = float32(cc.X)
	out[FrameStatChunkX+1] = float32(cc.Y)
	out[FrameStatChunkX+2] = float32(cc.Z)

	out[FrameStatLoadedTick] = float32(cm.lastStats.LoadedThisTick)
	out[FrameStatEvictedTick] = float32(cm.lastStats.UnloadedThisTick)
	out[FrameStatVisible] = float32(cm.lastStats.TotalVisible)

	if cm.proc != nil {
		if mem, err := cm.proc.MemoryInfo(); err == nil {
			out[FrameStatRSSMB] = float32(mem.RSS) / (1024 * 1024)
		}
	}
	return out
}
