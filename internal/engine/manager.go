// Package engine управляет стримингом чанков вокруг камеры.
// Каждый тик менеджер сравнивает видимый куб чанков с содержимым
// атласа и загружает недостающие чанки в пределах бюджета, начиная
// с ближайших к камере.
package engine

import (
	"os"
	"sort"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/annel0/voxel-rt/internal/atlas"
	"github.com/annel0/voxel-rt/internal/camera"
	"github.com/annel0/voxel-rt/internal/config"
	"github.com/annel0/voxel-rt/internal/logging"
	"github.com/annel0/voxel-rt/internal/storage"
	"github.com/annel0/voxel-rt/internal/vec"
	"github.com/annel0/voxel-rt/internal/world"
)

// Доли траектории перелёта, в которых опрашивается будущая позиция
// камеры для предзагрузки
var prefetchFractions = [4]float64{0.25, 0.5, 0.75, 1.0}

// prefetchViewDistance — дистанция видимости вокруг точек траектории.
// Узкий куб: предзагрузка подстраховывает перелёт, а не заменяет
// обычный стриминг в конечной точке.
const prefetchViewDistance = 1

// maxCachedChunks ограничивает CPU-кэш вытесненных чанков. Генерация
// детерминирована, а правки переигрываются из хранилища, поэтому
// чанки за пределами лимита безопасно отбрасываются.
const maxCachedChunks = 256

// residentChunk — чанк, находящийся в памяти менеджера
type residentChunk struct {
	chunk     *world.Chunk
	collision *world.CollisionMap
	hasSlot   bool // Пустые чанки не занимают слот атласа
}

// ChunkManager стримит чанки мира в атлас вокруг камеры
type ChunkManager struct {
	viewDistance   int
	budget         int
	maxRayDistance float32

	generator world.ChunkGenerator
	atlas     *atlas.ChunkAtlas
	store     *storage.WorldStorage // nil, если персистентность выключена

	pose      camera.Pose
	animation *camera.Animation

	resident map[vec.Vec3]*residentChunk
	cache    map[vec.Vec3]*world.Chunk // Сгенерированные чанки, вытесненные из атласа

	lastStats TickStats
	lastDt    float64
	state     StreamingState

	loadedTotal  int64
	evictedTotal int64

	proc *process.Process // Дескриптор собственного процесса для RSS
}

// NewChunkManager создаёт менеджер стриминга.
// Хранилище опционально: nil отключает персистентность правок.
func NewChunkManager(cfg *config.Config, gen world.ChunkGenerator, a *atlas.ChunkAtlas, store *storage.WorldStorage) *ChunkManager {
	proc, _ := process.NewProcess(int32(os.Getpid()))
	return &ChunkManager{
		viewDistance:   cfg.Streaming.ViewDistance,
		budget:         cfg.Streaming.Budget,
		maxRayDistance: cfg.Render.MaxRayDistance,
		generator:      gen,
		atlas:          a,
		store:          store,
		resident:       make(map[vec.Vec3]*residentChunk),
		cache:          make(map[vec.Vec3]*world.Chunk),
		proc:           proc,
	}
}

// SetCamera мгновенно перемещает камеру, сбрасывая активный перелёт
func (cm *ChunkManager) SetCamera(pose camera.Pose) {
	cm.pose = pose
	cm.animation = nil
}

// Camera возвращает текущую позу камеры
func (cm *ChunkManager) Camera() camera.Pose {
	return cm.pose
}

// AnimateCamera начинает перелёт камеры из текущей позы
func (cm *ChunkManager) AnimateCamera(to camera.Pose, duration float64, easingName string) {
	cm.animation = camera.NewAnimation(cm.pose, to, duration, easingName)
}

// cameraChunk возвращает координаты чанка, в котором находится камера
func (cm *ChunkManager) cameraChunk() vec.Vec3 {
	return world.WorldToChunk(vec.FloorVec3(cm.pose.Position))
}

// ComputeVisibleSet возвращает координаты чанков видимого куба
// вокруг центра: (2*vd+1)^3 чанков
func ComputeVisibleSet(center vec.Vec3, viewDistance int) []vec.Vec3 {
	side := 2*viewDistance + 1
	out := make([]vec.Vec3, 0, side*side*side)
	for z := center.Z - viewDistance; z <= center.Z+viewDistance; z++ {
		for y := center.Y - viewDistance; y <= center.Y+viewDistance; y++ {
			for x := center.X - viewDistance; x <= center.X+viewDistance; x++ {
				out = append(out, vec.Vec3{X: x, Y: y, Z: z})
			}
		}
	}
	return out
}

// loadCandidate — претендент на загрузку в текущем тике
type loadCandidate struct {
	coords   vec.Vec3
	distSq   int
	prefetch bool // Предзагрузка по траектории идёт после основных кандидатов
}

// TickBudgeted выполняет один тик стриминга: продвигает анимацию
// камеры, вычисляет недостающие чанки и загружает ближайшие в
// пределах бюджета. Возвращает статистику тика.
func (cm *ChunkManager) TickBudgeted(dt float64) TickStats {
	if cm.animation != nil {
		cm.animation.Advance(dt)
		cm.pose = cm.animation.Current()
	}

	center := cm.cameraChunk()
	visible := ComputeVisibleSet(center, cm.viewDistance)

	candidates := make([]loadCandidate, 0, len(visible))
	seen := make(map[vec.Vec3]bool, len(visible))
	for _, c := range visible {
		seen[c] = true
		if _, ok := cm.resident[c]; !ok {
			candidates = append(candidates, loadCandidate{
				coords: c,
				distSq: c.DistanceSq(center),
			})
		}
	}

	// Предзагрузка вдоль траектории перелёта
	if cm.animation != nil && !cm.animation.Done() {
		for _, f := range prefetchFractions {
			p := cm.animation.AtFraction(f)
			pc := world.WorldToChunk(vec.FloorVec3(p.Position))
			for _, c := range ComputeVisibleSet(pc, prefetchViewDistance) {
				if seen[c] {
					continue
				}
				seen[c] = true
				if _, ok := cm.resident[c]; !ok {
					candidates = append(candidates, loadCandidate{
						coords:   c,
						distSq:   c.DistanceSq(pc),
						prefetch: true,
					})
				}
			}
		}
	}

	// Ближайшие к камере первыми, предзагрузка в хвосте.
	// При равных дистанциях порядок фиксируется лексикографически,
	// чтобы стриминг был детерминированным.
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.prefetch != b.prefetch {
			return !a.prefetch
		}
		if a.distSq != b.distSq {
			return a.distSq < b.distSq
		}
		return a.coords.Less(b.coords)
	})

	stats := TickStats{}
	for _, cand := range candidates {
		if stats.LoadedThisTick >= cm.budget {
			break
		}
		evictions, err := cm.loadChunk(cand.coords)
		if err != nil {
			logging.LogError("Загрузка чанка %v: %v", cand.coords, err)
			continue
		}
		stats.LoadedThisTick++
		stats.UnloadedThisTick += evictions
	}

	stats.PendingCount = len(candidates) - stats.LoadedThisTick
	if stats.PendingCount < 0 {
		stats.PendingCount = 0
	}
	stats.TotalVisible = len(visible)
	stats.TotalLoaded = len(cm.resident)

	// Кэшированные чанки: резидентные, но оставшиеся за пределами
	// куба видимости после движения камеры
	inVisible := 0
	for _, c := range visible {
		if _, ok := cm.resident[c]; ok {
			inVisible++
		}
	}
	stats.CachedCount = stats.TotalLoaded - inVisible

	cm.updateState(stats)
	cm.lastStats = stats
	cm.lastDt = dt

	if stats.LoadedThisTick > 0 || stats.UnloadedThisTick > 0 {
		logging.LogTickStats(stats.LoadedThisTick, stats.UnloadedThisTick,
			stats.PendingCount, stats.TotalLoaded)
	}
	return stats
}

// loadChunk делает чанк резидентным. Возвращает число вытеснений.
func (cm *ChunkManager) loadChunk(coords vec.Vec3) (int, error) {
	chunk, ok := cm.cache[coords]
	if ok {
		delete(cm.cache, coords)
	} else {
		chunk = cm.generator.Generate(coords)
		if cm.store != nil {
			if err := cm.store.ApplyTo(chunk); err != nil {
				return 0, err
			}
		}
	}

	if chunk.IsEmpty() {
		// Воздушный чанк резидентен без слота атласа
		cm.resident[coords] = &residentChunk{chunk: chunk}
		cm.loadedTotal++
		logging.LogChunkLoad(coords, -1, true)
		return 0, nil
	}

	evicted, wasEvicted, err := cm.atlas.Upload(chunk)
	if err != nil {
		return 0, err
	}

	evictions := 0
	if wasEvicted {
		// Прежний жилец слота выселяется из резидентов, но его
		// воксели остаются в кэше на случай возврата камеры
		if prev, ok := cm.resident[evicted]; ok {
			cm.cache[evicted] = prev.chunk
			delete(cm.resident, evicted)
			cm.trimCache()
		}
		cm.evictedTotal++
		evictions = 1
		logging.LogChunkEvict(evicted, coords, cm.atlas.SlotIndex(coords))
	}

	cm.resident[coords] = &residentChunk{
		chunk:     chunk,
		collision: world.NewCollisionMap(chunk),
		hasSlot:   true,
	}
	cm.loadedTotal++
	logging.LogChunkLoad(coords, cm.atlas.SlotIndex(coords), false)
	return evictions, nil
}

// trimCache держит кэш вытесненных чанков в пределах лимита,
// отбрасывая самые дальние от камеры
func (cm *ChunkManager) trimCache() {
	if len(cm.cache) <= maxCachedChunks {
		return
	}
	center := cm.cameraChunk()
	for len(cm.cache) > maxCachedChunks {
		var farthest vec.Vec3
		worst := -1
		for c := range cm.cache {
			if d := c.DistanceSq(center); d > worst {
				worst = d
				farthest = c
			}
		}
		delete(cm.cache, farthest)
	}
}

// PreloadView синхронно загружает весь видимый куб, игнорируя бюджет.
// Вызывается при старте, чтобы первый кадр не смотрел в пустоту.
func (cm *ChunkManager) PreloadView() error {
	center := cm.cameraChunk()
	visible := ComputeVisibleSet(center, cm.viewDistance)

	sort.Slice(visible, func(i, j int) bool {
		di, dj := visible[i].DistanceSq(center), visible[j].DistanceSq(center)
		if di != dj {
			return di < dj
		}
		return visible[i].Less(visible[j])
	})

	for _, c := range visible {
		if _, ok := cm.resident[c]; ok {
			continue
		}
		if _, err := cm.loadChunk(c); err != nil {
			return err
		}
	}
	cm.state = StateIdle
	return nil
}

// IsChunkLoaded проверяет, резидентен ли чанк
func (cm *ChunkManager) IsChunkLoaded(coords vec.Vec3) bool {
	_, ok := cm.resident[coords]
	return ok
}

// IsSolid проверяет твёрдость вокселя в мировых координатах.
// Запрос никогда не ошибается: нерезидентный чанк считается воздухом.
func (cm *ChunkManager) IsSolid(x, y, z int) bool {
	w := vec.Vec3{X: x, Y: y, Z: z}
	rc, ok := cm.resident[world.WorldToChunk(w)]
	if !ok || rc.collision == nil {
		return false
	}
	l := world.WorldToLocal(w)
	return rc.collision.IsSolid(l.X, l.Y, l.Z)
}

// MutateVoxel изменяет воксель мира. Чанк должен быть резидентным.
// Правка применяется к вокселям, карте коллизий, атласу и журналу
// хранилища.
func (cm *ChunkManager) MutateVoxel(x, y, z int, v world.Voxel) error {
	w := vec.Vec3{X: x, Y: y, Z: z}
	coords := world.WorldToChunk(w)
	rc, ok := cm.resident[coords]
	if !ok {
		if _, err := cm.loadChunk(coords); err != nil {
			return err
		}
		rc = cm.resident[coords]
	}

	l := world.WorldToLocal(w)
	rc.chunk.Set(l.X, l.Y, l.Z, v)
	rc.collision = world.NewCollisionMap(rc.chunk)

	if rc.chunk.IsEmpty() {
		// Правка могла удалить последний воксель
		if rc.hasSlot {
			if err := cm.atlas.Release(coords); err != nil {
				return err
			}
			rc.hasSlot = false
		}
	} else {
		if _, _, err := cm.atlas.Upload(rc.chunk); err != nil {
			return err
		}
		rc.hasSlot = true
	}

	if cm.store != nil {
		return cm.store.RecordMutation(rc.chunk, storage.VoxelMutation{
			X: l.X, Y: l.Y, Z: l.Z, Value: uint32(v),
		})
	}
	return nil
}

// GridInfo описывает видимый куб для шейдера
type GridInfo struct {
	Origin         vec.Vec3 // Минимальный угол видимого куба в чанках
	Size           vec.Vec3 // Размер куба в чанках
	AtlasSlots     vec.Vec3 // Размер атласа в слотах
	MaxRayDistance float32
}

// VisibleGrid возвращает описание видимого куба вокруг камеры.
// Куб покрывает только видимый набор: чанки, оставшиеся в атласе за
// его пределами, лучу недоступны.
func (cm *ChunkManager) VisibleGrid() GridInfo {
	center := cm.cameraChunk()
	side := 2*cm.viewDistance + 1
	return GridInfo{
		Origin: vec.Vec3{
			X: center.X - cm.viewDistance,
			Y: center.Y - cm.viewDistance,
			Z: center.Z - cm.viewDistance,
		},
		Size:           vec.Vec3{X: side, Y: side, Z: side},
		AtlasSlots:     cm.atlas.Size(),
		MaxRayDistance: cm.maxRayDistance,
	}
}

// Atlas возвращает атлас чанков менеджера
func (cm *ChunkManager) Atlas() *atlas.ChunkAtlas {
	return cm.atlas
}

// VoxelAt возвращает воксель в мировых координатах.
// Нерезидентные чанки читаются как воздух.
func (cm *ChunkManager) VoxelAt(x, y, z int) world.Voxel {
	w := vec.Vec3{X: x, Y: y, Z: z}
	rc, ok := cm.resident[world.WorldToChunk(w)]
	if !ok {
		return 0
	}
	l := world.WorldToLocal(w)
	return rc.chunk.Get(l.X, l.Y, l.Z)
}

// ChunkOccupancy возвращает маску занятости подобластей чанка.
// Воздушные и нерезидентные чанки дают нулевую маску.
func (cm *ChunkManager) ChunkOccupancy(coords vec.Vec3) uint64 {
	rc, ok := cm.resident[coords]
	if !ok || !rc.hasSlot {
		return 0
	}
	return cm.atlas.OccupancyAt(coords)
}
