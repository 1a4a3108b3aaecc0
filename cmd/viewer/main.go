package main

import (
	"flag"
	"fmt"
	"image/png"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/annel0/voxel-rt/internal/atlas"
	"github.com/annel0/voxel-rt/internal/camera"
	"github.com/annel0/voxel-rt/internal/config"
	"github.com/annel0/voxel-rt/internal/engine"
	"github.com/annel0/voxel-rt/internal/logging"
	"github.com/annel0/voxel-rt/internal/metrics"
	"github.com/annel0/voxel-rt/internal/render"
	"github.com/annel0/voxel-rt/internal/storage"
	"github.com/annel0/voxel-rt/internal/vec"
	"github.com/annel0/voxel-rt/internal/world"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML-конфигурации")
	snapshotPath := flag.String("snapshot", "", "отрисовать кадр на CPU в PNG и выйти")
	flightSecs := flag.Float64("flight", 0, "длительность демонстрационного перелёта камеры")
	noStorage := flag.Bool("no-storage", false, "отключить персистентность правок")
	flag.Parse()

	if err := logging.InitLogger(); err != nil {
		log.Fatalf("Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseLogger()

	logging.LogInfo("🌍 Запуск воксельного вьюера...")

	// === КОНФИГУРАЦИЯ ===
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}
	if cfg == nil {
		cfg = config.Default()
		logging.LogInfo("Конфигурация не указана, используются значения по умолчанию")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Некорректная конфигурация: %v", err)
	}
	logging.LogInfo("📡 Мир: сид=%d, дистанция видимости=%d, бюджет=%d, атлас=%dx%dx%d",
		cfg.World.Seed, cfg.Streaming.ViewDistance, cfg.Streaming.Budget,
		cfg.Streaming.AtlasX, cfg.Streaming.AtlasY, cfg.Streaming.AtlasZ)

	// === ГЕНЕРАЦИЯ И ХРАНИЛИЩЕ ===
	terrain := world.NewTerrainGenerator(cfg.World.Seed, cfg.World.DirtDepth)
	gen := world.NewFeatureGenerator(terrain, world.NewTreeFeature(terrain, 0.02))

	var store *storage.WorldStorage
	if !*noStorage {
		store, err = storage.NewWorldStorage(cfg.Storage.DataPath, cfg.Storage.SnapshotThreshold)
		if err != nil {
			log.Fatalf("Ошибка открытия хранилища: %v", err)
		}
		defer store.Close()
	}

	// === АТЛАС И СТРИМИНГ ===
	atlasSize := vec.Vec3{X: cfg.Streaming.AtlasX, Y: cfg.Streaming.AtlasY, Z: cfg.Streaming.AtlasZ}
	chunkAtlas, err := atlas.NewChunkAtlas(atlasSize, cfg.Streaming.ViewDistance,
		atlas.NewMemoryBackend(atlasSize))
	if err != nil {
		log.Fatalf("Ошибка создания атласа: %v", err)
	}

	manager := engine.NewChunkManager(cfg, gen, chunkAtlas, store)

	// Камера стартует над поверхностью в начале координат
	startY := float32(terrain.SurfaceHeight(0, 0)) + 12
	manager.SetCamera(camera.Pose{
		Position: mgl32.Vec3{0.5, startY, 0.5},
		Pitch:    -0.4,
	})

	logging.LogInfo("⏳ Предзагрузка видимого куба...")
	if err := manager.PreloadView(); err != nil {
		log.Fatalf("Ошибка предзагрузки: %v", err)
	}

	// === МЕТРИКИ ===
	exporter := metrics.NewExporter(manager)
	exporter.StartHTTP(fmt.Sprintf(":%d", cfg.Metrics.GetMetricsPort()))
	defer exporter.Stop()

	if *snapshotPath != "" {
		renderSnapshot(manager, cfg, *snapshotPath)
		return
	}

	runLoop(manager, cfg, *flightSecs)
}

// renderSnapshot трассирует один кадр на CPU и сохраняет его в PNG
func renderSnapshot(manager *engine.ChunkManager, cfg *config.Config, path string) {
	tracer := render.NewTracer(manager)

	logging.LogInfo("🖼  Трассировка кадра %dx%d на CPU...", cfg.Render.Width, cfg.Render.Height)
	start := time.Now()
	img := tracer.RenderImage(manager.Camera(), cfg.Render.FOV, cfg.Render.Width, cfg.Render.Height)
	logging.LogInfo("Кадр готов за %v", time.Since(start))

	f, err := os.Create(path)
	if err != nil {
		log.Fatalf("Ошибка создания файла снимка: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		log.Fatalf("Ошибка записи PNG: %v", err)
	}
	logging.LogInfo("✅ Снимок сохранён в %s", path)
}

// runLoop крутит тики стриминга до сигнала завершения
func runLoop(manager *engine.ChunkManager, cfg *config.Config, flightSecs float64) {
	if flightSecs > 0 {
		// Демонстрационный перелёт по диагонали мира
		from := manager.Camera()
		to := from
		to.Position = from.Position.Add(mgl32.Vec3{
			float32(flightSecs) * 24, 0, float32(flightSecs) * 24,
		})
		manager.AnimateCamera(to, flightSecs, camera.EaseCubicInOut)
		logging.LogInfo("✈️  Перелёт камеры в %v за %.1f с", to.Position, flightSecs)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second / 60)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-sigCh:
			logging.LogInfo("🛑 Остановка вьюера")
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			manager.TickBudgeted(dt)
		}
	}
}
