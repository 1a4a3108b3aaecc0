package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации движка
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Streaming StreamingConfig `yaml:"streaming"`
	Render    RenderConfig    `yaml:"render"`
	Storage   StorageConfig   `yaml:"storage"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// WorldConfig описывает параметры генерации мира
type WorldConfig struct {
	Seed      int64 `yaml:"seed"`
	DirtDepth int   `yaml:"dirt_depth"` // Толщина слоя земли под поверхностью
}

// StreamingConfig описывает параметры стриминга чанков
type StreamingConfig struct {
	ViewDistance int `yaml:"view_distance"` // Радиус видимого куба в чанках
	Budget       int `yaml:"budget"`        // Максимум загрузок чанков за тик
	AtlasX       int `yaml:"atlas_x"`       // Размеры атласа в слотах по осям
	AtlasY       int `yaml:"atlas_y"`
	AtlasZ       int `yaml:"atlas_z"`
}

// RenderConfig описывает параметры трассировки
type RenderConfig struct {
	Width          int     `yaml:"width"`
	Height         int     `yaml:"height"`
	FOV            float32 `yaml:"fov"` // Вертикальный угол обзора в градусах
	MaxRayDistance float32 `yaml:"max_ray_distance"`
}

// StorageConfig описывает параметры хранилища изменений вокселей
type StorageConfig struct {
	DataPath          string `yaml:"data_path"`
	SnapshotThreshold int    `yaml:"snapshot_threshold"` // Число дельт, после которого чанк сохраняется снапшотом
}

// MetricsConfig описывает параметры экспорта метрик
type MetricsConfig struct {
	Port int `yaml:"port"`
}

// GetMetricsPort возвращает порт метрик с приоритетом: config -> env -> default
func (m *MetricsConfig) GetMetricsPort() int {
	if m.Port > 0 {
		return m.Port
	}

	if envVal := os.Getenv("VOXELRT_METRICS_PORT"); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return 2112
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		World: WorldConfig{
			Seed:      42,
			DirtDepth: 3,
		},
		Streaming: StreamingConfig{
			ViewDistance: 3,
			Budget:       8,
			AtlasX:       8,
			AtlasY:       8,
			AtlasZ:       8,
		},
		Render: RenderConfig{
			Width:          1280,
			Height:         720,
			FOV:            70,
			MaxRayDistance: 256,
		},
		Storage: StorageConfig{
			DataPath:          "data",
			SnapshotThreshold: 64,
		},
	}
}

// Load читает YAML файл конфигурации.
// Если path == "", пытается прочитать из ENV VOXELRT_CONFIG или возвращает nil, nil.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("VOXELRT_CONFIG")
		if path == "" {
			return nil, nil // конфиг не задан — использовать дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate проверяет инварианты конфигурации.
// Нарушение — ошибка программиста, безопасного фолбэка в рантайме нет,
// поэтому валидация выполняется один раз при старте (fail fast).
func (c *Config) Validate() error {
	if c.Streaming.ViewDistance < 1 {
		return fmt.Errorf("view_distance должен быть >= 1, задано %d", c.Streaming.ViewDistance)
	}
	if c.Streaming.Budget < 1 {
		return fmt.Errorf("budget должен быть >= 1, задано %d", c.Streaming.Budget)
	}

	// Атлас по каждой оси обязан вмещать видимый куб, иначе слоты видимых
	// чанков начнут коллидировать между собой в пределах одного тика.
	need := 2*c.Streaming.ViewDistance + 1
	if c.Streaming.AtlasX < need || c.Streaming.AtlasY < need || c.Streaming.AtlasZ < need {
		return fmt.Errorf("атлас %dx%dx%d меньше видимого куба %d³ (view_distance=%d)",
			c.Streaming.AtlasX, c.Streaming.AtlasY, c.Streaming.AtlasZ, need, c.Streaming.ViewDistance)
	}

	if c.Render.MaxRayDistance <= 0 {
		return fmt.Errorf("max_ray_distance должен быть > 0, задано %f", c.Render.MaxRayDistance)
	}
	if c.World.DirtDepth < 0 {
		return fmt.Errorf("dirt_depth не может быть отрицательным, задано %d", c.World.DirtDepth)
	}

	return nil
}
