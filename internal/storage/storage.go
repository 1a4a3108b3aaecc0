// Package storage отвечает за персистентность правок мира.
// Сгенерированные чанки не сохраняются целиком: на диск попадают
// только правки вокселей поверх детерминированной генерации. Когда
// правок чанка накапливается много, они схлопываются в сжатый снимок.
package storage

import (
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v3"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/annel0/voxel-rt/internal/logging"
	"github.com/annel0/voxel-rt/internal/vec"
	"github.com/annel0/voxel-rt/internal/world"
)

const worldIDKey = "meta:world_id"

// VoxelMutation — одна правка вокселя в локальных координатах чанка
type VoxelMutation struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Z     int    `json:"z"`
	Value uint32 `json:"v"`
}

// WorldStorage хранит правки мира в BadgerDB
type WorldStorage struct {
	db                *badger.DB
	worldID           uuid.UUID
	snapshotThreshold int
	enc               *zstd.Encoder
	dec               *zstd.Decoder
}

// NewWorldStorage открывает хранилище в указанной директории.
// Идентификатор мира создаётся при первом открытии и сохраняется.
func NewWorldStorage(dataPath string, snapshotThreshold int) (*WorldStorage, error) {
	opts := badger.DefaultOptions(dataPath)
	opts.Logger = nil // Badger шумит в свой логгер, глушим

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("открытие BadgerDB в %s: %w", dataPath, err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("создание zstd-кодировщика: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("создание zstd-декодировщика: %w", err)
	}

	ws := &WorldStorage{
		db:                db,
		snapshotThreshold: snapshotThreshold,
		enc:               enc,
		dec:               dec,
	}
	if err := ws.loadOrCreateWorldID(); err != nil {
		db.Close()
		return nil, err
	}

	logging.LogInfo("Хранилище мира %s открыто в %s", ws.worldID, dataPath)
	return ws, nil
}

func (ws *WorldStorage) loadOrCreateWorldID() error {
	return ws.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(worldIDKey))
		if err == badger.ErrKeyNotFound {
			ws.worldID = uuid.New()
			return txn.Set([]byte(worldIDKey), []byte(ws.worldID.String()))
		}
		if err != nil {
			return fmt.Errorf("чтение идентификатора мира: %w", err)
		}
		return item.Value(func(val []byte) error {
			id, err := uuid.Parse(string(val))
			if err != nil {
				return fmt.Errorf("разбор идентификатора мира: %w", err)
			}
			ws.worldID = id
			return nil
		})
	})
}

// WorldID возвращает постоянный идентификатор мира
func (ws *WorldStorage) WorldID() uuid.UUID {
	return ws.worldID
}

func deltaKey(coords vec.Vec3) []byte {
	return []byte(fmt.Sprintf("delta:%d:%d:%d", coords.X, coords.Y, coords.Z))
}

func snapshotKey(coords vec.Vec3) []byte {
	return []byte(fmt.Sprintf("snap:%d:%d:%d", coords.X, coords.Y, coords.Z))
}

// RecordMutation сохраняет правку вокселя чанка.
// Чанк передаётся уже с применённой правкой: если накопленные правки
// превысили порог, его текущее состояние становится снимком, а журнал
// правок очищается.
func (ws *WorldStorage) RecordMutation(chunk *world.Chunk, m VoxelMutation) error {
	return ws.db.Update(func(txn *badger.Txn) error {
		var mutations []VoxelMutation
		item, err := txn.Get(deltaKey(chunk.Coords))
		if err == nil {
			err = item.Value(func(val []byte) error {
				return json.Unmarshal(val, &mutations)
			})
			if err != nil {
				return fmt.Errorf("чтение журнала правок %v: %w", chunk.Coords, err)
			}
		} else if err != badger.ErrKeyNotFound {
			return fmt.Errorf("чтение журнала правок %v: %w", chunk.Coords, err)
		}

		mutations = append(mutations, m)

		if len(mutations) >= ws.snapshotThreshold {
			// Журнал разросся, схлопываем в сжатый снимок
			compressed := ws.enc.EncodeAll(chunk.Bytes(), nil)
			if err := txn.Set(snapshotKey(chunk.Coords), compressed); err != nil {
				return fmt.Errorf("запись снимка %v: %w", chunk.Coords, err)
			}
			if err := txn.Delete(deltaKey(chunk.Coords)); err != nil {
				return fmt.Errorf("очистка журнала правок %v: %w", chunk.Coords, err)
			}
			logging.LogDebug("Чанк %v: %d правок схлопнуты в снимок (%d байт)",
				chunk.Coords, len(mutations), len(compressed))
			return nil
		}

		data, err := json.Marshal(mutations)
		if err != nil {
			return fmt.Errorf("сериализация журнала правок %v: %w", chunk.Coords, err)
		}
		return txn.Set(deltaKey(chunk.Coords), data)
	})
}

// ApplyTo накладывает сохранённые правки на свежесгенерированный чанк.
// Сначала восстанавливается снимок, если он есть, затем проигрывается
// журнал правок поверх.
func (ws *WorldStorage) ApplyTo(chunk *world.Chunk) error {
	return ws.db.View(func(txn *badger.Txn) error {
		if item, err := txn.Get(snapshotKey(chunk.Coords)); err == nil {
			err = item.Value(func(val []byte) error {
				raw, err := ws.dec.DecodeAll(val, nil)
				if err != nil {
					return fmt.Errorf("распаковка снимка %v: %w", chunk.Coords, err)
				}
				if len(raw) != world.ChunkBytes {
					return fmt.Errorf("снимок %v повреждён: %d байт", chunk.Coords, len(raw))
				}
				for i := range chunk.Voxels {
					chunk.Voxels[i] = world.Voxel(uint32(raw[i*4]) |
						uint32(raw[i*4+1])<<8 |
						uint32(raw[i*4+2])<<16 |
						uint32(raw[i*4+3])<<24)
				}
				return nil
			})
			if err != nil {
				return err
			}
		} else if err != badger.ErrKeyNotFound {
			return fmt.Errorf("чтение снимка %v: %w", chunk.Coords, err)
		}

		item, err := txn.Get(deltaKey(chunk.Coords))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return fmt.Errorf("чтение журнала правок %v: %w", chunk.Coords, err)
		}
		return item.Value(func(val []byte) error {
			var mutations []VoxelMutation
			if err := json.Unmarshal(val, &mutations); err != nil {
				return fmt.Errorf("разбор журнала правок %v: %w", chunk.Coords, err)
			}
			for _, m := range mutations {
				chunk.Set(m.X, m.Y, m.Z, world.Voxel(m.Value))
			}
			return nil
		})
	})
}

// PendingMutations возвращает число несхлопнутых правок чанка
func (ws *WorldStorage) PendingMutations(coords vec.Vec3) (int, error) {
	count := 0
	err := ws.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(deltaKey(coords))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var mutations []VoxelMutation
			if err := json.Unmarshal(val, &mutations); err != nil {
				return err
			}
			count = len(mutations)
			return nil
		})
	})
	return count, err
}

// Close закрывает хранилище
func (ws *WorldStorage) Close() error {
	ws.enc.Close()
	ws.dec.Close()
	return ws.db.Close()
}
