// Package vectorstore 负责向量索引快照的持久化与进程内原子切换。
package vectorstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"formfiller-go/internal/model"
	"formfiller-go/pkg/log"
)

// Snapshot 是一次重建产出的完整索引：切片序列与等长同序的向量矩阵。
// 快照整体替换，创建后不再修改。
type Snapshot struct {
	Chunks     []model.Chunk `json:"documents"`
	Embeddings [][]float32   `json:"embeddings"`
	ModelID    string        `json:"model"`
	BuiltAt    time.Time     `json:"timestamp"`
}

// Len 返回快照中的切片数量。
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Chunks)
}

// Store 管理快照文件与进程级"当前快照"句柄。
// 重建只在 Save 成功后才执行 Swap，并发读取要么看到完整的旧快照，要么看到完整的新快照。
type Store struct {
	path    string
	mu      sync.RWMutex
	current *Snapshot
}

// NewStore 创建一个以 path 为快照文件路径的 Store。
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Save 将快照原子写入磁盘：先写临时文件再重命名，
// 写入中途崩溃不会破坏已有快照。
func (st *Store) Save(snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("快照为空, 拒绝写入")
	}
	if len(snap.Chunks) != len(snap.Embeddings) {
		return fmt.Errorf("快照不一致: %d 个切片对应 %d 行向量", len(snap.Chunks), len(snap.Embeddings))
	}

	dir := filepath.Dir(st.path)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("创建快照目录失败: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("创建临时快照文件失败: %w", err)
	}
	tmpName := tmp.Name()

	if err := json.NewEncoder(tmp).Encode(snap); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("序列化快照失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("关闭临时快照文件失败: %w", err)
	}

	if err := os.Rename(tmpName, st.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("替换快照文件失败: %w", err)
	}

	log.Infof("[VectorStore] 快照已保存, chunks: %d, model: %s", len(snap.Chunks), snap.ModelID)
	return nil
}

// Load 从磁盘读取快照。文件不存在或内容损坏都视为"无快照"，
// 返回 (nil, nil) 并记录日志，不作为致命错误。
func (st *Store) Load() (*Snapshot, error) {
	f, err := os.Open(st.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("打开快照文件失败: %w", err)
	}
	defer f.Close()

	var snap Snapshot
	if err := json.NewDecoder(f).Decode(&snap); err != nil {
		log.Warnf("[VectorStore] 快照文件损坏, 按无快照处理: %v", err)
		return nil, nil
	}
	if len(snap.Chunks) != len(snap.Embeddings) {
		log.Warnf("[VectorStore] 快照内容不一致 (%d 切片 / %d 向量), 按无快照处理", len(snap.Chunks), len(snap.Embeddings))
		return nil, nil
	}

	log.Infof("[VectorStore] 快照加载成功, chunks: %d, model: %s", len(snap.Chunks), snap.ModelID)
	return &snap, nil
}

// Swap 将 snap 设为当前快照。
func (st *Store) Swap(snap *Snapshot) {
	st.mu.Lock()
	st.current = snap
	st.mu.Unlock()
}

// Current 返回当前快照，可能为 nil。
func (st *Store) Current() *Snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.current
}

// Replace 先持久化再切换当前快照。Save 失败时当前快照保持不变。
func (st *Store) Replace(snap *Snapshot) error {
	if err := st.Save(snap); err != nil {
		return err
	}
	st.Swap(snap)
	return nil
}
