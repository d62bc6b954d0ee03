// Package model 定义了核心数据结构。
package model

// Chunk 是检索的基本单位：一段带来源信息的文档切片。
// 切片在快照中的位置即为其向量在矩阵中的行号。
type Chunk struct {
	Content     string `json:"content"`
	Source      string `json:"source"`
	ChunkIndex  int    `json:"chunkIndex"`
	TotalChunks int    `json:"totalChunks"`
}
