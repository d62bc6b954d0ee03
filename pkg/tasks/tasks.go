// Package tasks defines the structure for tasks that are sent to Kafka.
package tasks

// IndexRebuildTask represents the data structure for an index rebuild job.
// 知识库发生变化（上传/删除/手动触发）时投递，由后台消费者执行重建。
type IndexRebuildTask struct {
	Reason   string `json:"reason"` // upload / delete / manual
	FileMD5  string `json:"file_md5"`
	FileName string `json:"file_name"`
}
