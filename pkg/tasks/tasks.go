// Package tasks defines the structure for tasks that are sent to Kafka.
package tasks

// IngestTask 描述一次文档入库任务：源文件已上传到对象存储。
type IngestTask struct {
	ObjectName string `json:"object_name"`
	FileName   string `json:"file_name"`
	UploadedBy string `json:"uploaded_by"`
}
