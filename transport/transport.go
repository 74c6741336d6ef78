// Package transport talks to the storage nodes holding file bytes. The
// metadata engine only needs the three calls below; replication, chunking and
// node placement are the nodes' problem.
package transport

import "context"

// UploadResult is the storage metadata a node returns once bytes are durable.
type UploadResult struct {
	StorageName    string   `json:"fileName"`
	StoragePath    string   `json:"filePath"`
	NodeAssignment []string `json:"nodeId"`
}

// Adapter is the binary upload/download/delete contract. Implementations
// authenticate with the caller's opaque token.
type Adapter interface {
	Upload(ctx context.Context, fileName string, data []byte, authToken string) (UploadResult, error)
	PhysicalDelete(ctx context.Context, storageName string, authToken string) error
	Download(ctx context.Context, storageName string, authToken string) ([]byte, error)
}
