package erp

import "github.com/xavierca1/zap-relay/internal/entity"

type snapshotResponse struct {
	Model    string                `json:"model"`
	RecordID int64                 `json:"record_id"`
	Fields   entity.RecordSnapshot `json:"fields"`
}

type environmentResponse struct {
	User    entity.RecordSnapshot `json:"user"`
	Company entity.RecordSnapshot `json:"company"`
}

type chatterRequest struct {
	Body string `json:"body"`
}
