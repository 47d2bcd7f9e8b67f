package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xavierca1/zap-relay/internal/entity"
	"github.com/xavierca1/zap-relay/internal/usecase"
)

const deliveryLogColumns = `
	id, created_at, updated_at, source_model, source_record_id,
	gateway_id, template_id, message, phone_number,
	request_payload, response_code, response_body,
	status, error_detail, retry_count, retry_of_id, archived
`

type DeliveryLogRepository struct {
	DB *sql.DB
}

func NewDeliveryLogRepository(db *sql.DB) *DeliveryLogRepository {
	return &DeliveryLogRepository{DB: db}
}

func (r *DeliveryLogRepository) Create(ctx context.Context, e *entity.DeliveryLogEntry) error {
	query := `
		INSERT INTO delivery_logs (` + deliveryLogColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := r.DB.ExecContext(ctx, query,
		e.ID, e.CreatedAt, e.UpdatedAt,
		nullableString(e.SourceModel), nullableInt64(e.SourceRecordID),
		e.GatewayID, nullableString(e.TemplateID), e.Message, e.PhoneNumber,
		e.RequestPayload, nullableInt(e.ResponseCode), e.ResponseBody,
		e.Status, e.ErrorDetail, e.RetryCount, nullableString(e.RetryOfID), e.Archived,
	)
	return err
}

// Update grava o desfecho de uma tentativa. O WHERE pelo ID serializa a
// escrita por entrada — tentativas concorrentes nunca compartilham entrada.
func (r *DeliveryLogRepository) Update(ctx context.Context, e *entity.DeliveryLogEntry) error {
	e.UpdatedAt = time.Now()
	query := `
		UPDATE delivery_logs
		SET status = $1, error_detail = $2, response_code = $3, response_body = $4,
		    archived = $5, updated_at = $6
		WHERE id = $7
	`
	_, err := r.DB.ExecContext(ctx, query,
		e.Status, e.ErrorDetail, nullableInt(e.ResponseCode), e.ResponseBody,
		e.Archived, e.UpdatedAt, e.ID,
	)
	return err
}

func (r *DeliveryLogRepository) FindByID(ctx context.Context, id string) (*entity.DeliveryLogEntry, error) {
	query := `SELECT ` + deliveryLogColumns + ` FROM delivery_logs WHERE id = $1`

	e, err := scanDeliveryLog(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return e, nil
}

func (r *DeliveryLogRepository) List(ctx context.Context, filter usecase.DeliveryLogFilter) ([]entity.DeliveryLogEntry, error) {
	query := `SELECT ` + deliveryLogColumns + ` FROM delivery_logs WHERE archived = false`
	args := []any{}
	i := 1

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", i)
		args = append(args, filter.Status)
		i++
	}
	if filter.GatewayID != "" {
		query += fmt.Sprintf(" AND gateway_id = $%d", i)
		args = append(args, filter.GatewayID)
		i++
	}
	if filter.Phone != "" {
		query += fmt.Sprintf(" AND phone_number = $%d", i)
		args = append(args, filter.Phone)
		i++
	}

	query += " ORDER BY created_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", i, i+1)
	args = append(args, limit, filter.Offset)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []entity.DeliveryLogEntry
	for rows.Next() {
		e, err := scanDeliveryLog(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// FindChain percorre a cadeia de retentativas para trás, da entrada dada
// até a original (retry_count = 0).
func (r *DeliveryLogRepository) FindChain(ctx context.Context, id string) ([]entity.DeliveryLogEntry, error) {
	var chain []entity.DeliveryLogEntry

	current := id
	for current != "" {
		e, err := r.FindByID(ctx, current)
		if err != nil {
			return nil, err
		}
		if e == nil {
			break
		}
		chain = append(chain, *e)
		current = e.RetryOfID
	}

	return chain, nil
}

// ArchiveBefore marca como arquivadas as entradas com desfecho anteriores
// ao corte. Nada é apagado — o log é append-only.
func (r *DeliveryLogRepository) ArchiveBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		UPDATE delivery_logs
		SET archived = true, updated_at = NOW()
		WHERE archived = false
		  AND status IN ('sent', 'failed', 'retrying')
		  AND created_at < $1
	`
	result, err := r.DB.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanDeliveryLog(row rowScanner) (*entity.DeliveryLogEntry, error) {
	var e entity.DeliveryLogEntry
	var sourceModel, templateID, retryOfID sql.NullString
	var sourceRecordID sql.NullInt64
	var responseCode sql.NullInt64

	err := row.Scan(
		&e.ID, &e.CreatedAt, &e.UpdatedAt, &sourceModel, &sourceRecordID,
		&e.GatewayID, &templateID, &e.Message, &e.PhoneNumber,
		&e.RequestPayload, &responseCode, &e.ResponseBody,
		&e.Status, &e.ErrorDetail, &e.RetryCount, &retryOfID, &e.Archived,
	)
	if err != nil {
		return nil, err
	}

	e.SourceModel = sourceModel.String
	e.SourceRecordID = sourceRecordID.Int64
	e.TemplateID = templateID.String
	e.RetryOfID = retryOfID.String
	e.ResponseCode = int(responseCode.Int64)

	return &e, nil
}

func nullableInt64(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}

func nullableInt(v int) any {
	if v == 0 {
		return nil
	}
	return v
}
