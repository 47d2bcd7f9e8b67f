package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/xavierca1/zap-relay/internal/entity"
)

type GatewayRepository struct {
	DB *sql.DB
}

func NewGatewayRepository(db *sql.DB) *GatewayRepository {
	return &GatewayRepository{DB: db}
}

func (r *GatewayRepository) Create(ctx context.Context, gw *entity.Gateway) error {
	query := `
		INSERT INTO gateways
		(id, name, variant, active, url, method, header_template, body_template,
		 api_key_value, phone_number_id, access_token, sender_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	var url, method, bodyTemplate, apiKey string
	var headerTemplate []byte
	if gw.External != nil {
		url = gw.External.URL
		method = gw.External.Method
		bodyTemplate = gw.External.BodyTemplate
		apiKey = gw.External.APIKeyValue
		if gw.External.HeaderTemplate != nil {
			headerTemplate, _ = json.Marshal(gw.External.HeaderTemplate)
		}
	}

	var phoneNumberID, accessToken, senderName string
	if gw.Meta != nil {
		phoneNumberID = gw.Meta.PhoneNumberID
		accessToken = gw.Meta.AccessToken
		senderName = gw.Meta.SenderName
	}

	_, err := r.DB.ExecContext(ctx, query,
		gw.ID, gw.Name, gw.Variant, gw.Active,
		url, method, nullableBytes(headerTemplate), bodyTemplate,
		apiKey, phoneNumberID, accessToken, senderName,
		gw.CreatedAt, gw.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return entity.ErrGatewayNameTaken
		}

		log.Printf("Erro crítico no banco: %v", err)
		return err
	}

	return nil
}

func (r *GatewayRepository) FindByID(ctx context.Context, id string) (*entity.Gateway, error) {
	query := `
		SELECT id, name, variant, active, url, method, header_template, body_template,
		       api_key_value, phone_number_id, access_token, sender_name, created_at, updated_at
		FROM gateways
		WHERE id = $1
	`

	gw, err := scanGateway(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return gw, nil
}

func (r *GatewayRepository) List(ctx context.Context) ([]entity.Gateway, error) {
	query := `
		SELECT id, name, variant, active, url, method, header_template, body_template,
		       api_key_value, phone_number_id, access_token, sender_name, created_at, updated_at
		FROM gateways
		ORDER BY name
	`

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var gateways []entity.Gateway
	for rows.Next() {
		gw, err := scanGateway(rows)
		if err != nil {
			return nil, err
		}
		gateways = append(gateways, *gw)
	}
	return gateways, rows.Err()
}

func (r *GatewayRepository) SetActive(ctx context.Context, id string, active bool) error {
	query := `UPDATE gateways SET active = $1, updated_at = $2 WHERE id = $3`

	result, err := r.DB.ExecContext(ctx, query, active, time.Now(), id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &entity.GatewayNotFoundError{GatewayID: id}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGateway(row rowScanner) (*entity.Gateway, error) {
	var gw entity.Gateway
	var url, method, bodyTemplate, apiKey string
	var headerTemplate []byte
	var phoneNumberID, accessToken, senderName string

	err := row.Scan(
		&gw.ID, &gw.Name, &gw.Variant, &gw.Active,
		&url, &method, &headerTemplate, &bodyTemplate,
		&apiKey, &phoneNumberID, &accessToken, &senderName,
		&gw.CreatedAt, &gw.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	switch gw.Variant {
	case entity.VariantExternalRest:
		cfg := &entity.ExternalRestConfig{
			URL:          url,
			Method:       method,
			BodyTemplate: bodyTemplate,
			APIKeyValue:  apiKey,
		}
		if len(headerTemplate) > 0 {
			if err := json.Unmarshal(headerTemplate, &cfg.HeaderTemplate); err != nil {
				return nil, err
			}
		}
		gw.External = cfg
	case entity.VariantMetaCloud:
		gw.Meta = &entity.MetaCloudConfig{
			PhoneNumberID: phoneNumberID,
			AccessToken:   accessToken,
			SenderName:    senderName,
		}
	}

	return &gw, nil
}

func nullableBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
