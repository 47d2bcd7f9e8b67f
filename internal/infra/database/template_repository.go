package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/xavierca1/zap-relay/internal/entity"
)

type TemplateRepository struct {
	DB *sql.DB
}

func NewTemplateRepository(db *sql.DB) *TemplateRepository {
	return &TemplateRepository{DB: db}
}

func (r *TemplateRepository) Create(ctx context.Context, tpl *entity.Template) error {
	query := `
		INSERT INTO templates
		(id, name, model_name, variants, body, default_gateway_id, preview_text, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	variants := make([]string, 0, len(tpl.Variants))
	for _, v := range tpl.Variants {
		variants = append(variants, string(v))
	}

	_, err := r.DB.ExecContext(ctx, query,
		tpl.ID, tpl.Name, tpl.ModelName, pq.Array(variants),
		tpl.Body, nullableString(tpl.DefaultGatewayID), tpl.PreviewText, tpl.Active,
		tpl.CreatedAt, tpl.UpdatedAt,
	)
	return err
}

func (r *TemplateRepository) FindByID(ctx context.Context, id string) (*entity.Template, error) {
	query := `
		SELECT id, name, model_name, variants, body, default_gateway_id, preview_text, active, created_at, updated_at
		FROM templates
		WHERE id = $1
	`

	tpl, err := scanTemplate(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return tpl, nil
}

func (r *TemplateRepository) List(ctx context.Context) ([]entity.Template, error) {
	query := `
		SELECT id, name, model_name, variants, body, default_gateway_id, preview_text, active, created_at, updated_at
		FROM templates
		ORDER BY name
	`

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []entity.Template
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, *tpl)
	}
	return templates, rows.Err()
}

func (r *TemplateRepository) UpdatePreview(ctx context.Context, id, preview string) error {
	query := `UPDATE templates SET preview_text = $1, updated_at = $2 WHERE id = $3`
	_, err := r.DB.ExecContext(ctx, query, preview, time.Now(), id)
	return err
}

func scanTemplate(row rowScanner) (*entity.Template, error) {
	var tpl entity.Template
	var variants []string
	var defaultGatewayID sql.NullString

	err := row.Scan(
		&tpl.ID, &tpl.Name, &tpl.ModelName, pq.Array(&variants),
		&tpl.Body, &defaultGatewayID, &tpl.PreviewText, &tpl.Active,
		&tpl.CreatedAt, &tpl.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	for _, v := range variants {
		tpl.Variants = append(tpl.Variants, entity.GatewayVariant(v))
	}
	tpl.DefaultGatewayID = defaultGatewayID.String

	return &tpl, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
