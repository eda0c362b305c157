package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/postdeck/internal/model"
)

// PostgresTemplateRepo はPostgreSQLを使用したテンプレートリポジトリ。
type PostgresTemplateRepo struct {
	db *sql.DB
}

// NewPostgresTemplateRepo はPostgresTemplateRepoを生成する。
func NewPostgresTemplateRepo(db *sql.DB) *PostgresTemplateRepo {
	return &PostgresTemplateRepo{db: db}
}

// FindByID は指定IDのテンプレートを取得する。見つからない場合はnilを返す。
func (r *PostgresTemplateRepo) FindByID(ctx context.Context, id string) (*model.Template, error) {
	template := &model.Template{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, category, body, created_at FROM templates WHERE id = $1`,
		id,
	).Scan(&template.ID, &template.Name, &template.Category, &template.Body, &template.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find template by ID: %w", err)
	}

	return template, nil
}

// List は全テンプレートをカテゴリ・名前順で返す。
func (r *PostgresTemplateRepo) List(ctx context.Context) ([]model.Template, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, category, body, created_at
		 FROM templates
		 ORDER BY category ASC, name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var templates []model.Template
	for rows.Next() {
		var template model.Template
		if err := rows.Scan(&template.ID, &template.Name, &template.Category, &template.Body, &template.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, template)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate templates: %w", err)
	}
	return templates, nil
}

// Count は登録済みテンプレート数を返す。
func (r *PostgresTemplateRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM templates`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count templates: %w", err)
	}
	return count, nil
}

// Create はテンプレートを作成する。名前の重複は冪等に無視する。
// 初期データ投入を複数回実行しても安全なようにON CONFLICT DO NOTHINGとする。
func (r *PostgresTemplateRepo) Create(ctx context.Context, template *model.Template) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO templates (id, name, category, body, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (name) DO NOTHING`,
		template.ID, template.Name, template.Category, template.Body, template.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert template: %w", err)
	}
	return nil
}

// compile-time interface check
var _ TemplateRepository = (*PostgresTemplateRepo)(nil)
