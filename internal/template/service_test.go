package template

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/postdeck/internal/model"
	"github.com/hitoshi/postdeck/internal/repository"
)

// --- モック定義 ---

type mockTemplateRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.Template, error)
	listFn     func(ctx context.Context) ([]model.Template, error)
	countFn    func(ctx context.Context) (int, error)
	createFn   func(ctx context.Context, template *model.Template) error
}

func (m *mockTemplateRepo) FindByID(ctx context.Context, id string) (*model.Template, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockTemplateRepo) List(ctx context.Context) ([]model.Template, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockTemplateRepo) Count(ctx context.Context) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

func (m *mockTemplateRepo) Create(ctx context.Context, template *model.Template) error {
	if m.createFn != nil {
		return m.createFn(ctx, template)
	}
	return nil
}

var _ repository.TemplateRepository = (*mockTemplateRepo)(nil)

// --- テスト ---

// 存在しないテンプレートの取得がTEMPLATE_NOT_FOUNDになることを検証
func TestGet_NotFound(t *testing.T) {
	svc := NewService(&mockTemplateRepo{})

	_, err := svc.Get(context.Background(), "missing-template")
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %T", err)
	}
	if apiErr.Code != "TEMPLATE_NOT_FOUND" {
		t.Errorf("code = %q, want TEMPLATE_NOT_FOUND", apiErr.Code)
	}
}

// 未登録の場合にデフォルトテンプレートが投入されることを検証
func TestSeedDefaults_EmptyTable(t *testing.T) {
	var created []model.Template
	repo := &mockTemplateRepo{
		countFn: func(_ context.Context) (int, error) { return 0, nil },
		createFn: func(_ context.Context, tmpl *model.Template) error {
			created = append(created, *tmpl)
			return nil
		},
	}
	svc := NewService(repo)

	if err := svc.SeedDefaults(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(created) != len(defaultTemplates) {
		t.Fatalf("created %d templates, want %d", len(created), len(defaultTemplates))
	}
	for _, tmpl := range created {
		if tmpl.ID == "" {
			t.Error("expected generated template ID")
		}
		if tmpl.Name == "" || tmpl.Category == "" || tmpl.Body == "" {
			t.Errorf("incomplete template: %+v", tmpl)
		}
	}
}

// 登録済みの場合は投入をスキップすることを検証
func TestSeedDefaults_AlreadySeeded(t *testing.T) {
	createCalled := false
	repo := &mockTemplateRepo{
		countFn: func(_ context.Context) (int, error) { return 6, nil },
		createFn: func(_ context.Context, _ *model.Template) error {
			createCalled = true
			return nil
		},
	}
	svc := NewService(repo)

	if err := svc.SeedDefaults(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if createCalled {
		t.Error("Create should not be called when templates exist")
	}
}

// Listがリポジトリの結果をそのまま返すことを検証
func TestList_ReturnsTemplates(t *testing.T) {
	repo := &mockTemplateRepo{
		listFn: func(_ context.Context) ([]model.Template, error) {
			return []model.Template{
				{ID: "t1", Name: "失敗からの学び", Category: "experience"},
				{ID: "t2", Name: "採用募集", Category: "recruiting"},
			}, nil
		},
	}
	svc := NewService(repo)

	templates, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(templates) != 2 {
		t.Fatalf("len = %d, want 2", len(templates))
	}
}
