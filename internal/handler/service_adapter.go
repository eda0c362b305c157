package handler

import (
	"database/sql"

	"github.com/hitoshi/postdeck/internal/auth"
	"github.com/hitoshi/postdeck/internal/generation"
	"github.com/hitoshi/postdeck/internal/inspire"
	"github.com/hitoshi/postdeck/internal/post"
	"github.com/hitoshi/postdeck/internal/template"
	"github.com/hitoshi/postdeck/internal/user"
)

// 各ドメインサービスがハンドラー側インターフェースを満たすことの
// コンパイル時チェック。ワイヤリング（internal/app）ではサービスを
// そのまま渡すため、シグネチャのずれはここで検出される。

var _ AuthServiceInterface = (*auth.Service)(nil)
var _ PostServiceInterface = (*post.Service)(nil)
var _ TemplateServiceInterface = (*template.Service)(nil)
var _ GenerationServiceInterface = (*generation.Service)(nil)
var _ InspireServiceInterface = (*inspire.Service)(nil)
var _ UserServiceInterface = (*user.Service)(nil)
var _ HealthChecker = (*sql.DB)(nil)
