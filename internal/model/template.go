// Package model はドメインモデルを定義する。
package model

import "time"

// Template は投稿テンプレートを表す。
// ギャラリーに表示され、エディタの下書きの雛形として使われる。
type Template struct {
	ID        string
	Name      string
	Category  string
	Body      string
	CreatedAt time.Time
}
