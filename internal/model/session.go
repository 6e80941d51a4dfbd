package model

import "time"

// Session はユーザーのログインセッションを表す。
// Profile はIdPから受け取ったプロフィールのJSONをそのまま保持する。
// フィールドの解釈は行わず、パススルーのバイト列として扱う。
type Session struct {
	ID        string
	SteamID   string
	Profile   []byte
	ExpiresAt time.Time
	CreatedAt time.Time
}
