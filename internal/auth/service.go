// Package auth はSteam OpenID認証フローとセッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/hitoshi/skinmarket/internal/model"
	"github.com/hitoshi/skinmarket/internal/repository"
)

// IdentityProvider は外部IdPによる認証のインターフェース。
// プロフィールは解釈せず、IdPが返したJSONをそのまま受け渡す。
type IdentityProvider interface {
	// GetLoginURL はIdPの認証URLを生成する。
	GetLoginURL() string
	// VerifyCallback はIdPコールバックを検証し、アカウントIDを返す。
	VerifyCallback(ctx context.Context, callbackParams url.Values) (string, error)
	// FetchProfile はアカウントのプロフィールを取得し、JSONのまま返す。
	FetchProfile(ctx context.Context, accountID string) ([]byte, error)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	provider    IdentityProvider
	sessionRepo repository.SessionRepository
	config      ServiceConfig
}

// NewService はServiceを生成する。
func NewService(provider IdentityProvider, sessionRepo repository.SessionRepository, config ServiceConfig) *Service {
	return &Service{
		provider:    provider,
		sessionRepo: sessionRepo,
		config:      config,
	}
}

// GetLoginURL はIdPの認証URLを生成する。
func (s *Service) GetLoginURL() string {
	return s.provider.GetLoginURL()
}

// HandleCallback はIdPコールバックを検証し、セッションを発行する。
// プロフィールはIdPから受け取ったJSONをそのままセッションに保存する。
// いずれかのステップが失敗した場合、セッションは発行されない。
func (s *Service) HandleCallback(ctx context.Context, callbackParams url.Values) (*model.Session, error) {
	// 1. アサーションの検証
	steamID, err := s.provider.VerifyCallback(ctx, callbackParams)
	if err != nil {
		return nil, fmt.Errorf("failed to verify openid callback: %w", err)
	}

	// 2. プロフィールの取得（パススルー）
	profile, err := s.provider.FetchProfile(ctx, steamID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}

	// 3. セッションを発行
	session, err := s.createSession(ctx, steamID, profile)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("user logged in", slog.String("steam_id", steamID))
	return session, nil
}

// GetCurrentProfile はセッションから現在のプロフィールを取得する。
// 未認証の場合はnilとエラーを返す。
func (s *Service) GetCurrentProfile(ctx context.Context, sessionID string) ([]byte, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session ID is required")
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("session not found or expired")
	}

	return session.Profile, nil
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out", slog.String("session_id", sessionID))
	return nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, steamID string, profile []byte) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &model.Session{
		ID:        sessionID,
		SteamID:   steamID,
		Profile:   profile,
		ExpiresAt: time.Now().Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
