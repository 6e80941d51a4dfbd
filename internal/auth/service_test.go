package auth

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/hitoshi/skinmarket/internal/model"
)

// --- モック定義 ---

// mockIdentityProvider はIdentityProviderのモック実装。
type mockIdentityProvider struct {
	getLoginURLFn    func() string
	verifyCallbackFn func(ctx context.Context, callbackParams url.Values) (string, error)
	fetchProfileFn   func(ctx context.Context, accountID string) ([]byte, error)
}

func (m *mockIdentityProvider) GetLoginURL() string {
	if m.getLoginURLFn != nil {
		return m.getLoginURLFn()
	}
	return "https://steamcommunity.com/openid/login?openid.mode=checkid_setup"
}

func (m *mockIdentityProvider) VerifyCallback(ctx context.Context, callbackParams url.Values) (string, error) {
	if m.verifyCallbackFn != nil {
		return m.verifyCallbackFn(ctx, callbackParams)
	}
	return "76561198000000001", nil
}

func (m *mockIdentityProvider) FetchProfile(ctx context.Context, accountID string) ([]byte, error) {
	if m.fetchProfileFn != nil {
		return m.fetchProfileFn(ctx, accountID)
	}
	return []byte(`{"personaname":"TestUser"}`), nil
}

// mockSessionRepo はrepository.SessionRepositoryのモック実装。
type mockSessionRepo struct {
	createFn     func(ctx context.Context, session *model.Session) error
	findByIDFn   func(ctx context.Context, id string) (*model.Session, error)
	deleteByIDFn func(ctx context.Context, id string) error

	createdSessions []*model.Session
}

func (m *mockSessionRepo) Create(ctx context.Context, session *model.Session) error {
	m.createdSessions = append(m.createdSessions, session)
	if m.createFn != nil {
		return m.createFn(ctx, session)
	}
	return nil
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockSessionRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

// --- テスト ---

func TestService_GetLoginURL_DelegatesToProvider(t *testing.T) {
	provider := &mockIdentityProvider{
		getLoginURLFn: func() string {
			return "https://steamcommunity.com/openid/login?test=1"
		},
	}
	service := NewService(provider, &mockSessionRepo{}, ServiceConfig{SessionMaxAge: 86400})

	got := service.GetLoginURL()
	if got != "https://steamcommunity.com/openid/login?test=1" {
		t.Errorf("GetLoginURL = %q, want %q", got, "https://steamcommunity.com/openid/login?test=1")
	}
}

func TestService_HandleCallback_CreatesSession(t *testing.T) {
	repo := &mockSessionRepo{}
	provider := &mockIdentityProvider{}
	service := NewService(provider, repo, ServiceConfig{SessionMaxAge: 3600})

	before := time.Now()
	session, err := service.HandleCallback(context.Background(), url.Values{"openid.mode": {"id_res"}})
	if err != nil {
		t.Fatalf("HandleCallback() error = %v", err)
	}

	if session == nil {
		t.Fatal("expected non-nil session")
	}
	if session.ID == "" {
		t.Error("expected non-empty session ID")
	}
	if len(session.ID) != 64 {
		t.Errorf("len(session.ID) = %d, want 64 (32バイトの16進文字列)", len(session.ID))
	}
	if session.SteamID != "76561198000000001" {
		t.Errorf("SteamID = %q, want %q", session.SteamID, "76561198000000001")
	}
	// プロフィールはIdPのJSONがそのまま保存される
	if string(session.Profile) != `{"personaname":"TestUser"}` {
		t.Errorf("Profile = %s, want %s", session.Profile, `{"personaname":"TestUser"}`)
	}

	// 有効期限はSessionMaxAge秒後
	wantExpiry := before.Add(3600 * time.Second)
	if session.ExpiresAt.Before(wantExpiry.Add(-time.Minute)) || session.ExpiresAt.After(wantExpiry.Add(time.Minute)) {
		t.Errorf("ExpiresAt = %v, want around %v", session.ExpiresAt, wantExpiry)
	}

	// セッションが永続化されている
	if len(repo.createdSessions) != 1 {
		t.Fatalf("len(createdSessions) = %d, want 1", len(repo.createdSessions))
	}
	if repo.createdSessions[0].ID != session.ID {
		t.Errorf("persisted session ID = %q, want %q", repo.createdSessions[0].ID, session.ID)
	}
}

// 検証失敗時はセッションが発行されないことを検証
func TestService_HandleCallback_VerifyFails_NoSession(t *testing.T) {
	repo := &mockSessionRepo{}
	provider := &mockIdentityProvider{
		verifyCallbackFn: func(ctx context.Context, callbackParams url.Values) (string, error) {
			return "", errors.New("openid assertion rejected by provider")
		},
	}
	service := NewService(provider, repo, ServiceConfig{SessionMaxAge: 3600})

	_, err := service.HandleCallback(context.Background(), url.Values{})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if len(repo.createdSessions) != 0 {
		t.Errorf("session should not be created when verification fails, got %d", len(repo.createdSessions))
	}
}

// プロフィール取得失敗時もセッションが発行されないことを検証
func TestService_HandleCallback_FetchProfileFails_NoSession(t *testing.T) {
	repo := &mockSessionRepo{}
	provider := &mockIdentityProvider{
		fetchProfileFn: func(ctx context.Context, accountID string) ([]byte, error) {
			return nil, errors.New("profile fetch failed with status 403")
		},
	}
	service := NewService(provider, repo, ServiceConfig{SessionMaxAge: 3600})

	_, err := service.HandleCallback(context.Background(), url.Values{})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if len(repo.createdSessions) != 0 {
		t.Errorf("session should not be created when profile fetch fails, got %d", len(repo.createdSessions))
	}
}

func TestService_HandleCallback_SessionIDsAreUnique(t *testing.T) {
	repo := &mockSessionRepo{}
	service := NewService(&mockIdentityProvider{}, repo, ServiceConfig{SessionMaxAge: 3600})

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		session, err := service.HandleCallback(context.Background(), url.Values{})
		if err != nil {
			t.Fatalf("HandleCallback() error = %v", err)
		}
		if seen[session.ID] {
			t.Fatalf("duplicate session ID generated: %q", session.ID)
		}
		seen[session.ID] = true
	}
}

func TestService_GetCurrentProfile(t *testing.T) {
	repo := &mockSessionRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			if id == "valid-session" {
				return &model.Session{
					ID:      "valid-session",
					SteamID: "76561198000000001",
					Profile: []byte(`{"personaname":"TestUser"}`),
				}, nil
			}
			return nil, nil
		},
	}
	service := NewService(&mockIdentityProvider{}, repo, ServiceConfig{SessionMaxAge: 3600})

	t.Run("有効なセッション", func(t *testing.T) {
		profile, err := service.GetCurrentProfile(context.Background(), "valid-session")
		if err != nil {
			t.Fatalf("GetCurrentProfile() error = %v", err)
		}
		if string(profile) != `{"personaname":"TestUser"}` {
			t.Errorf("profile = %s, want %s", profile, `{"personaname":"TestUser"}`)
		}
	})

	t.Run("存在しないセッション", func(t *testing.T) {
		_, err := service.GetCurrentProfile(context.Background(), "missing-session")
		if err == nil {
			t.Error("expected error for missing session, got nil")
		}
	})

	t.Run("空のセッションID", func(t *testing.T) {
		_, err := service.GetCurrentProfile(context.Background(), "")
		if err == nil {
			t.Error("expected error for empty session ID, got nil")
		}
	})
}

func TestService_Logout(t *testing.T) {
	var deletedID string
	repo := &mockSessionRepo{
		deleteByIDFn: func(ctx context.Context, id string) error {
			deletedID = id
			return nil
		},
	}
	service := NewService(&mockIdentityProvider{}, repo, ServiceConfig{SessionMaxAge: 3600})

	if err := service.Logout(context.Background(), "session-to-delete"); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if deletedID != "session-to-delete" {
		t.Errorf("deleted session ID = %q, want %q", deletedID, "session-to-delete")
	}
}

func TestService_Logout_EmptySessionID_ReturnsError(t *testing.T) {
	service := NewService(&mockIdentityProvider{}, &mockSessionRepo{}, ServiceConfig{SessionMaxAge: 3600})

	if err := service.Logout(context.Background(), ""); err == nil {
		t.Error("expected error for empty session ID, got nil")
	}
}
